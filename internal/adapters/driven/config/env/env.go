// Package env loads .env files into the process environment and exposes
// environment lookups to the settings service.
package env

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/ragpipe/internal/logger"
)

// FileName is the dotenv file looked up in a directory.
const FileName = ".env"

// LookupFunc reports the value of an environment variable.
type LookupFunc func(key string) (string, bool)

// OS looks up the process environment.
func OS() LookupFunc {
	return os.LookupEnv
}

// Load reads dir/.env into the process environment. Variables that are
// already set win. A missing file is not an error.
func Load(dir string) error {
	path := filepath.Join(dir, FileName)
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	logger.Debug("Loaded environment from %s", path)
	return nil
}

// Map returns a lookup over a fixed set of variables, e.g. one parsed
// from a dotenv file with Read.
func Map(vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		val, ok := vars[key]
		return val, ok
	}
}

// Read parses a dotenv file without touching the process environment.
func Read(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return vars, nil
}
