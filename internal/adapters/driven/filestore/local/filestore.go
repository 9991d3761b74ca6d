// Package local provides a directory-backed FileStore for uploaded files.
//
// Files are written once under a generated name and removed after the
// document processor has consumed them.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
)

const (
	defaultDir = "uploads"
	dirPerm    = 0o700
	filePerm   = 0o600
)

// Verify interface compliance.
var _ driven.FileStore = (*FileStore)(nil)

// FileStore stores uploads in a single flat directory.
type FileStore struct {
	dir string
}

// New creates a FileStore rooted at dir, creating it if needed.
// An empty dir uses ~/.ragpipe/uploads.
func New(dir string) (*FileStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, ".ragpipe", defaultDir)
	}

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	return &FileStore{dir: dir}, nil
}

// Dir returns the upload directory.
func (f *FileStore) Dir() string {
	return f.dir
}

// Save writes r to <uuid><ext> and returns the key and bytes written.
func (f *FileStore) Save(_ context.Context, ext string, r io.Reader) (string, int64, error) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	key := uuid.New().String() + strings.ToLower(ext)

	file, err := os.OpenFile(filepath.Join(f.dir, key), os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerm)
	if err != nil {
		return "", 0, fmt.Errorf("creating upload file: %w", err)
	}

	size, err := io.Copy(file, r)
	if err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return "", 0, fmt.Errorf("writing upload file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(file.Name())
		return "", 0, fmt.Errorf("closing upload file: %w", err)
	}

	return key, size, nil
}

// Open returns a reader for a stored file.
func (f *FileStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := f.path(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("opening upload %s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("opening upload %s: %w", key, err)
	}
	return file, nil
}

// Delete removes a stored file.
func (f *FileStore) Delete(_ context.Context, key string) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("deleting upload %s: %w", key, domain.ErrNotFound)
		}
		return fmt.Errorf("deleting upload %s: %w", key, err)
	}
	return nil
}

// path resolves a key inside the upload directory.
// Keys are flat names; anything with a path separator is rejected.
func (f *FileStore) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || key == "." || key == ".." {
		return "", fmt.Errorf("%w: invalid file key %q", domain.ErrInvalidInput, key)
	}
	return filepath.Join(f.dir, key), nil
}
