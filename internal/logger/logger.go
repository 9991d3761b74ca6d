// Package logger provides leveled logging for ragpipe.
//
// Warn and Error always print. Debug and Info print only in verbose mode,
// which the --verbose flag enables. Messages go to stderr so command
// output on stdout stays machine readable.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Level orders log messages by severity.
type Level int

// Levels, least severe first.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

// String returns the upper-case level name.
func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
	return levelNames[l]
}

var (
	mu     sync.Mutex
	level  = LevelWarn
	output io.Writer = os.Stderr
)

// SetVerbose lowers the threshold to Debug, or restores it to Warn.
func SetVerbose(v bool) {
	if v {
		SetLevel(LevelDebug)
		return
	}
	SetLevel(LevelWarn)
}

// SetLevel sets the least severe level that is printed.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// Enabled reports whether messages at l are printed.
func Enabled(l Level) bool {
	mu.Lock()
	defer mu.Unlock()
	return l >= level
}

// SetOutput redirects log output. Tests pass io.Discard or a buffer.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug logs detail useful when tracing a single document.
func Debug(format string, args ...any) { logf(LevelDebug, format, args...) }

// Info logs progress of long-running commands.
func Info(format string, args ...any) { logf(LevelInfo, format, args...) }

// Warn logs a recoverable problem.
func Warn(format string, args ...any) { logf(LevelWarn, format, args...) }

// Error logs a failure.
func Error(format string, args ...any) { logf(LevelError, format, args...) }

func logf(l Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if l < level {
		return
	}
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	fmt.Fprintf(output, "[%s] %s\n", l, msg)
}
