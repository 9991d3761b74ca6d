// Package watcher uploads files dropped into an inbox directory.
//
// It watches a single directory (not its subdirectories) and uploads
// every file that is created or rewritten there once writes have settled.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driving"
	"github.com/custodia-labs/ragpipe/internal/logger"
	"github.com/custodia-labs/ragpipe/internal/normalisers"
)

// DefaultDebounce is how long a file must be quiet before it is uploaded.
const DefaultDebounce = 500 * time.Millisecond

// Result reports the outcome of one upload.
type Result struct {
	Path     string
	Document *domain.Document
	Err      error
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithPatterns restricts uploads to file names matching any of the
// doublestar patterns, e.g. "*.md" or "report-*.{pdf,txt}".
func WithPatterns(patterns ...string) Option {
	return func(w *Watcher) {
		w.patterns = append(w.patterns, patterns...)
	}
}

// WithDebounce sets the quiet period before a changed file is uploaded.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithExisting uploads matching files already in the directory on start.
func WithExisting() Option {
	return func(w *Watcher) {
		w.existing = true
	}
}

// WithResults receives the outcome of every upload.
// The callback runs on the upload goroutine and must not block for long.
func WithResults(fn func(Result)) Option {
	return func(w *Watcher) {
		w.onResult = fn
	}
}

// Watcher uploads files that appear in a directory into a pipeline.
type Watcher struct {
	dir        string
	pipelineID string
	documents  driving.DocumentService

	patterns []string
	debounce time.Duration
	existing bool
	onResult func(Result)

	mu     sync.Mutex
	timers map[string]*time.Timer
	wg     sync.WaitGroup
}

// New creates a watcher for dir that uploads into pipelineID.
func New(dir, pipelineID string, documents driving.DocumentService, opts ...Option) (*Watcher, error) {
	w := &Watcher{
		dir:        dir,
		pipelineID: pipelineID,
		documents:  documents,
		debounce:   DefaultDebounce,
		timers:     make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}

	for _, p := range w.patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("%w: invalid pattern %q", domain.ErrInvalidInput, p)
		}
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}
	return w, nil
}

// Run watches until ctx is cancelled, then waits for in-flight uploads.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Info("Watching %s for pipeline %s", w.dir, w.pipelineID)

	if w.existing {
		w.scanExisting(ctx)
	}

	defer w.drain()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if w.Matches(event.Name) {
				w.schedule(ctx, event.Name)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// Matches reports whether a path's file name passes the pattern filter.
// Hidden files never match.
func (w *Watcher) Matches(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	if len(w.patterns) == 0 {
		return true
	}
	for _, p := range w.patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) scanExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		logger.Warn("Failed to list %s: %v", w.dir, err)
		return
	}
	for _, e := range entries {
		path := filepath.Join(w.dir, e.Name())
		if e.Type().IsRegular() && w.Matches(path) {
			w.schedule(ctx, path)
		}
	}
}

// schedule (re)starts the debounce timer of a path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok && t.Stop() {
		t.Reset(w.debounce)
		return
	}

	w.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() {
		defer w.wg.Done()

		w.mu.Lock()
		if w.timers[path] == t {
			delete(w.timers, path)
		}
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		w.upload(ctx, path)
	})
	w.timers[path] = t
}

func (w *Watcher) upload(ctx context.Context, path string) {
	result := Result{Path: path}
	defer func() {
		if w.onResult != nil {
			w.onResult(result)
		}
	}()

	info, err := os.Stat(path)
	if err != nil {
		result.Err = fmt.Errorf("stat %s: %w", path, err)
		return
	}
	if !info.Mode().IsRegular() {
		result.Err = fmt.Errorf("%w: %s is not a regular file", domain.ErrInvalidInput, path)
		return
	}

	f, err := os.Open(path) //nolint:gosec // G304: path is inside the watched directory
	if err != nil {
		result.Err = fmt.Errorf("open %s: %w", path, err)
		return
	}
	defer f.Close()

	doc, err := w.documents.Upload(ctx, w.pipelineID, filepath.Base(path), normalisers.DetectMIMEType(path), f)
	if err != nil {
		result.Err = fmt.Errorf("upload %s: %w", filepath.Base(path), err)
		logger.Warn("Watcher upload failed: %v", result.Err)
		return
	}
	result.Document = doc
	logger.Info("Uploaded %s as %s", filepath.Base(path), doc.ID)
}

// drain stops pending timers and waits for running uploads.
func (w *Watcher) drain() {
	w.mu.Lock()
	for path, t := range w.timers {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.timers, path)
	}
	w.mu.Unlock()
	w.wg.Wait()
}
