package driven

import (
	"context"
	"io"
)

// FileStore is write-once temporary storage for uploaded files.
type FileStore interface {
	// Save writes r under a generated name with the given extension
	// and returns the storage key and bytes written.
	Save(ctx context.Context, ext string, r io.Reader) (key string, size int64, err error)

	// Open returns a reader for a stored file.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a stored file.
	Delete(ctx context.Context, key string) error
}
