package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

// DocumentService manages uploaded documents.
type DocumentService interface {
	// Upload stores a file as a pending document of a pipeline.
	// Processing starts in the background when the pipeline is active.
	Upload(ctx context.Context, pipelineID, name, mimeType string, r io.Reader) (*domain.Document, error)

	// List returns documents, newest first. An empty pipelineID lists all.
	List(ctx context.Context, pipelineID string) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// Passages returns a document's passages in chunk order.
	Passages(ctx context.Context, id string) ([]domain.Passage, error)

	// Delete removes a document and its passages.
	Delete(ctx context.Context, id string) error

	// Pending returns up to 10 pending documents of active pipelines, oldest first.
	Pending(ctx context.Context) ([]domain.Document, error)

	// SupportedMIMETypes returns the MIME types accepted by Upload.
	SupportedMIMETypes() []string
}

// DocumentProcessor drives one document through extraction, chunking,
// embedding and persistence.
type DocumentProcessor interface {
	// ProcessDocument runs the pipeline synchronously. Failures are
	// recorded on the document, never returned.
	ProcessDocument(ctx context.Context, documentID, pipelineID, filePath string, cfg domain.PipelineConfig)

	// Start runs ProcessDocument as a detached background task.
	Start(ctx context.Context, documentID, pipelineID, filePath string, cfg domain.PipelineConfig)

	// Wait blocks until all background tasks have finished.
	Wait()
}
