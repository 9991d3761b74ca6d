package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

// DocumentStore persists documents and their passages.
// Status changes are forward-only; implementations reject backwards moves
// with domain.ErrInvalidTransition.
type DocumentStore interface {
	// CreateDocument stores a new document.
	CreateDocument(ctx context.Context, doc *domain.Document) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if missing.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns documents, newest first.
	// An empty pipelineID lists documents of every pipeline.
	ListDocuments(ctx context.Context, pipelineID string) ([]domain.Document, error)

	// ClaimDocument moves a pending document to processing.
	// Returns false if the document was not pending, so only one caller wins.
	ClaimDocument(ctx context.Context, id string) (bool, error)

	// CompleteDocument inserts all passages and marks the document completed
	// with its chunk count, as one all-or-nothing write.
	CompleteDocument(ctx context.Context, id string, passages []domain.Passage, processedAt time.Time) (*domain.Document, error)

	// FailDocument marks a processing document failed with a message.
	FailDocument(ctx context.Context, id, message string, processedAt time.Time) (*domain.Document, error)

	// DeleteDocument removes a document and its passages.
	// Returns domain.ErrNotFound if missing.
	DeleteDocument(ctx context.Context, id string) error

	// GetPassages returns a document's passages ordered by chunk index.
	GetPassages(ctx context.Context, documentID string) ([]domain.Passage, error)

	// PendingDocuments returns pending documents of active pipelines, oldest first.
	// An empty pipelineID includes every active pipeline. A limit of 0
	// returns all of them.
	PendingDocuments(ctx context.Context, pipelineID string, limit int) ([]domain.Document, error)
}
