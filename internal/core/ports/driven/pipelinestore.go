package driven

import (
	"context"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

// PipelineStore persists pipeline configuration.
type PipelineStore interface {
	// SavePipeline stores or updates a pipeline.
	SavePipeline(ctx context.Context, pipeline *domain.Pipeline) error

	// GetPipeline retrieves a pipeline with its document count.
	// Returns domain.ErrNotFound if missing.
	GetPipeline(ctx context.Context, id string) (*domain.Pipeline, error)

	// ListPipelines returns all pipelines, newest first.
	ListPipelines(ctx context.Context) ([]domain.Pipeline, error)

	// DeletePipeline removes a pipeline, its documents and their passages.
	// Returns domain.ErrNotFound if missing.
	DeletePipeline(ctx context.Context, id string) error

	// SetPipelineStatus changes a pipeline's status and returns the updated pipeline.
	// Returns domain.ErrNotFound if missing.
	SetPipelineStatus(ctx context.Context, id string, status domain.PipelineStatus) (*domain.Pipeline, error)
}
