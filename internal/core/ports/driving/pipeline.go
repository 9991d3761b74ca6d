package driving

import (
	"context"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

// PipelineService manages pipelines and their lifecycle.
type PipelineService interface {
	// Create registers a paused pipeline.
	Create(ctx context.Context, name, description string, cfg domain.PipelineConfig) (*domain.Pipeline, error)

	// List returns all pipelines, newest first.
	List(ctx context.Context) ([]domain.Pipeline, error)

	// Get retrieves a pipeline by ID.
	Get(ctx context.Context, id string) (*domain.Pipeline, error)

	// Update applies a partial update.
	Update(ctx context.Context, id string, update domain.PipelineUpdate) (*domain.Pipeline, error)

	// Delete removes a pipeline with its documents and passages.
	Delete(ctx context.Context, id string) error

	// Start activates a pipeline and begins processing its pending documents.
	Start(ctx context.Context, id string) (*domain.Pipeline, error)

	// Stop pauses a pipeline. Documents already processing run to completion.
	Stop(ctx context.Context, id string) (*domain.Pipeline, error)

	// Metrics returns the pipeline's metric series over the last hours.
	Metrics(ctx context.Context, id string, hours int) (*domain.PipelineMetrics, error)
}
