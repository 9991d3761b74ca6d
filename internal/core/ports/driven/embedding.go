package driven

import (
	"context"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

// EmbeddingProvider generates vector embeddings from text.
// Implementations are stateless per call and safe for concurrent use.
// An empty model argument selects the provider's default model.
type EmbeddingProvider interface {
	// Name returns the provider identifier (e.g., "openai").
	Name() string

	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text, model string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	// The result has the same length and order as texts.
	EmbedBatch(ctx context.Context, texts []string, model string) ([][]float32, error)

	// Dimension returns the vector size for a model.
	// Unknown models return the provider's default dimension, never zero.
	Dimension(model string) int

	// Models returns the provider's static model catalog.
	Models() []domain.EmbeddingModel

	// DefaultModel returns the model used when none is given.
	DefaultModel() string
}
