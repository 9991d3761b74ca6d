// Package mock provides a deterministic, offline embedding provider.
// The same text and model always produce the same unit-length vector,
// which makes it suitable for development and tests.
package mock

import (
	"context"
	"math"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.EmbeddingProvider = (*Provider)(nil)

// Default configuration values.
const (
	Name             = "mock"
	DefaultModel     = "mock-large"
	DefaultDimension = 1536
)

// LCG parameters.
const (
	lcgMultiplier = 1103515245
	lcgIncrement  = 12345
	lcgMask       = 0x7fffffff
)

var catalog = []domain.EmbeddingModel{
	{ID: "mock-small", Name: "Mock Small", Dimension: 384, Description: "Mock embedding for testing (384 dims)"},
	{ID: "mock-large", Name: "Mock Large", Dimension: 1536, Description: "Mock embedding for testing (1536 dims)"},
}

// Catalog returns the static mock model list.
func Catalog() []domain.EmbeddingModel {
	out := make([]domain.EmbeddingModel, len(catalog))
	copy(out, catalog)
	return out
}

// Provider generates hash-seeded embeddings without network access.
type Provider struct{}

// New creates a new mock embedding provider.
func New() *Provider {
	return &Provider{}
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return Name
}

// Embed generates a deterministic embedding for text.
func (p *Provider) Embed(ctx context.Context, text, model string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Vector(text, p.Dimension(model)), nil
}

// EmbedBatch embeds each text independently.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string, model string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dimension := p.Dimension(model)
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = Vector(text, dimension)
	}
	return embeddings, nil
}

// Dimension returns the vector size for a model.
func (p *Provider) Dimension(model string) int {
	if model == "" {
		model = DefaultModel
	}
	for _, m := range catalog {
		if m.ID == model {
			return m.Dimension
		}
	}
	return DefaultDimension
}

// Models returns the static model catalog.
func (p *Provider) Models() []domain.EmbeddingModel {
	return Catalog()
}

// DefaultModel returns the model used when none is given.
func (p *Provider) DefaultModel() string {
	return DefaultModel
}

// Vector returns the unit-length embedding of text with the given dimension.
func Vector(text string, dimension int) []float32 {
	seed := hash(text)
	values := make([]float64, dimension)

	var sumSquares float64
	for i := range values {
		seed = (seed*lcgMultiplier + lcgIncrement) & lcgMask
		v := float64(seed)/lcgMask*2 - 1
		values[i] = v
		sumSquares += v * v
	}

	magnitude := math.Sqrt(sumSquares)
	out := make([]float32, dimension)
	for i, v := range values {
		if magnitude > 0 {
			v /= magnitude
		}
		out[i] = float32(v)
	}
	return out
}

// hash is the 31-multiplier string hash over runes, wrapped to 32 bits.
func hash(text string) int64 {
	var h int32
	for _, r := range text {
		h = h*31 + r
	}
	seed := int64(h)
	if seed < 0 {
		seed = -seed
	}
	return seed
}
