package ai

import (
	"context"
	"sync"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
	"github.com/custodia-labs/ragpipe/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.EmbeddingProvider = (*Registry)(nil)

// fallbackDimension is reported when no provider can be selected.
const fallbackDimension = 1536

// SettingsLoader returns the current embedding settings.
type SettingsLoader func() (domain.EmbeddingSettings, error)

// Registry is an EmbeddingProvider that selects its backing provider lazily
// on first use and caches it until Reset.
type Registry struct {
	mu       sync.Mutex
	load     SettingsLoader
	provider driven.EmbeddingProvider
}

// NewRegistry creates a registry that selects a provider from load.
func NewRegistry(load SettingsLoader) *Registry {
	return &Registry{load: load}
}

// Provider returns the selected provider, selecting it on first call.
func (r *Registry) Provider() (driven.EmbeddingProvider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.provider != nil {
		return r.provider, nil
	}

	settings, err := r.load()
	if err != nil {
		return nil, err
	}

	p, err := SelectProvider(settings)
	if err != nil {
		return nil, err
	}

	logger.Info("Initialized %s embedding provider", p.Name())
	r.provider = p
	return p, nil
}

// Reset drops the cached provider so the next call selects again.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.provider = nil
}

// Bind replaces the cached provider.
func (r *Registry) Bind(p driven.EmbeddingProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.provider = p
}

// Name returns the selected provider's name, or "unconfigured".
func (r *Registry) Name() string {
	p, err := r.Provider()
	if err != nil {
		return "unconfigured"
	}
	return p.Name()
}

// Embed delegates to the selected provider.
func (r *Registry) Embed(ctx context.Context, text, model string) ([]float32, error) {
	p, err := r.Provider()
	if err != nil {
		return nil, err
	}
	return p.Embed(ctx, text, model)
}

// EmbedBatch delegates to the selected provider.
func (r *Registry) EmbedBatch(ctx context.Context, texts []string, model string) ([][]float32, error) {
	p, err := r.Provider()
	if err != nil {
		return nil, err
	}
	return p.EmbedBatch(ctx, texts, model)
}

// Dimension delegates to the selected provider. Without one, the model is
// looked up in the combined catalog.
func (r *Registry) Dimension(model string) int {
	if p, err := r.Provider(); err == nil {
		return p.Dimension(model)
	}
	for _, models := range ModelCatalog() {
		for _, m := range models {
			if m.ID == model {
				return m.Dimension
			}
		}
	}
	return fallbackDimension
}

// Models delegates to the selected provider.
func (r *Registry) Models() []domain.EmbeddingModel {
	p, err := r.Provider()
	if err != nil {
		return nil
	}
	return p.Models()
}

// DefaultModel delegates to the selected provider.
func (r *Registry) DefaultModel() string {
	p, err := r.Provider()
	if err != nil {
		return ""
	}
	return p.DefaultModel()
}
