package services

import (
	"sort"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driving"
)

// Ensure ModelService implements the interface.
var _ driving.ModelCatalog = (*ModelService)(nil)

// CatalogFunc returns the static model lists of every provider.
type CatalogFunc func() map[domain.AIProvider][]domain.EmbeddingModel

// ModelService lists embedding models without contacting any provider.
type ModelService struct {
	catalog  CatalogFunc
	embedder driven.EmbeddingProvider
}

// NewModelService creates a new model service. The embedder is optional
// and only used to report the active provider.
func NewModelService(catalog CatalogFunc, embedder driven.EmbeddingProvider) *ModelService {
	return &ModelService{
		catalog:  catalog,
		embedder: embedder,
	}
}

// Models returns each provider's static catalog keyed by provider name.
func (s *ModelService) Models() map[domain.AIProvider][]domain.EmbeddingModel {
	if s.catalog == nil {
		return map[domain.AIProvider][]domain.EmbeddingModel{}
	}
	return s.catalog()
}

// Providers returns the catalog's providers in name order.
func (s *ModelService) Providers() []domain.AIProvider {
	models := s.Models()
	providers := make([]domain.AIProvider, 0, len(models))
	for provider := range models {
		providers = append(providers, provider)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i] < providers[j] })
	return providers
}

// Active returns the name and default model of the provider in use.
// Both are empty when no provider could be selected.
func (s *ModelService) Active() (name, defaultModel string) {
	if s.embedder == nil {
		return "", ""
	}
	return s.embedder.Name(), s.embedder.DefaultModel()
}
