// Package ai provides factory functions for creating embedding provider adapters.
package ai

import (
	"fmt"

	"github.com/custodia-labs/ragpipe/internal/adapters/driven/embedding/guard"
	"github.com/custodia-labs/ragpipe/internal/adapters/driven/embedding/mock"
	"github.com/custodia-labs/ragpipe/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/ragpipe/internal/adapters/driven/embedding/voyage"
	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
)

// SelectProvider creates the embedding provider described by settings.
//
// An explicit provider wins and must have its credential. Otherwise the
// first available key decides: OpenAI, then Voyage, then Anthropic (served
// by Voyage). With no keys at all the mock provider is used.
// Remote providers are wrapped with request pacing and a circuit breaker.
func SelectProvider(settings domain.EmbeddingSettings) (driven.EmbeddingProvider, error) {
	switch settings.Provider {
	case domain.AIProviderOpenAI:
		return createOpenAI(settings)
	case domain.AIProviderVoyage:
		return createVoyage(settings)
	case domain.AIProviderMock:
		return mock.New(), nil
	case "":
		// Auto-detect below.
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", domain.ErrProviderNotConfigured, settings.Provider)
	}

	switch {
	case settings.OpenAIAPIKey != "":
		return createOpenAI(settings)
	case settings.VoyageKey() != "":
		return createVoyage(settings)
	default:
		return mock.New(), nil
	}
}

// ModelCatalog returns the static model lists of every provider.
// It needs no credentials.
func ModelCatalog() map[domain.AIProvider][]domain.EmbeddingModel {
	return map[domain.AIProvider][]domain.EmbeddingModel{
		domain.AIProviderOpenAI: openai.Catalog(),
		domain.AIProviderVoyage: voyage.Catalog(),
		domain.AIProviderMock:   mock.Catalog(),
	}
}

// createOpenAI creates a guarded OpenAI provider.
func createOpenAI(settings domain.EmbeddingSettings) (driven.EmbeddingProvider, error) {
	p, err := openai.New(openai.Config{
		APIKey:  settings.OpenAIAPIKey,
		BaseURL: settings.OpenAIBaseURL,
		Timeout: settings.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return guard.New(p, guardConfig(settings)), nil
}

// createVoyage creates a guarded Voyage provider.
func createVoyage(settings domain.EmbeddingSettings) (driven.EmbeddingProvider, error) {
	p, err := voyage.New(voyage.Config{
		APIKey:  settings.VoyageKey(),
		Timeout: settings.Timeout,
	})
	if err != nil {
		return nil, err
	}
	return guard.New(p, guardConfig(settings)), nil
}

func guardConfig(settings domain.EmbeddingSettings) guard.Config {
	return guard.Config{
		RequestsPerSecond: settings.RequestsPerSecond,
		Burst:             settings.Burst,
	}
}
