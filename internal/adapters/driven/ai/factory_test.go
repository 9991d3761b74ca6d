package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragpipe/internal/adapters/driven/embedding/mock"
	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

func TestSelectProvider(t *testing.T) {
	tests := []struct {
		name     string
		settings domain.EmbeddingSettings
		wantName string
		wantErr  error
	}{
		{
			name:     "no keys falls back to mock",
			settings: domain.EmbeddingSettings{},
			wantName: "mock",
		},
		{
			name:     "openai key auto-selects openai",
			settings: domain.EmbeddingSettings{OpenAIAPIKey: "sk-test", VoyageAPIKey: "pa-test"},
			wantName: "openai",
		},
		{
			name:     "voyage key auto-selects voyage",
			settings: domain.EmbeddingSettings{VoyageAPIKey: "pa-test"},
			wantName: "voyage",
		},
		{
			name:     "anthropic key auto-selects voyage",
			settings: domain.EmbeddingSettings{AnthropicAPIKey: "sk-ant-test"},
			wantName: "voyage",
		},
		{
			name:     "explicit mock ignores keys",
			settings: domain.EmbeddingSettings{Provider: domain.AIProviderMock, OpenAIAPIKey: "sk-test"},
			wantName: "mock",
		},
		{
			name:     "explicit voyage with anthropic key",
			settings: domain.EmbeddingSettings{Provider: domain.AIProviderVoyage, AnthropicAPIKey: "sk-ant"},
			wantName: "voyage",
		},
		{
			name:     "explicit openai without key",
			settings: domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, VoyageAPIKey: "pa-test"},
			wantErr:  domain.ErrProviderNotConfigured,
		},
		{
			name:     "explicit voyage without key",
			settings: domain.EmbeddingSettings{Provider: domain.AIProviderVoyage},
			wantErr:  domain.ErrProviderNotConfigured,
		},
		{
			name:     "unknown provider",
			settings: domain.EmbeddingSettings{Provider: "cohere"},
			wantErr:  domain.ErrProviderNotConfigured,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := SelectProvider(tt.settings)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}

func TestModelCatalog(t *testing.T) {
	catalog := ModelCatalog()

	require.Len(t, catalog, 3)
	assert.Len(t, catalog[domain.AIProviderOpenAI], 3)
	assert.Len(t, catalog[domain.AIProviderVoyage], 5)
	assert.Len(t, catalog[domain.AIProviderMock], 2)
}

func TestRegistry_SelectsOnce(t *testing.T) {
	loads := 0
	r := NewRegistry(func() (domain.EmbeddingSettings, error) {
		loads++
		return domain.EmbeddingSettings{}, nil
	})

	assert.Equal(t, "mock", r.Name())
	assert.Equal(t, "mock-large", r.DefaultModel())
	assert.Equal(t, 384, r.Dimension("mock-small"))
	assert.Equal(t, 1, loads)

	r.Reset()
	assert.Equal(t, "mock", r.Name())
	assert.Equal(t, 2, loads)
}

func TestRegistry_Bind(t *testing.T) {
	r := NewRegistry(func() (domain.EmbeddingSettings, error) {
		t.Fatal("bound registry must not load settings")
		return domain.EmbeddingSettings{}, nil
	})
	r.Bind(mock.New())

	v, err := r.Embed(context.Background(), "hello", "mock-small")
	require.NoError(t, err)
	assert.Len(t, v, 384)

	batch, err := r.EmbedBatch(context.Background(), []string{"hello"}, "mock-small")
	require.NoError(t, err)
	assert.Equal(t, v, batch[0])
	assert.Len(t, r.Models(), 2)
}

func TestRegistry_SelectionError(t *testing.T) {
	r := NewRegistry(func() (domain.EmbeddingSettings, error) {
		return domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI}, nil
	})

	_, err := r.Embed(context.Background(), "hello", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrProviderNotConfigured))

	assert.Equal(t, "unconfigured", r.Name())
	assert.Equal(t, 3072, r.Dimension("text-embedding-3-large"))
	assert.Equal(t, 1536, r.Dimension("no-such-model"))
	assert.Empty(t, r.DefaultModel())
	assert.Nil(t, r.Models())
}

func TestRegistry_LoadError(t *testing.T) {
	loadErr := errors.New("config unreadable")
	r := NewRegistry(func() (domain.EmbeddingSettings, error) {
		return domain.EmbeddingSettings{}, loadErr
	})

	_, err := r.EmbedBatch(context.Background(), []string{"a"}, "")
	assert.ErrorIs(t, err, loadErr)
}
