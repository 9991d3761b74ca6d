package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragpipe/internal/adapters/driven/embedding/httpapi"
	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrProviderNotConfigured))
}

func TestProvider_EmbedBatch_ReordersByIndex(t *testing.T) {
	var gotReq embeddingRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"embedding":[0.75,0.125],"index":1},
			{"embedding":[0.5,0.25],"index":0}
		]}`))
	}))
	defer server.Close()

	p, err := New(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	vectors, err := p.EmbedBatch(context.Background(), []string{"first", "second"}, "")
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, gotReq.Model)
	assert.Equal(t, []string{"first", "second"}, gotReq.Input)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.5, 0.25}, vectors[0])
	assert.Equal(t, []float32{0.75, 0.125}, vectors[1])
}

func TestProvider_EmbedBatch_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer server.Close()

	p, err := New(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = p.Embed(context.Background(), "text", "text-embedding-3-large")
	require.Error(t, err)
	assert.Equal(t, "openai error (status 429): slow down", err.Error())
	assert.True(t, errors.Is(err, domain.ErrProvider))

	limited, retryAfter := httpapi.IsRateLimited(err)
	assert.True(t, limited)
	assert.Equal(t, 7, retryAfter)
}

func TestProvider_EmbedBatch_Empty(t *testing.T) {
	p, err := New(Config{APIKey: "k", BaseURL: "http://127.0.0.1:0"})
	require.NoError(t, err)

	vectors, err := p.EmbedBatch(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestProvider_EmbedBatch_MissingIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"embedding":[1],"index":0}]}`))
	}))
	defer server.Close()

	p, err := New(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = p.EmbedBatch(context.Background(), []string{"a", "b"}, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrProvider))
}

func TestProvider_Dimension(t *testing.T) {
	p, err := New(Config{APIKey: "k"})
	require.NoError(t, err)

	tests := []struct {
		model string
		want  int
	}{
		{"", 1536},
		{"text-embedding-3-small", 1536},
		{"text-embedding-3-large", 3072},
		{"text-embedding-ada-002", 1536},
		{"unknown-model", DefaultDimension},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Dimension(tt.model))
		})
	}
}

func TestProvider_Models(t *testing.T) {
	p, err := New(Config{APIKey: "k"})
	require.NoError(t, err)

	models := p.Models()
	require.Len(t, models, 3)
	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, "text-embedding-3-small", p.DefaultModel())

	// Callers must not be able to mutate the catalog.
	models[0].Dimension = 1
	assert.Equal(t, 1536, p.Dimension("text-embedding-3-small"))
}
