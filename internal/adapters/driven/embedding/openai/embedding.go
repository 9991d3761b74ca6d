// Package openai provides an embedding provider adapter using the OpenAI API.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/ragpipe/internal/adapters/driven/embedding/httpapi"
	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.EmbeddingProvider = (*Provider)(nil)

// Default configuration values.
const (
	Name             = "openai"
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultModel     = "text-embedding-3-small"
	DefaultDimension = 1536
	DefaultTimeout   = 60 * time.Second
)

var catalog = []domain.EmbeddingModel{
	{
		ID:          "text-embedding-3-small",
		Name:        "Text Embedding 3 Small",
		Dimension:   1536,
		Description: "Fast and cost-effective",
	},
	{
		ID:          "text-embedding-3-large",
		Name:        "Text Embedding 3 Large",
		Dimension:   3072,
		Description: "Highest quality embeddings",
	},
	{
		ID:          "text-embedding-ada-002",
		Name:        "Ada 002",
		Dimension:   1536,
		Description: "Legacy model",
	},
}

// Catalog returns the static OpenAI model list.
func Catalog() []domain.EmbeddingModel {
	out := make([]domain.EmbeddingModel, len(catalog))
	copy(out, catalog)
	return out
}

// Config holds configuration for the OpenAI embedding provider.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	// Can be changed for Azure OpenAI or compatible APIs.
	BaseURL string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// Provider generates embeddings using the OpenAI API.
type Provider struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// embeddingRequest is the OpenAI API request format.
type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embeddingResponse is the OpenAI API response format.
type embeddingResponse struct {
	Data []httpapi.Indexed `json:"data"`
}

// New creates a new OpenAI embedding provider.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai: API key is required", domain.ErrProviderNotConfigured)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Provider{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return Name
}

// Embed generates a vector embedding for the given text.
func (p *Provider) Embed(ctx context.Context, text, model string) ([]float32, error) {
	embeddings, err := p.EmbedBatch(ctx, []string{text}, model)
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch embeds all texts in a single request.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string, model string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if model == "" {
		model = DefaultModel
	}

	var resp embeddingResponse
	err := httpapi.PostJSON(ctx, p.client, Name, p.baseURL+"/embeddings", p.apiKey,
		embeddingRequest{Model: model, Input: texts}, &resp)
	if err != nil {
		return nil, err
	}

	return httpapi.Order(Name, resp.Data, len(texts))
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
