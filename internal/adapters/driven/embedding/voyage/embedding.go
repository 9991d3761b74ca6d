// Package voyage provides an embedding provider adapter using the Voyage AI API.
// Voyage accepts Anthropic API keys, so it is the fallback for installations
// that only hold an Anthropic credential.
package voyage

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
	Name             = "voyage"
	DefaultBaseURL   = "https://api.voyageai.com/v1"
	DefaultModel     = "voyage-3"
	DefaultDimension = 1024
	DefaultTimeout   = 60 * time.Second

	// inputType tells Voyage the texts are corpus documents.
	inputType = "document"
)

var catalog = []domain.EmbeddingModel{
	{ID: "voyage-3", Name: "Voyage 3", Dimension: 1024, Description: "Latest general-purpose embedding model"},
	{ID: "voyage-3-lite", Name: "Voyage 3 Lite", Dimension: 512, Description: "Lightweight, cost-effective option"},
	{ID: "voyage-code-3", Name: "Voyage Code 3", Dimension: 1024, Description: "Optimized for code and technical content"},
	{ID: "voyage-finance-2", Name: "Voyage Finance 2", Dimension: 1024, Description: "Specialized for financial documents"},
	{ID: "voyage-law-2", Name: "Voyage Law 2", Dimension: 1024, Description: "Specialized for legal documents"},
}

// Catalog returns the static Voyage model list.
func Catalog() []domain.EmbeddingModel {
	out := make([]domain.EmbeddingModel, len(catalog))
	copy(out, catalog)
	return out
}

// Config holds configuration for the Voyage embedding provider.
type Config struct {
	// APIKey is a Voyage or Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.voyageai.com/v1).
	BaseURL string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// Provider generates embeddings using the Voyage AI API.
type Provider struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

type embeddingRequest struct {
	Model     string   `json:"model"`
	Input     []string `json:"input"`
	InputType string   `json:"input_type"`
}

type embeddingResponse struct {
	Data []httpapi.Indexed `json:"data"`
}

// New creates a new Voyage embedding provider.
func New(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: voyage: set VOYAGE_API_KEY or ANTHROPIC_API_KEY", domain.ErrProviderNotConfigured)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Provider{
		client:  &http.Client{Timeout: cfg.Timeout},
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
	req := embeddingRequest{Model: model, Input: texts, InputType: inputType}
	if err := httpapi.PostJSON(ctx, p.client, Name, p.baseURL+"/embeddings", p.apiKey, req, &resp); err != nil {
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
