// Package guard wraps a remote embedding provider with request pacing and a
// circuit breaker. Neither retries: a rejected call fails like any other
// provider error.
package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/custodia-labs/ragpipe/internal/adapters/driven/embedding/httpapi"
	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
	"github.com/custodia-labs/ragpipe/internal/logger"
)

// Ensure Provider implements the interface.
var _ driven.EmbeddingProvider = (*Provider)(nil)

// Default breaker settings.
const (
	DefaultFailureThreshold = 5
	DefaultOpenTimeout      = 30 * time.Second
)

// Config configures the guard.
type Config struct {
	// RequestsPerSecond is the sustained request rate. Zero disables pacing.
	RequestsPerSecond float64

	// Burst is the token bucket size.
	Burst int

	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32

	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// Provider decorates an embedding provider.
type Provider struct {
	inner   driven.EmbeddingProvider
	limiter *RateLimiter
	breaker *gobreaker.CircuitBreaker
}

// New wraps inner with pacing and a circuit breaker.
func New(inner driven.EmbeddingProvider, cfg Config) *Provider {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = DefaultOpenTimeout
	}

	threshold := cfg.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Embedding provider %s circuit breaker: %s -> %s", name, from, to)
		},
	})

	return &Provider{
		inner:   inner,
		limiter: NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst),
		breaker: breaker,
	}
}

// Name returns the wrapped provider's name.
func (p *Provider) Name() string {
	return p.inner.Name()
}

// Embed generates a vector embedding for the given text.
func (p *Provider) Embed(ctx context.Context, text, model string) ([]float32, error) {
	embeddings, err := p.EmbedBatch(ctx, []string{text}, model)
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedBatch waits for a request slot and calls the wrapped provider
// through the circuit breaker.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string, model string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: wait for rate limit: %w", domain.ErrProvider, p.Name(), err)
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.inner.EmbedBatch(ctx, texts, model)
	})
	if err != nil {
		if limited, retryAfter := httpapi.IsRateLimited(err); limited {
			p.limiter.RecordRateLimitError(retryAfter)
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrProvider, p.Name(), err)
		}
		return nil, err
	}

	return result.([][]float32), nil
}

// Dimension returns the vector size for a model.
func (p *Provider) Dimension(model string) int {
	return p.inner.Dimension(model)
}

// Models returns the wrapped provider's catalog.
func (p *Provider) Models() []domain.EmbeddingModel {
	return p.inner.Models()
}

// DefaultModel returns the wrapped provider's default model.
func (p *Provider) DefaultModel() string {
	return p.inner.DefaultModel()
}

// State returns the circuit breaker state.
func (p *Provider) State() gobreaker.State {
	return p.breaker.State()
}
