// Package httpapi holds the HTTP plumbing shared by remote embedding providers.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	// Provider is the provider name (e.g., "openai").
	Provider string

	// StatusCode is the HTTP status code.
	StatusCode int

	// Body is the raw response body.
	Body string

	// RetryAfter is the Retry-After header in seconds, or 0.
	RetryAfter int
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// Unwrap lets callers match provider failures with errors.Is.
func (e *StatusError) Unwrap() error {
	return domain.ErrProvider
}

// IsRateLimited reports whether err is an HTTP 429 from a provider.
// The second return value is the suggested backoff in seconds.
func IsRateLimited(err error) (bool, int) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
		return true, statusErr.RetryAfter
	}
	return false, 0
}

// PostJSON sends body as JSON to url with bearer authentication and decodes
// a successful response into out.
func PostJSON(ctx context.Context, client *http.Client, provider, url, apiKey string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: send request: %w", domain.ErrProvider, provider, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %s: read response: %w", domain.ErrProvider, provider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return &StatusError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
			RetryAfter: retryAfter,
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %s: decode response: %w", domain.ErrProvider, provider, err)
	}
	return nil
}

// Vector converts a JSON float64 embedding to float32.
func Vector(values []float64) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}

// Indexed is one embedding tagged with its input position.
type Indexed struct {
	Embedding []float64 `json:"embedding"`
	Index     int       `json:"index"`
}

// Order places indexed embeddings at their input positions. Every position
// in [0, n) must be filled exactly once.
func Order(provider string, data []Indexed, n int) ([][]float32, error) {
	if len(data) != n {
		return nil, fmt.Errorf("%w: %s: expected %d embeddings, got %d", domain.ErrProvider, provider, n, len(data))
	}

	embeddings := make([][]float32, n)
	for _, d := range data {
		if d.Index < 0 || d.Index >= n || embeddings[d.Index] != nil {
			return nil, fmt.Errorf("%w: %s: unexpected embedding index %d", domain.ErrProvider, provider, d.Index)
		}
		embeddings[d.Index] = Vector(d.Embedding)
	}
	return embeddings, nil
}
