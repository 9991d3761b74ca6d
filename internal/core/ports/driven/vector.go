package driven

import (
	"context"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

// PassageSearcher ranks stored passages against a query vector.
type PassageSearcher interface {
	// SearchPassages scores passages by 1 - cosine distance to query,
	// optionally restricted to one pipeline, and returns the top limit
	// in descending score order. Passages whose embedding dimension
	// differs from the query are not ranked.
	SearchPassages(ctx context.Context, query []float32, pipelineID string, limit int) ([]domain.SearchResult, error)
}
