package driving

import (
	"context"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

// SearchService provides semantic passage search to external actors.
type SearchService interface {
	// Search embeds the query and returns the most similar passages.
	Search(ctx context.Context, req domain.SearchRequest) ([]domain.SearchResult, error)
}
