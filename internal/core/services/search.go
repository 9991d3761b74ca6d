package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driving"
	"github.com/custodia-labs/ragpipe/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService embeds queries and ranks stored passages against them.
type SearchService struct {
	searcher  driven.PassageSearcher
	pipelines driven.PipelineStore
	embedder  driven.EmbeddingProvider
}

// NewSearchService creates a new search service.
func NewSearchService(
	searcher driven.PassageSearcher,
	pipelines driven.PipelineStore,
	embedder driven.EmbeddingProvider,
) *SearchService {
	return &SearchService{
		searcher:  searcher,
		pipelines: pipelines,
		embedder:  embedder,
	}
}

// Search returns the passages most similar to the query, best first.
func (s *SearchService) Search(ctx context.Context, req domain.SearchRequest) ([]domain.SearchResult, error) {
	query, limit, err := validateSearch(req)
	if err != nil {
		return nil, err
	}

	model, err := s.queryModel(ctx, req)
	if err != nil {
		return nil, err
	}

	vector, err := s.embedder.Embed(ctx, query, model)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.searcher.SearchPassages(ctx, vector, req.PipelineID, limit)
	if err != nil {
		return nil, fmt.Errorf("search passages: %w", err)
	}

	logger.Debug("Search %q (model %s) returned %d results", query, model, len(results))
	return results, nil
}

// validateSearch trims the query and resolves the limit.
func validateSearch(req domain.SearchRequest) (string, int, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return "", 0, fmt.Errorf("%w: query is required", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(query) > domain.MaxQueryLength {
		return "", 0, fmt.Errorf("%w: query exceeds %d characters", domain.ErrInvalidInput, domain.MaxQueryLength)
	}

	limit := req.Limit
	if limit == 0 {
		limit = domain.DefaultSearchLimit
	}
	if limit < 1 || limit > domain.MaxSearchLimit {
		return "", 0, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrInvalidInput, domain.MaxSearchLimit)
	}

	return query, limit, nil
}

// queryModel picks the embedding model: the request's, else the scoped
// pipeline's, else the provider default (empty).
func (s *SearchService) queryModel(ctx context.Context, req domain.SearchRequest) (string, error) {
	if req.Model != "" {
		return req.Model, nil
	}
	if req.PipelineID == "" {
		return "", nil
	}

	pipeline, err := s.pipelines.GetPipeline(ctx, req.PipelineID)
	if err != nil {
		return "", fmt.Errorf("get pipeline: %w", err)
	}
	return pipeline.Config.EmbeddingModel, nil
}
