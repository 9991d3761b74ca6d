package sqlite

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
)

// ==================== Passage Searcher ====================

// passageSearcher implements driven.PassageSearcher with a linear scan.
type passageSearcher struct {
	store *Store
}

var _ driven.PassageSearcher = (*passageSearcher)(nil)

// SearchPassages ranks passages by cosine similarity to query.
// Ties keep insertion (rowid) order.
func (s *passageSearcher) SearchPassages(
	ctx context.Context, query []float32, pipelineID string, limit int,
) ([]domain.SearchResult, error) {
	sqlQuery := `
		SELECT p.id, p.document_id, d.name, p.content, p.embedding, p.metadata
		FROM passages p
		JOIN documents d ON d.id = p.document_id`
	var args []any
	if pipelineID != "" {
		sqlQuery += ` WHERE p.pipeline_id = ?`
		args = append(args, pipelineID)
	}
	sqlQuery += ` ORDER BY p.rowid`

	rows, err := s.store.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("querying passages: %w", err)
	}
	defer rows.Close()

	results := []domain.SearchResult{}
	for rows.Next() {
		var result domain.SearchResult
		var embedding []byte
		var metadataJSON string
		if err := rows.Scan(&result.PassageID, &result.DocumentID, &result.DocumentName,
			&result.Content, &embedding, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning passage: %w", err)
		}

		// Passages embedded with a model of another dimension are not comparable.
		if len(embedding) != len(query)*4 {
			continue
		}

		result.Score = domain.CosineSimilarity(query, bytesToFloat32Slice(embedding))
		if err := unmarshalMetadata(metadataJSON, &result.Metadata); err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating passages: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
