package memory

import (
	"context"
	"sort"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
)

// passageSearcher implements driven.PassageSearcher with a linear scan.
type passageSearcher struct {
	store *Store
}

var _ driven.PassageSearcher = (*passageSearcher)(nil)

// SearchPassages ranks passages by cosine similarity to query.
// Ties keep insertion order.
func (p *passageSearcher) SearchPassages(
	_ context.Context, query []float32, pipelineID string, limit int,
) ([]domain.SearchResult, error) {
	s := p.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []domain.SearchResult{}
	for _, row := range s.passages {
		passage := row.passage
		if pipelineID != "" && passage.PipelineID != pipelineID {
			continue
		}
		if len(passage.Embedding) != len(query) {
			continue
		}

		docRow, ok := s.documents[passage.DocumentID]
		if !ok {
			continue
		}

		results = append(results, domain.SearchResult{
			PassageID:    passage.ID,
			DocumentID:   passage.DocumentID,
			DocumentName: docRow.doc.Name,
			Content:      passage.Content,
			Score:        domain.CosineSimilarity(query, passage.Embedding),
			Metadata:     passage.Metadata,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
