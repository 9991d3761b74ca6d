package memory

import (
	"context"
	"sort"
	"time"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
)

// pipelineStore implements driven.PipelineStore.
type pipelineStore struct {
	store *Store
}

var _ driven.PipelineStore = (*pipelineStore)(nil)

// SavePipeline stores or updates a pipeline.
func (p *pipelineStore) SavePipeline(_ context.Context, pipeline *domain.Pipeline) error {
	s := p.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if pipeline.CreatedAt.IsZero() {
		pipeline.CreatedAt = now
	}
	if pipeline.UpdatedAt.IsZero() {
		pipeline.UpdatedAt = now
	}

	row, exists := s.pipelines[pipeline.ID]
	stored := *pipeline
	stored.DocumentCount = 0
	if exists {
		stored.CreatedAt = row.pipeline.CreatedAt
		row.pipeline = stored
	} else {
		row = pipelineRow{pipeline: stored, seq: s.nextSeq()}
	}
	s.pipelines[pipeline.ID] = row
	return nil
}

// GetPipeline retrieves a pipeline by ID.
func (p *pipelineStore) GetPipeline(_ context.Context, id string) (*domain.Pipeline, error) {
	s := p.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.pipelines[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	pipeline := row.pipeline
	pipeline.DocumentCount = s.documentCount(id)
	return &pipeline, nil
}

// ListPipelines returns all pipelines, newest first.
func (p *pipelineStore) ListPipelines(_ context.Context) ([]domain.Pipeline, error) {
	s := p.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]pipelineRow, 0, len(s.pipelines))
	for _, row := range s.pipelines {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i].pipeline.CreatedAt, rows[j].pipeline.CreatedAt
		if !a.Equal(b) {
			return a.After(b)
		}
		return rows[i].seq > rows[j].seq
	})

	pipelines := make([]domain.Pipeline, len(rows))
	for i, row := range rows {
		pipelines[i] = row.pipeline
		pipelines[i].DocumentCount = s.documentCount(row.pipeline.ID)
	}
	return pipelines, nil
}

// DeletePipeline removes a pipeline with its documents, passages and metrics.
func (p *pipelineStore) DeletePipeline(_ context.Context, id string) error {
	s := p.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pipelines[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.pipelines, id)

	for docID, row := range s.documents {
		if row.doc.PipelineID == id {
			s.deleteDocumentLocked(docID)
		}
	}

	kept := s.metrics[:0]
	for _, point := range s.metrics {
		if point.PipelineID != id {
			kept = append(kept, point)
		}
	}
	s.metrics = kept
	return nil
}

// SetPipelineStatus changes a pipeline's status.
func (p *pipelineStore) SetPipelineStatus(
	ctx context.Context, id string, status domain.PipelineStatus,
) (*domain.Pipeline, error) {
	s := p.store
	s.mu.Lock()
	row, ok := s.pipelines[id]
	if !ok {
		s.mu.Unlock()
		return nil, domain.ErrNotFound
	}
	row.pipeline.Status = status
	row.pipeline.UpdatedAt = time.Now().UTC()
	s.pipelines[id] = row
	s.mu.Unlock()

	return p.GetPipeline(ctx, id)
}
