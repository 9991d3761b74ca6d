package memory

import (
	"sync"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
)

// Store is an in-memory implementation of the pipeline, document, search,
// metric, activity and stats ports. It mirrors the sqlite store's semantics
// (cascading deletes, guarded status transitions, insertion-order ties) and
// is intended for tests and ephemeral runs.
type Store struct {
	mu sync.RWMutex

	// seq orders rows the way sqlite's rowid does.
	seq int64

	pipelines  map[string]pipelineRow
	documents  map[string]documentRow
	passages   []passageRow
	metrics    []domain.MetricPoint
	activities []activityRow
}

type pipelineRow struct {
	pipeline domain.Pipeline
	seq      int64
}

type documentRow struct {
	doc domain.Document
	seq int64
}

type passageRow struct {
	passage domain.Passage
	seq     int64
}

type activityRow struct {
	activity domain.Activity
	seq      int64
}

// NewStore creates a new empty in-memory store.
func NewStore() *Store {
	return &Store{
		pipelines: make(map[string]pipelineRow),
		documents: make(map[string]documentRow),
	}
}

// nextSeq returns the next row sequence number. Callers hold s.mu.
func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

// PipelineStore returns a PipelineStore interface backed by this store.
func (s *Store) PipelineStore() driven.PipelineStore {
	return &pipelineStore{store: s}
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// PassageSearcher returns a PassageSearcher interface backed by this store.
func (s *Store) PassageSearcher() driven.PassageSearcher {
	return &passageSearcher{store: s}
}

// MetricStore returns a MetricStore interface backed by this store.
func (s *Store) MetricStore() driven.MetricStore {
	return &metricStore{store: s}
}

// ActivityStore returns an ActivityStore interface backed by this store.
func (s *Store) ActivityStore() driven.ActivityStore {
	return &activityStore{store: s}
}

// StatsStore returns a StatsStore interface backed by this store.
func (s *Store) StatsStore() driven.StatsStore {
	return &statsStore{store: s}
}

// documentCount counts a pipeline's documents. Callers hold s.mu.
func (s *Store) documentCount(pipelineID string) int {
	count := 0
	for _, row := range s.documents {
		if row.doc.PipelineID == pipelineID {
			count++
		}
	}
	return count
}

// deleteDocumentLocked removes a document and its passages. Callers hold s.mu.
func (s *Store) deleteDocumentLocked(id string) {
	delete(s.documents, id)

	kept := s.passages[:0]
	for _, row := range s.passages {
		if row.passage.DocumentID != id {
			kept = append(kept, row)
		}
	}
	s.passages = kept
}
