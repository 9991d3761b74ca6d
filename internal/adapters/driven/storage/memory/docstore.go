package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
)

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// CreateDocument stores a new document.
func (d *documentStore) CreateDocument(_ context.Context, doc *domain.Document) error {
	s := d.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pipelines[doc.PipelineID]; !ok {
		return fmt.Errorf("creating document: pipeline %s: %w", doc.PipelineID, domain.ErrNotFound)
	}
	if _, ok := s.documents[doc.ID]; ok {
		return fmt.Errorf("creating document: %w: duplicate id %s", domain.ErrInvalidInput, doc.ID)
	}

	if doc.Status == "" {
		doc.Status = domain.DocumentPending
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}

	s.documents[doc.ID] = documentRow{doc: *doc, seq: s.nextSeq()}
	return nil
}

// GetDocument retrieves a document by ID.
func (d *documentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s := d.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc := row.doc
	return &doc, nil
}

// ListDocuments returns documents, newest first.
func (d *documentStore) ListDocuments(_ context.Context, pipelineID string) ([]domain.Document, error) {
	s := d.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.documentRows(func(doc domain.Document) bool {
		return pipelineID == "" || doc.PipelineID == pipelineID
	})
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i].doc.UploadedAt, rows[j].doc.UploadedAt
		if !a.Equal(b) {
			return a.After(b)
		}
		return rows[i].seq > rows[j].seq
	})

	return toDocuments(rows), nil
}

// ClaimDocument moves a pending document to processing.
func (d *documentStore) ClaimDocument(_ context.Context, id string) (bool, error) {
	s := d.store
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.documents[id]
	if !ok || row.doc.Status != domain.DocumentPending {
		return false, nil
	}
	row.doc.Status = domain.DocumentProcessing
	s.documents[id] = row
	return true, nil
}

// CompleteDocument inserts passages and marks the document completed.
func (d *documentStore) CompleteDocument(
	_ context.Context, id string, passages []domain.Passage, processedAt time.Time,
) (*domain.Document, error) {
	s := d.store
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.processingRow(id)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(s.passages)+len(passages))
	for _, existing := range s.passages {
		seen[existing.passage.ID] = true
	}
	for _, passage := range passages {
		if seen[passage.ID] {
			return nil, fmt.Errorf("saving passage: %w: duplicate id %s", domain.ErrPersistence, passage.ID)
		}
		seen[passage.ID] = true
	}

	createdAt := processedAt.UTC()
	for _, passage := range passages {
		passage.DocumentID = id
		passage.CreatedAt = createdAt
		s.passages = append(s.passages, passageRow{passage: passage, seq: s.nextSeq()})
	}

	count := len(passages)
	row.doc.Status = domain.DocumentCompleted
	row.doc.ChunkCount = &count
	row.doc.ErrorMessage = ""
	row.doc.ProcessedAt = &createdAt
	s.documents[id] = row

	doc := row.doc
	return &doc, nil
}

// FailDocument marks a processing document failed.
func (d *documentStore) FailDocument(
	_ context.Context, id, message string, processedAt time.Time,
) (*domain.Document, error) {
	s := d.store
	s.mu.Lock()
	defer s.mu.Unlock()

	row, err := s.processingRow(id)
	if err != nil {
		return nil, err
	}

	at := processedAt.UTC()
	row.doc.Status = domain.DocumentFailed
	row.doc.ErrorMessage = message
	row.doc.ProcessedAt = &at
	s.documents[id] = row

	doc := row.doc
	return &doc, nil
}

// DeleteDocument removes a document and its passages.
func (d *documentStore) DeleteDocument(_ context.Context, id string) error {
	s := d.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	s.deleteDocumentLocked(id)
	return nil
}

// GetPassages returns a document's passages ordered by chunk index.
func (d *documentStore) GetPassages(_ context.Context, documentID string) ([]domain.Passage, error) {
	s := d.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	passages := []domain.Passage{}
	for _, row := range s.passages {
		if row.passage.DocumentID == documentID {
			passages = append(passages, row.passage)
		}
	}
	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].ChunkIndex < passages[j].ChunkIndex
	})
	return passages, nil
}

// PendingDocuments returns pending documents of active pipelines, oldest first.
func (d *documentStore) PendingDocuments(_ context.Context, pipelineID string, limit int) ([]domain.Document, error) {
	s := d.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.documentRows(func(doc domain.Document) bool {
		if doc.Status != domain.DocumentPending {
			return false
		}
		if pipelineID != "" && doc.PipelineID != pipelineID {
			return false
		}
		pipeline, ok := s.pipelines[doc.PipelineID]
		return ok && pipeline.pipeline.Status == domain.PipelineActive
	})
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i].doc.UploadedAt, rows[j].doc.UploadedAt
		if !a.Equal(b) {
			return a.Before(b)
		}
		return rows[i].seq < rows[j].seq
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return toDocuments(rows), nil
}

// processingRow returns a document that may leave the processing state.
// Callers hold s.mu.
func (s *Store) processingRow(id string) (documentRow, error) {
	row, ok := s.documents[id]
	if !ok {
		return documentRow{}, domain.ErrNotFound
	}
	if row.doc.Status != domain.DocumentProcessing {
		return documentRow{}, fmt.Errorf("%w: document %s is %s", domain.ErrInvalidTransition, id, row.doc.Status)
	}
	return row, nil
}

// documentRows returns the rows matching keep. Callers hold s.mu.
func (s *Store) documentRows(keep func(domain.Document) bool) []documentRow {
	rows := []documentRow{}
	for _, row := range s.documents {
		if keep(row.doc) {
			rows = append(rows, row)
		}
	}
	return rows
}

func toDocuments(rows []documentRow) []domain.Document {
	docs := make([]domain.Document, len(rows))
	for i, row := range rows {
		docs[i] = row.doc
	}
	return docs
}
