package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driving"
	"github.com/custodia-labs/ragpipe/internal/logger"
)

// PendingBatchSize bounds how many pending documents are returned at once.
const PendingBatchSize = 10

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages uploaded documents.
type DocumentService struct {
	pipelines   driven.PipelineStore
	documents   driven.DocumentStore
	files       driven.FileStore
	normalisers driven.NormaliserRegistry
	processor   driving.DocumentProcessor
	notify      notifier
	maxBytes    int64
	now         func() time.Time
}

// NewDocumentService creates a new document service.
// A non-positive maxBytes uses domain.DefaultMaxUploadBytes.
func NewDocumentService(
	pipelines driven.PipelineStore,
	documents driven.DocumentStore,
	activity driven.ActivityStore,
	files driven.FileStore,
	normalisers driven.NormaliserRegistry,
	processor driving.DocumentProcessor,
	events driven.EventBus,
	maxBytes int64,
) *DocumentService {
	if maxBytes <= 0 {
		maxBytes = domain.DefaultMaxUploadBytes
	}
	return &DocumentService{
		pipelines:   pipelines,
		documents:   documents,
		files:       files,
		normalisers: normalisers,
		processor:   processor,
		notify:      notifier{events: events, activity: activity},
		maxBytes:    maxBytes,
		now:         time.Now,
	}
}

// Upload stores a file as a pending document. Processing starts in the
// background when the pipeline is active.
func (s *DocumentService) Upload(
	ctx context.Context, pipelineID, name, mimeType string, r io.Reader,
) (*domain.Document, error) {
	// 1. Check the media type
	if !s.supports(mimeType) {
		return nil, fmt.Errorf("%w: unsupported file type: %s", domain.ErrUnsupportedType, mimeType)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: document name is required", domain.ErrInvalidInput)
	}

	// 2. Verify the pipeline exists
	pipeline, err := s.pipelines.GetPipeline(ctx, pipelineID)
	if err != nil {
		return nil, fmt.Errorf("get pipeline: %w", err)
	}

	// 3. Store the bytes, reading at most one byte past the limit
	key, size, err := s.files.Save(ctx, filepath.Ext(name), io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}
	if size > s.maxBytes {
		discardUpload(ctx, s.files, key)
		return nil, fmt.Errorf("%w: file exceeds the %d byte upload limit", domain.ErrInvalidInput, s.maxBytes)
	}

	// 4. Create the pending document
	doc := &domain.Document{
		ID:         uuid.New().String(),
		PipelineID: pipeline.ID,
		Name:       name,
		MimeType:   mimeType,
		Size:       size,
		Status:     domain.DocumentPending,
		FilePath:   key,
		UploadedAt: s.now().UTC(),
	}
	if err := s.documents.CreateDocument(ctx, doc); err != nil {
		discardUpload(ctx, s.files, key)
		return nil, fmt.Errorf("create document: %w", err)
	}

	logger.Info("Uploaded %s to pipeline %s (%d bytes)", doc.Name, pipeline.Name, size)
	s.notify.record(ctx, domain.ActivityDocumentUploaded,
		fmt.Sprintf("Document %q uploaded", doc.Name), doc.PipelineID, doc.ID)
	s.notify.publish(ctx, domain.EventDocumentCreated, doc)

	// 5. Process right away if the pipeline is running
	if pipeline.IsActive() && s.processor != nil {
		s.processor.Start(ctx, doc.ID, pipeline.ID, key, pipeline.Config)
	}

	return doc, nil
}

// List returns documents, newest first. An empty pipelineID lists all.
func (s *DocumentService) List(ctx context.Context, pipelineID string) ([]domain.Document, error) {
	docs, err := s.documents.ListDocuments(ctx, pipelineID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	doc, err := s.documents.GetDocument(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Passages returns a document's passages in chunk order.
func (s *DocumentService) Passages(ctx context.Context, id string) ([]domain.Passage, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	passages, err := s.documents.GetPassages(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get passages: %w", err)
	}
	return passages, nil
}

// Delete removes a document, its passages and any unprocessed upload.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.documents.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if doc.FilePath != "" {
		discardUpload(ctx, s.files, doc.FilePath)
	}

	logger.Info("Deleted document %s", id)
	s.notify.publish(ctx, domain.EventDocumentDeleted, doc)
	return nil
}

// Pending returns the oldest pending documents of active pipelines.
func (s *DocumentService) Pending(ctx context.Context) ([]domain.Document, error) {
	docs, err := s.documents.PendingDocuments(ctx, "", PendingBatchSize)
	if err != nil {
		return nil, fmt.Errorf("list pending documents: %w", err)
	}
	return docs, nil
}

// SupportedMIMETypes returns the MIME types accepted by Upload.
func (s *DocumentService) SupportedMIMETypes() []string {
	return s.normalisers.SupportedMIMETypes()
}

func (s *DocumentService) supports(mimeType string) bool {
	base := baseMIME(mimeType)
	for _, supported := range s.normalisers.SupportedMIMETypes() {
		if base == supported {
			return true
		}
	}
	return false
}

// discardUpload removes an upload that no document will process.
func discardUpload(ctx context.Context, files driven.FileStore, key string) {
	if err := files.Delete(ctx, key); err != nil && !errors.Is(err, domain.ErrNotFound) {
		logger.Warn("Failed to remove upload %s: %v", key, err)
	}
}

// baseMIME strips parameters and lower-cases a media type.
func baseMIME(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mimeType))
	}
	return mediaType
}
