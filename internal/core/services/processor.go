package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driving"
	"github.com/custodia-labs/ragpipe/internal/logger"
)

// Ensure DocumentProcessor implements the interface.
var _ driving.DocumentProcessor = (*DocumentProcessor)(nil)

// DocumentProcessor moves one document through extraction, chunking,
// embedding and persistence. It never returns errors to its caller:
// every failure is recorded on the document.
type DocumentProcessor struct {
	documents   driven.DocumentStore
	metrics     driven.MetricStore
	files       driven.FileStore
	normalisers driven.NormaliserRegistry
	chunkers    driven.ChunkerFactory
	embedder    driven.EmbeddingProvider
	notify      notifier
	now         func() time.Time

	wg sync.WaitGroup
}

// NewDocumentProcessor creates a new document processor.
// The event bus and activity store are optional.
func NewDocumentProcessor(
	documents driven.DocumentStore,
	metrics driven.MetricStore,
	activity driven.ActivityStore,
	files driven.FileStore,
	normalisers driven.NormaliserRegistry,
	chunkers driven.ChunkerFactory,
	embedder driven.EmbeddingProvider,
	events driven.EventBus,
) *DocumentProcessor {
	return &DocumentProcessor{
		documents:   documents,
		metrics:     metrics,
		files:       files,
		normalisers: normalisers,
		chunkers:    chunkers,
		embedder:    embedder,
		notify:      notifier{events: events, activity: activity},
		now:         time.Now,
	}
}

// Start runs ProcessDocument in a detached goroutine. Cancelling ctx
// after Start returns does not interrupt processing.
func (p *DocumentProcessor) Start(
	ctx context.Context, documentID, pipelineID, filePath string, cfg domain.PipelineConfig,
) {
	taskCtx := context.WithoutCancel(ctx)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Processing document %s panicked: %v", documentID, r)
				p.markFailed(taskCtx, documentID, fmt.Sprintf("internal error: %v", r))
			}
		}()
		p.ProcessDocument(taskCtx, documentID, pipelineID, filePath, cfg)
	}()
}

// Wait blocks until all documents started with Start have finished.
func (p *DocumentProcessor) Wait() {
	p.wg.Wait()
}

// ProcessDocument claims a pending document and processes it synchronously.
// A document that is no longer pending is left untouched, so concurrent
// callers never process the same document twice.
func (p *DocumentProcessor) ProcessDocument(
	ctx context.Context, documentID, pipelineID, filePath string, cfg domain.PipelineConfig,
) {
	started := p.now()

	// 1. Claim: pending -> processing
	claimed, err := p.documents.ClaimDocument(ctx, documentID)
	if err != nil {
		logger.Error("Failed to claim document %s: %v", documentID, err)
		return
	}
	if !claimed {
		logger.Debug("Document %s is not pending, skipping", documentID)
		return
	}

	doc, err := p.documents.GetDocument(ctx, documentID)
	if err != nil {
		p.handleFailure(ctx, &domain.Document{ID: documentID, PipelineID: pipelineID},
			filePath, fmt.Errorf("loading document: %w", err))
		return
	}
	if doc.PipelineID != pipelineID {
		logger.Warn("Document %s belongs to pipeline %s, not %s", documentID, doc.PipelineID, pipelineID)
	}

	logger.Info("Processing document %s (%s)", doc.ID, doc.Name)
	p.notify.publish(ctx, domain.EventDocumentProcessing, doc)

	// 2-4. Extract, chunk and embed
	passages, err := p.buildPassages(ctx, doc, filePath, cfg)
	if err != nil {
		p.handleFailure(ctx, doc, filePath, err)
		return
	}

	// 5. Persist passages and the completed transition together
	completed, err := p.documents.CompleteDocument(ctx, doc.ID, passages, p.now())
	if err != nil {
		p.handleFailure(ctx, doc, filePath, fmt.Errorf("saving passages: %w", err))
		return
	}

	// 6. Report
	latency := p.now().Sub(started)
	logger.Info("Processed document %s: %d chunks in %s", doc.ID, len(passages), latency.Round(time.Millisecond))

	p.notify.publish(ctx, domain.EventDocumentCompleted, completed)
	p.notify.record(ctx, domain.ActivityDocumentProcessed,
		fmt.Sprintf("Document %q processed (%d chunks)", doc.Name, len(passages)), doc.PipelineID, doc.ID)
	p.recordMetric(ctx, doc.PipelineID, domain.MetricDocumentsProcessed, 1)
	p.recordMetric(ctx, doc.PipelineID, domain.MetricAvgLatency, float64(latency.Milliseconds()))
	p.recordMetric(ctx, doc.PipelineID, domain.MetricErrorRate, 0)

	p.removeFile(ctx, filePath, true)
}

// buildPassages reads the upload and returns embedded passages.
func (p *DocumentProcessor) buildPassages(
	ctx context.Context, doc *domain.Document, filePath string, cfg domain.PipelineConfig,
) ([]domain.Passage, error) {
	content, err := p.readFile(ctx, filePath)
	if err != nil {
		return nil, err
	}

	text, err := p.normalisers.Normalise(ctx, content, doc.MimeType)
	if err != nil {
		return nil, fmt.Errorf("extracting text: %w", err)
	}

	chunker := p.chunkers(cfg)
	passages := chunker.Process(doc, text)
	logger.Debug("Document %s split into %d passages by %s", doc.ID, len(passages), chunker.Name())
	if len(passages) == 0 {
		return passages, nil
	}

	texts := make([]string, len(passages))
	for i := range passages {
		texts[i] = passages[i].Content
	}

	vectors, err := p.embedder.EmbedBatch(ctx, texts, cfg.EmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("embedding passages: %w", err)
	}
	if len(vectors) != len(passages) {
		return nil, fmt.Errorf("embedding passages: %w: got %d vectors for %d passages",
			domain.ErrProvider, len(vectors), len(passages))
	}

	for i := range passages {
		passages[i].Embedding = vectors[i]
	}
	return passages, nil
}

func (p *DocumentProcessor) readFile(ctx context.Context, filePath string) ([]byte, error) {
	rc, err := p.files.Open(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	return content, nil
}

// handleFailure records a failed run.
func (p *DocumentProcessor) handleFailure(ctx context.Context, doc *domain.Document, filePath string, cause error) {
	message := cause.Error()
	logger.Error("Failed to process document %s: %s", doc.ID, message)

	failed := p.markFailed(ctx, doc.ID, message)
	if failed == nil {
		snapshot := *doc
		snapshot.Status = domain.DocumentFailed
		snapshot.ErrorMessage = message
		failed = &snapshot
	}

	p.notify.publish(ctx, domain.EventDocumentFailed, failed)
	label := doc.Name
	if label == "" {
		label = doc.ID
	}
	p.notify.record(ctx, domain.ActivityError,
		fmt.Sprintf("Failed to process %q: %s", label, message), doc.PipelineID, doc.ID)
	p.recordMetric(ctx, doc.PipelineID, domain.MetricErrorRate, 1)

	p.removeFile(ctx, filePath, false)
}

// markFailed moves a processing document to failed. It returns nil when
// the transition could not be stored.
func (p *DocumentProcessor) markFailed(ctx context.Context, documentID, message string) *domain.Document {
	failed, err := p.documents.FailDocument(ctx, documentID, message, p.now())
	if err != nil {
		logger.Error("Failed to mark document %s failed: %v", documentID, err)
		return nil
	}
	return failed
}

func (p *DocumentProcessor) recordMetric(ctx context.Context, pipelineID string, metric domain.MetricType, value float64) {
	if p.metrics == nil {
		return
	}
	point := domain.MetricPoint{
		PipelineID: pipelineID,
		Type:       metric,
		Value:      value,
		Timestamp:  p.now(),
	}
	if err := p.metrics.RecordMetric(ctx, point); err != nil {
		logger.Warn("Failed to record %s metric for pipeline %s: %v", metric, pipelineID, err)
	}
}

// removeFile deletes the processed upload. Failures after a successful
// run are logged as warnings; after a failed run they are ignored.
func (p *DocumentProcessor) removeFile(ctx context.Context, filePath string, warn bool) {
	if filePath == "" {
		return
	}
	if err := p.files.Delete(ctx, filePath); err != nil {
		if warn {
			logger.Warn("Failed to delete upload %s: %v", filePath, err)
		} else {
			logger.Debug("Ignoring upload cleanup error for %s: %v", filePath, err)
		}
	}
}
