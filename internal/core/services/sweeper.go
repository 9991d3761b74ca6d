package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driving"
	"github.com/custodia-labs/ragpipe/internal/logger"
)

// DefaultSweepInterval is used when the sweeper is given no interval.
const DefaultSweepInterval = 30 * time.Second

// Sweeper periodically starts processing of pending documents that belong
// to active pipelines. Documents are claimed by the processor, so a
// document picked up by two sweeps is still processed once.
type Sweeper struct {
	documents driven.DocumentStore
	pipelines driven.PipelineStore
	processor driving.DocumentProcessor
	interval  time.Duration

	mu        sync.Mutex
	scheduler *gocron.Scheduler
	stopCh    chan struct{}
}

// NewSweeper creates a sweeper. A non-positive interval uses DefaultSweepInterval.
func NewSweeper(
	documents driven.DocumentStore,
	pipelines driven.PipelineStore,
	processor driving.DocumentProcessor,
	interval time.Duration,
) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		documents: documents,
		pipelines: pipelines,
		processor: processor,
		interval:  interval,
	}
}

// Interval returns the time between sweeps.
func (s *Sweeper) Interval() time.Duration {
	return s.interval
}

// Start sweeps immediately and then on every interval. It blocks until
// ctx is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.scheduler != nil {
		s.mu.Unlock()
		return nil // Already running
	}

	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.SingletonModeAll()
	if _, err := scheduler.Every(s.interval).Tag("sweep").Do(func() {
		if _, err := s.SweepOnce(ctx); err != nil {
			logger.Warn("Sweep failed: %v", err)
		}
	}); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("schedule sweep: %w", err)
	}

	s.scheduler = scheduler
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	logger.Info("Sweeping pending documents every %s", s.interval)
	scheduler.StartAsync()

	select {
	case <-ctx.Done():
		s.Stop()
		return ctx.Err()
	case <-stopCh:
		return nil
	}
}

// Stop halts the schedule. Documents already started keep processing;
// use the processor's Wait to block on them.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler == nil {
		return
	}
	s.scheduler.Stop()
	close(s.stopCh)
	s.scheduler = nil
}

// SweepOnce starts processing of up to PendingBatchSize pending documents
// across all active pipelines and returns how many were started.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	return s.sweep(ctx, "")
}

// SweepPipeline starts processing of every pending document of one pipeline.
func (s *Sweeper) SweepPipeline(ctx context.Context, pipelineID string) (int, error) {
	if pipelineID == "" {
		return 0, fmt.Errorf("%w: pipeline id is required", domain.ErrInvalidInput)
	}
	return s.sweep(ctx, pipelineID)
}

func (s *Sweeper) sweep(ctx context.Context, pipelineID string) (int, error) {
	// A pipeline sweep takes its whole backlog in one query.
	limit := PendingBatchSize
	if pipelineID != "" {
		limit = 0
	}
	docs, err := s.documents.PendingDocuments(ctx, pipelineID, limit)
	if err != nil {
		return 0, fmt.Errorf("list pending documents: %w", err)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	configs := make(map[string]domain.PipelineConfig)
	started := 0
	for i := range docs {
		doc := &docs[i]

		cfg, ok := configs[doc.PipelineID]
		if !ok {
			pipeline, err := s.pipelines.GetPipeline(ctx, doc.PipelineID)
			if err != nil {
				logger.Warn("Skipping document %s: %v", doc.ID, err)
				continue
			}
			cfg = pipeline.Config
			configs[doc.PipelineID] = cfg
		}

		logger.Debug("Sweeper starting document %s", doc.ID)
		s.processor.Start(ctx, doc.ID, doc.PipelineID, doc.FilePath, cfg)
		started++
	}

	logger.Debug("Sweep started %d pending documents", started)
	return started, nil
}
