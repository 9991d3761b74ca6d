package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driving"
	"github.com/custodia-labs/ragpipe/internal/logger"
)

// DefaultMetricsHours is the metrics window used when none is given.
const DefaultMetricsHours = 24

// Ensure PipelineService implements the interface.
var _ driving.PipelineService = (*PipelineService)(nil)

// pendingSweeper starts processing of a pipeline's pending documents.
type pendingSweeper interface {
	SweepPipeline(ctx context.Context, pipelineID string) (int, error)
}

// PipelineService manages pipelines and their lifecycle.
type PipelineService struct {
	pipelines driven.PipelineStore
	documents driven.DocumentStore
	metrics   driven.MetricStore
	files     driven.FileStore
	notify    notifier
	sweeper   pendingSweeper
	now       func() time.Time
}

// NewPipelineService creates a new pipeline service.
// The sweeper is optional; without it, Start only flips the status.
// Without a file store, Delete leaves uploaded files in place.
func NewPipelineService(
	pipelines driven.PipelineStore,
	documents driven.DocumentStore,
	metrics driven.MetricStore,
	activity driven.ActivityStore,
	files driven.FileStore,
	sweeper pendingSweeper,
) *PipelineService {
	return &PipelineService{
		pipelines: pipelines,
		documents: documents,
		metrics:   metrics,
		files:     files,
		notify:    notifier{activity: activity},
		sweeper:   sweeper,
		now:       time.Now,
	}
}

// Create registers a new paused pipeline.
func (s *PipelineService) Create(
	ctx context.Context, name, description string, cfg domain.PipelineConfig,
) (*domain.Pipeline, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: pipeline name is required", domain.ErrInvalidInput)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	pipeline := &domain.Pipeline{
		ID:          uuid.New().String(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Status:      domain.PipelinePaused,
		Config:      cfg,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.pipelines.SavePipeline(ctx, pipeline); err != nil {
		return nil, fmt.Errorf("save pipeline: %w", err)
	}

	logger.Info("Created pipeline %s (%s)", pipeline.Name, pipeline.ID)
	s.notify.record(ctx, domain.ActivityPipelineStarted,
		fmt.Sprintf("Pipeline %q created", pipeline.Name), pipeline.ID, "")

	return pipeline, nil
}

// List returns all pipelines, newest first.
func (s *PipelineService) List(ctx context.Context) ([]domain.Pipeline, error) {
	pipelines, err := s.pipelines.ListPipelines(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pipelines: %w", err)
	}
	return pipelines, nil
}

// Get retrieves a pipeline by ID.
func (s *PipelineService) Get(ctx context.Context, id string) (*domain.Pipeline, error) {
	pipeline, err := s.pipelines.GetPipeline(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get pipeline: %w", err)
	}
	return pipeline, nil
}

// Update applies a partial update. Config fields are merged into the
// existing configuration and the result is validated.
func (s *PipelineService) Update(
	ctx context.Context, id string, update domain.PipelineUpdate,
) (*domain.Pipeline, error) {
	pipeline, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.IsEmpty() {
		return pipeline, nil
	}

	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: pipeline name is required", domain.ErrInvalidInput)
		}
		pipeline.Name = name
	}
	if update.Description != nil {
		pipeline.Description = strings.TrimSpace(*update.Description)
	}
	if update.Config != nil {
		cfg := update.Config.Apply(pipeline.Config)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		pipeline.Config = cfg
	}
	pipeline.UpdatedAt = s.now().UTC()

	if err := s.pipelines.SavePipeline(ctx, pipeline); err != nil {
		return nil, fmt.Errorf("save pipeline: %w", err)
	}

	logger.Info("Updated pipeline %s", pipeline.ID)
	return s.Get(ctx, id)
}

// Delete removes a pipeline with its documents, passages and metrics.
func (s *PipelineService) Delete(ctx context.Context, id string) error {
	var uploads []string
	if s.documents != nil && s.files != nil {
		docs, err := s.documents.ListDocuments(ctx, id)
		if err != nil {
			return fmt.Errorf("list pipeline documents: %w", err)
		}
		for i := range docs {
			if docs[i].FilePath != "" {
				uploads = append(uploads, docs[i].FilePath)
			}
		}
	}

	if err := s.pipelines.DeletePipeline(ctx, id); err != nil {
		return fmt.Errorf("delete pipeline: %w", err)
	}

	for _, key := range uploads {
		discardUpload(ctx, s.files, key)
	}
	logger.Info("Deleted pipeline %s", id)
	return nil
}

// Start activates a pipeline and starts processing its pending documents.
func (s *PipelineService) Start(ctx context.Context, id string) (*domain.Pipeline, error) {
	pipeline, err := s.pipelines.SetPipelineStatus(ctx, id, domain.PipelineActive)
	if err != nil {
		return nil, fmt.Errorf("start pipeline: %w", err)
	}

	logger.Info("Started pipeline %s", pipeline.Name)
	s.notify.record(ctx, domain.ActivityPipelineStarted,
		fmt.Sprintf("Pipeline %q started", pipeline.Name), pipeline.ID, "")

	if s.sweeper != nil {
		started, err := s.sweeper.SweepPipeline(ctx, pipeline.ID)
		if err != nil {
			logger.Warn("Failed to start pending documents of pipeline %s: %v", pipeline.ID, err)
		} else if started > 0 {
			logger.Info("Started %d pending documents of pipeline %s", started, pipeline.Name)
		}
	}

	return pipeline, nil
}

// Stop pauses a pipeline. Documents already processing run to completion.
func (s *PipelineService) Stop(ctx context.Context, id string) (*domain.Pipeline, error) {
	pipeline, err := s.pipelines.SetPipelineStatus(ctx, id, domain.PipelinePaused)
	if err != nil {
		return nil, fmt.Errorf("stop pipeline: %w", err)
	}

	logger.Info("Stopped pipeline %s", pipeline.Name)
	s.notify.record(ctx, domain.ActivityPipelineStopped,
		fmt.Sprintf("Pipeline %q stopped", pipeline.Name), pipeline.ID, "")

	return pipeline, nil
}

// Metrics returns the pipeline's metric series over the last hours.
// A non-positive hours value uses the default window.
func (s *PipelineService) Metrics(ctx context.Context, id string, hours int) (*domain.PipelineMetrics, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if hours <= 0 {
		hours = DefaultMetricsHours
	}
	since := s.now().Add(-time.Duration(hours) * time.Hour)

	series := func(metric domain.MetricType) ([]domain.MetricPoint, error) {
		points, err := s.metrics.ListMetrics(ctx, id, metric, since)
		if err != nil {
			return nil, fmt.Errorf("list %s metrics: %w", metric, err)
		}
		return points, nil
	}

	var result domain.PipelineMetrics
	var err error
	if result.DocumentsProcessed, err = series(domain.MetricDocumentsProcessed); err != nil {
		return nil, err
	}
	if result.AvgLatency, err = series(domain.MetricAvgLatency); err != nil {
		return nil, err
	}
	if result.ErrorRate, err = series(domain.MetricErrorRate); err != nil {
		return nil, err
	}
	return &result, nil
}
