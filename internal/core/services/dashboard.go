package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driving"
)

const (
	// DefaultActivityLimit is the number of feed entries returned when no limit is given.
	DefaultActivityLimit = 20

	// statsWindow is the period counted as "today" by the dashboard.
	statsWindow = 24 * time.Hour
)

// Ensure DashboardService implements the interface.
var _ driving.DashboardService = (*DashboardService)(nil)

// DashboardService exposes installation totals and the activity feed.
type DashboardService struct {
	stats    driven.StatsStore
	activity driven.ActivityStore
	now      func() time.Time
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(stats driven.StatsStore, activity driven.ActivityStore) *DashboardService {
	return &DashboardService{
		stats:    stats,
		activity: activity,
		now:      time.Now,
	}
}

// Stats returns installation-wide totals over the last 24 hours.
func (s *DashboardService) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	stats, err := s.stats.Stats(ctx, s.now().Add(-statsWindow))
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return stats, nil
}

// RecentActivity returns the newest activity entries of every pipeline.
func (s *DashboardService) RecentActivity(ctx context.Context, limit int) ([]domain.Activity, error) {
	return s.listActivity(ctx, "", limit)
}

// PipelineActivity returns the newest activity entries of one pipeline.
func (s *DashboardService) PipelineActivity(ctx context.Context, pipelineID string, limit int) ([]domain.Activity, error) {
	if pipelineID == "" {
		return nil, fmt.Errorf("%w: pipeline id is required", domain.ErrInvalidInput)
	}
	return s.listActivity(ctx, pipelineID, limit)
}

func (s *DashboardService) listActivity(ctx context.Context, pipelineID string, limit int) ([]domain.Activity, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	entries, err := s.activity.ListActivity(ctx, pipelineID, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return entries, nil
}
