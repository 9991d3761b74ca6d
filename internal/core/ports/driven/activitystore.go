package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

// ActivityStore persists the dashboard audit feed.
type ActivityStore interface {
	// RecordActivity appends an activity entry.
	RecordActivity(ctx context.Context, activity *domain.Activity) error

	// ListActivity returns the newest entries first.
	// An empty pipelineID lists entries of every pipeline.
	ListActivity(ctx context.Context, pipelineID string, limit int) ([]domain.Activity, error)
}

// StatsStore computes installation-wide dashboard figures.
type StatsStore interface {
	// Stats returns totals, counting processed documents and
	// averaging latency over records newer than since.
	Stats(ctx context.Context, since time.Time) (*domain.DashboardStats, error)
}
