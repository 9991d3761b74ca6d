package driving

import (
	"context"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

// DashboardService exposes status, activity and metric read accessors.
type DashboardService interface {
	// Stats returns installation-wide totals.
	Stats(ctx context.Context) (*domain.DashboardStats, error)

	// RecentActivity returns the newest activity entries.
	RecentActivity(ctx context.Context, limit int) ([]domain.Activity, error)

	// PipelineActivity returns the newest activity entries of one pipeline.
	PipelineActivity(ctx context.Context, pipelineID string, limit int) ([]domain.Activity, error)
}
