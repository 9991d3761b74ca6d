package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

// MetricStore persists append-only pipeline metric points.
type MetricStore interface {
	// RecordMetric appends a metric point.
	RecordMetric(ctx context.Context, point domain.MetricPoint) error

	// ListMetrics returns a pipeline's points of one type recorded after since,
	// oldest first.
	ListMetrics(ctx context.Context, pipelineID string, metric domain.MetricType, since time.Time) ([]domain.MetricPoint, error)
}
