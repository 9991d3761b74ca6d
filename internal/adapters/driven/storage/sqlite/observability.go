package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
)

// ==================== Metric Store ====================

// metricStore implements driven.MetricStore.
type metricStore struct {
	store *Store
}

var _ driven.MetricStore = (*metricStore)(nil)

// RecordMetric appends a metric point.
func (s *metricStore) RecordMetric(ctx context.Context, point domain.MetricPoint) error {
	if point.Timestamp.IsZero() {
		point.Timestamp = time.Now()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO metrics (pipeline_id, metric_type, value, recorded_at)
		VALUES (?, ?, ?, ?)
	`, point.PipelineID, string(point.Type), point.Value, toMillis(point.Timestamp))
	if err != nil {
		return fmt.Errorf("recording metric: %w", err)
	}
	return nil
}

// ListMetrics returns a pipeline's points of one type after since, oldest first.
func (s *metricStore) ListMetrics(
	ctx context.Context, pipelineID string, metric domain.MetricType, since time.Time,
) ([]domain.MetricPoint, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT pipeline_id, metric_type, value, recorded_at
		FROM metrics
		WHERE pipeline_id = ? AND metric_type = ? AND recorded_at > ?
		ORDER BY recorded_at ASC, id ASC
	`, pipelineID, string(metric), toMillis(since))
	if err != nil {
		return nil, fmt.Errorf("querying metrics: %w", err)
	}
	defer rows.Close()

	points := []domain.MetricPoint{}
	for rows.Next() {
		var point domain.MetricPoint
		var metricType string
		var recordedAt int64
		if err := rows.Scan(&point.PipelineID, &metricType, &point.Value, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning metric: %w", err)
		}
		point.Type = domain.MetricType(metricType)
		point.Timestamp = fromMillis(recordedAt)
		points = append(points, point)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating metrics: %w", err)
	}

	return points, nil
}

// ==================== Activity Store ====================

// activityStore implements driven.ActivityStore.
type activityStore struct {
	store *Store
}

var _ driven.ActivityStore = (*activityStore)(nil)

// RecordActivity appends an activity entry.
func (s *activityStore) RecordActivity(ctx context.Context, activity *domain.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	if activity.Timestamp.IsZero() {
		activity.Timestamp = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO activities (id, type, message, pipeline_id, document_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, activity.ID, string(activity.Type), activity.Message,
		nullString(activity.PipelineID), nullString(activity.DocumentID), toMillis(activity.Timestamp))
	if err != nil {
		return fmt.Errorf("recording activity: %w", err)
	}
	return nil
}

// ListActivity returns the newest entries first.
func (s *activityStore) ListActivity(ctx context.Context, pipelineID string, limit int) ([]domain.Activity, error) {
	query := `SELECT id, type, message, pipeline_id, document_id, created_at FROM activities`
	var args []any
	if pipelineID != "" {
		query += ` WHERE pipeline_id = ?`
		args = append(args, pipelineID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying activities: %w", err)
	}
	defer rows.Close()

	activities := []domain.Activity{}
	for rows.Next() {
		var activity domain.Activity
		var activityType string
		var pipelineID, documentID sql.NullString
		var createdAt int64
		if err := rows.Scan(&activity.ID, &activityType, &activity.Message,
			&pipelineID, &documentID, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning activity: %w", err)
		}
		activity.Type = domain.ActivityType(activityType)
		activity.PipelineID = pipelineID.String
		activity.DocumentID = documentID.String
		activity.Timestamp = fromMillis(createdAt)
		activities = append(activities, activity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activities: %w", err)
	}

	return activities, nil
}

// ==================== Stats Store ====================

// statsStore implements driven.StatsStore.
type statsStore struct {
	store *Store
}

var _ driven.StatsStore = (*statsStore)(nil)

// Stats returns installation-wide totals.
func (s *statsStore) Stats(ctx context.Context, since time.Time) (*domain.DashboardStats, error) {
	cutoff := toMillis(since)
	row := s.store.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM pipelines),
			(SELECT COUNT(*) FROM pipelines WHERE status = ?),
			(SELECT COUNT(*) FROM documents),
			(SELECT COUNT(*) FROM passages),
			(SELECT COUNT(*) FROM documents WHERE processed_at > ?),
			COALESCE((SELECT AVG(value) FROM metrics WHERE metric_type = ? AND recorded_at > ?), 0)
	`, string(domain.PipelineActive), cutoff, string(domain.MetricAvgLatency), cutoff)

	var stats domain.DashboardStats
	if err := row.Scan(&stats.TotalPipelines, &stats.ActivePipelines, &stats.TotalDocuments,
		&stats.TotalPassages, &stats.DocumentsProcessedToday, &stats.AvgProcessingTime); err != nil {
		return nil, fmt.Errorf("scanning stats: %w", err)
	}
	return &stats, nil
}
