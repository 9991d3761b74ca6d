package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
)

// metricStore implements driven.MetricStore.
type metricStore struct {
	store *Store
}

var _ driven.MetricStore = (*metricStore)(nil)

// RecordMetric appends a metric point.
func (m *metricStore) RecordMetric(_ context.Context, point domain.MetricPoint) error {
	s := m.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if point.Timestamp.IsZero() {
		point.Timestamp = time.Now()
	}
	point.Timestamp = point.Timestamp.UTC()
	s.metrics = append(s.metrics, point)
	return nil
}

// ListMetrics returns a pipeline's points of one type after since, oldest first.
func (m *metricStore) ListMetrics(
	_ context.Context, pipelineID string, metric domain.MetricType, since time.Time,
) ([]domain.MetricPoint, error) {
	s := m.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	points := []domain.MetricPoint{}
	for _, point := range s.metrics {
		if point.PipelineID == pipelineID && point.Type == metric && point.Timestamp.After(since) {
			points = append(points, point)
		}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	return points, nil
}

// activityStore implements driven.ActivityStore.
type activityStore struct {
	store *Store
}

var _ driven.ActivityStore = (*activityStore)(nil)

// RecordActivity appends an activity entry.
func (a *activityStore) RecordActivity(_ context.Context, activity *domain.Activity) error {
	s := a.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	if activity.Timestamp.IsZero() {
		activity.Timestamp = time.Now().UTC()
	}
	s.activities = append(s.activities, activityRow{activity: *activity, seq: s.nextSeq()})
	return nil
}

// ListActivity returns the newest entries first.
func (a *activityStore) ListActivity(_ context.Context, pipelineID string, limit int) ([]domain.Activity, error) {
	s := a.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := []activityRow{}
	for _, row := range s.activities {
		if pipelineID == "" || row.activity.PipelineID == pipelineID {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		x, y := rows[i].activity.Timestamp, rows[j].activity.Timestamp
		if !x.Equal(y) {
			return x.After(y)
		}
		return rows[i].seq > rows[j].seq
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	activities := make([]domain.Activity, len(rows))
	for i, row := range rows {
		activities[i] = row.activity
	}
	return activities, nil
}

// statsStore implements driven.StatsStore.
type statsStore struct {
	store *Store
}

var _ driven.StatsStore = (*statsStore)(nil)

// Stats returns installation-wide totals.
func (st *statsStore) Stats(_ context.Context, since time.Time) (*domain.DashboardStats, error) {
	s := st.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.DashboardStats{
		TotalPipelines: len(s.pipelines),
		TotalDocuments: len(s.documents),
		TotalPassages:  len(s.passages),
	}
	for _, row := range s.pipelines {
		if row.pipeline.Status == domain.PipelineActive {
			stats.ActivePipelines++
		}
	}
	for _, row := range s.documents {
		if row.doc.ProcessedAt != nil && row.doc.ProcessedAt.After(since) {
			stats.DocumentsProcessedToday++
		}
	}

	var sum float64
	var count int
	for _, point := range s.metrics {
		if point.Type == domain.MetricAvgLatency && point.Timestamp.After(since) {
			sum += point.Value
			count++
		}
	}
	if count > 0 {
		stats.AvgProcessingTime = sum / float64(count)
	}

	return stats, nil
}
