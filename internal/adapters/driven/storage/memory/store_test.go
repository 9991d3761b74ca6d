package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

func seedPipeline(t *testing.T, store *Store, id string, status domain.PipelineStatus) {
	t.Helper()
	require.NoError(t, store.PipelineStore().SavePipeline(context.Background(), &domain.Pipeline{
		ID:     id,
		Name:   "Pipeline " + id,
		Status: status,
		Config: domain.DefaultPipelineConfig(),
	}))
}

func seedDocument(t *testing.T, store *Store, id, pipelineID string, uploadedAt time.Time) {
	t.Helper()
	require.NoError(t, store.DocumentStore().CreateDocument(context.Background(), &domain.Document{
		ID:         id,
		PipelineID: pipelineID,
		Name:       id + ".md",
		MimeType:   "text/markdown",
		UploadedAt: uploadedAt,
	}))
}

func completeDocument(t *testing.T, store *Store, id, pipelineID string, vectors ...[]float32) {
	t.Helper()
	ctx := context.Background()

	claimed, err := store.DocumentStore().ClaimDocument(ctx, id)
	require.NoError(t, err)
	require.True(t, claimed)

	passages := make([]domain.Passage, len(vectors))
	for i, v := range vectors {
		passages[i] = domain.Passage{
			ID:         id + "-" + string(rune('a'+i)),
			PipelineID: pipelineID,
			Content:    "passage",
			Embedding:  v,
			ChunkIndex: i,
		}
	}
	_, err = store.DocumentStore().CompleteDocument(ctx, id, passages, time.Now())
	require.NoError(t, err)
}

func TestNewStore(t *testing.T) {
	store := NewStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.pipelines)
	assert.NotNil(t, store.documents)
}

func TestPipelineStore_CRUD(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	pipelines := store.PipelineStore()

	_, err := pipelines.GetPipeline(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	seedPipeline(t, store, "p1", domain.PipelinePaused)
	seedDocument(t, store, "d1", "p1", time.Now())

	got, err := pipelines.GetPipeline(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Pipeline p1", got.Name)
	assert.Equal(t, 1, got.DocumentCount)

	created := got.CreatedAt
	got.Name = "Renamed"
	got.CreatedAt = time.Time{}
	require.NoError(t, pipelines.SavePipeline(ctx, got))

	got, err = pipelines.GetPipeline(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, created, got.CreatedAt, "updates keep the creation time")

	active, err := pipelines.SetPipelineStatus(ctx, "p1", domain.PipelineActive)
	require.NoError(t, err)
	assert.Equal(t, domain.PipelineActive, active.Status)

	_, err = pipelines.SetPipelineStatus(ctx, "missing", domain.PipelineActive)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPipelineStore_ListNewestFirst(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	base := time.Now()
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.PipelineStore().SavePipeline(ctx, &domain.Pipeline{
			ID: id, Name: id, Status: domain.PipelinePaused,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	list, err := store.PipelineStore().ListPipelines(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "a", list[2].ID)
}

func TestPipelineStore_DeleteCascades(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	seedPipeline(t, store, "p1", domain.PipelineActive)
	seedPipeline(t, store, "p2", domain.PipelineActive)
	seedDocument(t, store, "d1", "p1", time.Now())
	seedDocument(t, store, "d2", "p2", time.Now())
	completeDocument(t, store, "d1", "p1", []float32{1, 0})
	completeDocument(t, store, "d2", "p2", []float32{1, 0})
	require.NoError(t, store.MetricStore().RecordMetric(ctx, domain.MetricPoint{
		PipelineID: "p1", Type: domain.MetricErrorRate, Value: 0,
	}))

	require.NoError(t, store.PipelineStore().DeletePipeline(ctx, "p1"))
	assert.ErrorIs(t, store.PipelineStore().DeletePipeline(ctx, "p1"), domain.ErrNotFound)

	_, err := store.DocumentStore().GetDocument(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	results, err := store.PassageSearcher().SearchPassages(ctx, []float32{1, 0}, "", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "d2", results[0].DocumentID)

	points, err := store.MetricStore().ListMetrics(ctx, "p1", domain.MetricErrorRate, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestDocumentStore_Lifecycle(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	docs := store.DocumentStore()

	err := docs.CreateDocument(ctx, &domain.Document{ID: "orphan", PipelineID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	seedPipeline(t, store, "p1", domain.PipelineActive)
	seedDocument(t, store, "d1", "p1", time.Now())

	doc, err := docs.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentPending, doc.Status)

	_, err = docs.CompleteDocument(ctx, "d1", nil, time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	claimed, err := docs.ClaimDocument(ctx, "d1")
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = docs.ClaimDocument(ctx, "d1")
	require.NoError(t, err)
	assert.False(t, claimed)

	passages := []domain.Passage{
		{ID: "x1", PipelineID: "p1", Content: "second", ChunkIndex: 1},
		{ID: "x0", PipelineID: "p1", Content: "first", ChunkIndex: 0},
	}
	doc, err = docs.CompleteDocument(ctx, "d1", passages, time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentCompleted, doc.Status)
	require.NotNil(t, doc.ChunkCount)
	assert.Equal(t, 2, *doc.ChunkCount)
	assert.NotNil(t, doc.ProcessedAt)

	stored, err := docs.GetPassages(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "first", stored[0].Content)
	assert.Equal(t, "d1", stored[0].DocumentID)

	_, err = docs.FailDocument(ctx, "d1", "late failure", time.Now())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	require.NoError(t, docs.DeleteDocument(ctx, "d1"))
	stored, err = docs.GetPassages(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.ErrorIs(t, docs.DeleteDocument(ctx, "d1"), domain.ErrNotFound)
}

func TestDocumentStore_CompleteRejectsDuplicatePassages(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	seedPipeline(t, store, "p1", domain.PipelineActive)
	seedDocument(t, store, "d1", "p1", time.Now())
	_, err := store.DocumentStore().ClaimDocument(ctx, "d1")
	require.NoError(t, err)

	passages := []domain.Passage{{ID: "dup"}, {ID: "dup", ChunkIndex: 1}}
	_, err = store.DocumentStore().CompleteDocument(ctx, "d1", passages, time.Now())
	assert.ErrorIs(t, err, domain.ErrPersistence)

	doc, err := store.DocumentStore().GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentProcessing, doc.Status)
}

func TestDocumentStore_Fail(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	seedPipeline(t, store, "p1", domain.PipelineActive)
	seedDocument(t, store, "d1", "p1", time.Now())
	_, err := store.DocumentStore().ClaimDocument(ctx, "d1")
	require.NoError(t, err)

	doc, err := store.DocumentStore().FailDocument(ctx, "d1", "boom", time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentFailed, doc.Status)
	assert.Equal(t, "boom", doc.ErrorMessage)
	assert.Nil(t, doc.ChunkCount)

	_, err = store.DocumentStore().FailDocument(ctx, "missing", "boom", time.Now())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_ListAndPending(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	seedPipeline(t, store, "active", domain.PipelineActive)
	seedPipeline(t, store, "paused", domain.PipelinePaused)
	now := time.Now()
	seedDocument(t, store, "a", "active", now.Add(-2*time.Minute))
	seedDocument(t, store, "b", "paused", now.Add(-time.Minute))
	seedDocument(t, store, "c", "active", now)

	all, err := store.DocumentStore().ListDocuments(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "a", all[2].ID)

	scoped, err := store.DocumentStore().ListDocuments(ctx, "paused")
	require.NoError(t, err)
	require.Len(t, scoped, 1)

	pending, err := store.DocumentStore().PendingDocuments(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "a", pending[0].ID)
	assert.Equal(t, "c", pending[1].ID)

	pending, err = store.DocumentStore().PendingDocuments(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	pending, err = store.DocumentStore().PendingDocuments(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestPassageSearcher(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	seedPipeline(t, store, "p1", domain.PipelineActive)
	seedPipeline(t, store, "p2", domain.PipelineActive)
	seedDocument(t, store, "d1", "p1", time.Now())
	seedDocument(t, store, "d2", "p2", time.Now())
	completeDocument(t, store, "d1", "p1", []float32{0, 1}, []float32{1, 0}, []float32{1, 0, 0})
	completeDocument(t, store, "d2", "p2", []float32{1, 0})

	results, err := store.PassageSearcher().SearchPassages(ctx, []float32{1, 0}, "", 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "d1-b", results[0].PassageID)
	assert.Equal(t, "d2-a", results[1].PassageID, "ties keep insertion order")
	assert.Equal(t, "d1-a", results[2].PassageID)
	assert.Equal(t, "d1.md", results[0].DocumentName)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)

	scoped, err := store.PassageSearcher().SearchPassages(ctx, []float32{1, 0}, "p2", 10)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "d2", scoped[0].DocumentID)

	limited, err := store.PassageSearcher().SearchPassages(ctx, []float32{1, 0}, "", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestMetricAndActivityStores(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.MetricStore().RecordMetric(ctx, domain.MetricPoint{
		PipelineID: "p1", Type: domain.MetricAvgLatency, Value: 10, Timestamp: now.Add(-time.Minute),
	}))
	require.NoError(t, store.MetricStore().RecordMetric(ctx, domain.MetricPoint{
		PipelineID: "p1", Type: domain.MetricAvgLatency, Value: 5, Timestamp: now.Add(-time.Hour),
	}))
	require.NoError(t, store.MetricStore().RecordMetric(ctx, domain.MetricPoint{
		PipelineID: "p1", Type: domain.MetricAvgLatency, Value: 99, Timestamp: now.Add(-30 * time.Hour),
	}))

	points, err := store.MetricStore().ListMetrics(ctx, "p1", domain.MetricAvgLatency, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, float64(5), points[0].Value)
	assert.Equal(t, float64(10), points[1].Value)

	for _, msg := range []string{"one", "two", "three"} {
		require.NoError(t, store.ActivityStore().RecordActivity(ctx, &domain.Activity{
			Type: domain.ActivityDocumentUploaded, Message: msg, PipelineID: "p1", Timestamp: now,
		}))
	}
	activity, err := store.ActivityStore().ListActivity(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, activity, 2)
	assert.Equal(t, "three", activity[0].Message, "same timestamp falls back to insertion order")
	assert.NotEmpty(t, activity[0].ID)

	other, err := store.ActivityStore().ListActivity(ctx, "p2", 20)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestStatsStore(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	seedPipeline(t, store, "p1", domain.PipelineActive)
	seedPipeline(t, store, "p2", domain.PipelinePaused)
	seedDocument(t, store, "d1", "p1", time.Now())
	seedDocument(t, store, "d2", "p1", time.Now())
	completeDocument(t, store, "d1", "p1", []float32{1}, []float32{1})
	require.NoError(t, store.MetricStore().RecordMetric(ctx, domain.MetricPoint{
		PipelineID: "p1", Type: domain.MetricAvgLatency, Value: 120,
	}))

	stats, err := store.StatsStore().Stats(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalPipelines)
	assert.Equal(t, 1, stats.ActivePipelines)
	assert.Equal(t, 2, stats.TotalDocuments)
	assert.Equal(t, 2, stats.TotalPassages)
	assert.Equal(t, 1, stats.DocumentsProcessedToday)
	assert.InDelta(t, 120.0, stats.AvgProcessingTime, 1e-9)
}

func TestStore_ConcurrentClaims(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	seedPipeline(t, store, "p1", domain.PipelineActive)
	seedDocument(t, store, "d1", "p1", time.Now())

	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := store.DocumentStore().ClaimDocument(ctx, "d1")
			assert.NoError(t, err)
			if claimed {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}
