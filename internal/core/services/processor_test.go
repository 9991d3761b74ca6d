package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragpipe/internal/adapters/driven/embedding/mock"
	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/postprocessors"
)

// collectEvents drains the events already delivered to ch.
func collectEvents(ch <-chan domain.Event) []domain.EventType {
	var types []domain.EventType
	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return types
			}
			types = append(types, event.Type)
		default:
			return types
		}
	}
}

func subscribe(t *testing.T, env *testEnv, topic string) <-chan domain.Event {
	t.Helper()
	ch, cancel, err := env.bus.Subscribe(context.Background(), topic)
	require.NoError(t, err)
	t.Cleanup(cancel)
	return ch
}

func metricValues(t *testing.T, env *testEnv, pipelineID string, metric domain.MetricType) []float64 {
	t.Helper()
	points, err := env.store.MetricStore().ListMetrics(context.Background(), pipelineID, metric, time.Time{})
	require.NoError(t, err)
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	return values
}

func activityTypes(t *testing.T, env *testEnv, pipelineID string) []domain.ActivityType {
	t.Helper()
	entries, err := env.store.ActivityStore().ListActivity(context.Background(), pipelineID, 100)
	require.NoError(t, err)
	types := make([]domain.ActivityType, len(entries))
	for i, e := range entries {
		types[i] = e.Type
	}
	return types
}

func TestDocumentProcessor_ProcessDocument_Success(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	pipeline := env.createPipeline(t, "docs", false)

	events := subscribe(t, env, domain.PipelineTopic(pipeline.ID))
	dashboard := subscribe(t, env, domain.DashboardTopic)

	doc := env.upload(t, pipeline.ID, "guide.txt", sampleText())
	env.processor.ProcessDocument(ctx, doc.ID, pipeline.ID, doc.FilePath, pipeline.Config)

	got, err := env.documents.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentCompleted, got.Status)
	assert.Empty(t, got.ErrorMessage)
	require.NotNil(t, got.ProcessedAt)
	require.NotNil(t, got.ChunkCount)

	passages, err := env.documents.Passages(ctx, doc.ID)
	require.NoError(t, err)
	require.Greater(t, len(passages), 1)
	assert.Equal(t, len(passages), *got.ChunkCount)
	for i, p := range passages {
		assert.Equal(t, i, p.ChunkIndex)
		assert.Equal(t, pipeline.ID, p.PipelineID)
		assert.Len(t, p.Embedding, 384)
		assert.LessOrEqual(t, len([]rune(p.Content)), pipeline.Config.ChunkSize)
	}

	want := []domain.EventType{domain.EventDocumentCreated, domain.EventDocumentProcessing, domain.EventDocumentCompleted}
	assert.Equal(t, want, collectEvents(events))
	assert.Equal(t, want, collectEvents(dashboard))

	assert.Equal(t, []float64{1}, metricValues(t, env, pipeline.ID, domain.MetricDocumentsProcessed))
	assert.Equal(t, []float64{0}, metricValues(t, env, pipeline.ID, domain.MetricErrorRate))
	assert.Len(t, metricValues(t, env, pipeline.ID, domain.MetricAvgLatency), 1)
	assert.Contains(t, activityTypes(t, env, pipeline.ID), domain.ActivityDocumentProcessed)

	_, err = env.files.Open(ctx, doc.FilePath)
	assert.ErrorIs(t, err, domain.ErrNotFound, "upload is removed after processing")
}

func TestDocumentProcessor_ProcessDocument_ProviderFailure(t *testing.T) {
	env := newTestEnv(t, newFailingEmbedder("openai error (status 500): upstream down"))
	ctx := context.Background()
	pipeline := env.createPipeline(t, "docs", false)
	doc := env.upload(t, pipeline.ID, "guide.txt", sampleText())
	events := subscribe(t, env, domain.PipelineTopic(pipeline.ID))

	env.processor.ProcessDocument(ctx, doc.ID, pipeline.ID, doc.FilePath, pipeline.Config)

	got, err := env.documents.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "embedding passages")
	assert.Contains(t, got.ErrorMessage, "upstream down")
	assert.NotNil(t, got.ProcessedAt)
	assert.Nil(t, got.ChunkCount)

	passages, err := env.documents.Passages(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, passages, "no partial passages are stored")

	assert.Equal(t, []domain.EventType{domain.EventDocumentProcessing, domain.EventDocumentFailed}, collectEvents(events))
	assert.Equal(t, []float64{1}, metricValues(t, env, pipeline.ID, domain.MetricErrorRate))
	assert.Empty(t, metricValues(t, env, pipeline.ID, domain.MetricDocumentsProcessed))
	assert.Contains(t, activityTypes(t, env, pipeline.ID), domain.ActivityError)

	_, err = env.files.Open(ctx, doc.FilePath)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentProcessor_ProcessDocument_LoadFailureAfterClaim(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	pipeline := env.createPipeline(t, "docs", false)
	doc := env.upload(t, pipeline.ID, "guide.txt", sampleText())
	events := subscribe(t, env, domain.PipelineTopic(pipeline.ID))

	documents := &unreadableDocuments{DocumentStore: env.store.DocumentStore(), err: errors.New("disk I/O error")}
	processor := NewDocumentProcessor(
		documents, env.store.MetricStore(), env.store.ActivityStore(),
		env.files, env.registry, postprocessors.NewChunker, mock.New(), env.bus,
	)

	processor.ProcessDocument(ctx, doc.ID, pipeline.ID, doc.FilePath, pipeline.Config)

	got, err := env.documents.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "disk I/O error")

	assert.Equal(t, []domain.EventType{domain.EventDocumentFailed}, collectEvents(events))
	assert.Equal(t, []float64{1}, metricValues(t, env, pipeline.ID, domain.MetricErrorRate))
	assert.Contains(t, activityTypes(t, env, pipeline.ID), domain.ActivityError)

	_, err = env.files.Open(ctx, doc.FilePath)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentProcessor_ProcessDocument_ExtractionFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	pipeline := env.createPipeline(t, "docs", false)

	doc, err := env.documents.Upload(ctx, pipeline.ID, "broken.json", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)

	env.processor.ProcessDocument(ctx, doc.ID, pipeline.ID, doc.FilePath, pipeline.Config)

	got, err := env.documents.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "extracting text")
}

func TestDocumentProcessor_ProcessDocument_EmptyText(t *testing.T) {
	env := newTestEnv(t, newFailingEmbedder("must not be called"))
	ctx := context.Background()
	pipeline := env.createPipeline(t, "docs", false)
	doc := env.upload(t, pipeline.ID, "empty.txt", "   \n\t ")

	env.processor.ProcessDocument(ctx, doc.ID, pipeline.ID, doc.FilePath, pipeline.Config)

	got, err := env.documents.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentCompleted, got.Status)
	require.NotNil(t, got.ChunkCount)
	assert.Equal(t, 0, *got.ChunkCount)
}

func TestDocumentProcessor_ProcessDocument_TwoThousandCharacters(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	cfg := domain.DefaultPipelineConfig()
	cfg.EmbeddingModel = "mock-small"
	pipeline, err := env.pipelines.Create(ctx, "long", "", cfg)
	require.NoError(t, err)

	text := strings.Repeat("Retrieval needs well sized chunks. ", 60)[:2000]
	doc := env.upload(t, pipeline.ID, "long.txt", text)
	env.processor.ProcessDocument(ctx, doc.ID, pipeline.ID, doc.FilePath, pipeline.Config)

	got, err := env.documents.Get(ctx, doc.ID)
	require.NoError(t, err)
	require.Equal(t, domain.DocumentCompleted, got.Status)
	require.NotNil(t, got.ChunkCount)
	assert.GreaterOrEqual(t, *got.ChunkCount, 4)

	passages, err := env.documents.Passages(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, passages, *got.ChunkCount)
}

func TestDocumentProcessor_ProcessDocument_SkipsNonPending(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	pipeline := env.createPipeline(t, "docs", false)
	doc := env.upload(t, pipeline.ID, "guide.txt", sampleText())

	env.processor.ProcessDocument(ctx, doc.ID, pipeline.ID, doc.FilePath, pipeline.Config)
	first, err := env.documents.Passages(ctx, doc.ID)
	require.NoError(t, err)

	events := subscribe(t, env, domain.PipelineTopic(pipeline.ID))
	env.processor.ProcessDocument(ctx, doc.ID, pipeline.ID, doc.FilePath, pipeline.Config)

	second, err := env.documents.Passages(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, second, len(first), "a completed document is not processed again")
	assert.Empty(t, collectEvents(events))
}

func TestDocumentProcessor_Start_SurvivesCancelledContext(t *testing.T) {
	env := newTestEnv(t, nil)
	pipeline := env.createPipeline(t, "docs", false)
	doc := env.upload(t, pipeline.ID, "guide.txt", sampleText())

	ctx, cancel := context.WithCancel(context.Background())
	env.processor.Start(ctx, doc.ID, pipeline.ID, doc.FilePath, pipeline.Config)
	cancel()
	env.processor.Wait()

	got, err := env.documents.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentCompleted, got.Status)
}

func TestDocumentProcessor_Start_ConcurrentStartsProcessOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	pipeline := env.createPipeline(t, "docs", false)
	doc := env.upload(t, pipeline.ID, "guide.txt", sampleText())

	for i := 0; i < 5; i++ {
		env.processor.Start(ctx, doc.ID, pipeline.ID, doc.FilePath, pipeline.Config)
	}
	env.processor.Wait()

	got, err := env.documents.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentCompleted, got.Status)
	assert.Equal(t, []float64{1}, metricValues(t, env, pipeline.ID, domain.MetricDocumentsProcessed))

	passages, err := env.documents.Passages(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, passages, *got.ChunkCount)
}
