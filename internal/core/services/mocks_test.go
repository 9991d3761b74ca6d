package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragpipe/internal/adapters/driven/embedding/mock"
	eventmemory "github.com/custodia-labs/ragpipe/internal/adapters/driven/eventbus/memory"
	"github.com/custodia-labs/ragpipe/internal/adapters/driven/filestore/local"
	"github.com/custodia-labs/ragpipe/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragpipe/internal/core/domain"
	"github.com/custodia-labs/ragpipe/internal/core/ports/driven"
	"github.com/custodia-labs/ragpipe/internal/normalisers"
	"github.com/custodia-labs/ragpipe/internal/postprocessors"
)

// --- Mock implementations ---

// failingEmbedder implements driven.EmbeddingProvider and always fails.
type failingEmbedder struct {
	err error
}

func (m *failingEmbedder) Name() string { return "failing" }

func (m *failingEmbedder) Embed(_ context.Context, _, _ string) ([]float32, error) {
	return nil, m.err
}

func (m *failingEmbedder) EmbedBatch(_ context.Context, _ []string, _ string) ([][]float32, error) {
	return nil, m.err
}

func (m *failingEmbedder) Dimension(_ string) int          { return 8 }
func (m *failingEmbedder) Models() []domain.EmbeddingModel { return nil }
func (m *failingEmbedder) DefaultModel() string            { return "failing-model" }

func newFailingEmbedder(msg string) *failingEmbedder {
	return &failingEmbedder{err: fmt.Errorf("%w: %s", domain.ErrProvider, msg)}
}

// recordingEmbedder wraps the mock provider and records the models asked for.
type recordingEmbedder struct {
	*mock.Provider

	mu     sync.Mutex
	models []string
}

func newRecordingEmbedder() *recordingEmbedder {
	return &recordingEmbedder{Provider: mock.New()}
}

func (m *recordingEmbedder) Embed(ctx context.Context, text, model string) ([]float32, error) {
	m.mu.Lock()
	m.models = append(m.models, model)
	m.mu.Unlock()
	return m.Provider.Embed(ctx, text, model)
}

func (m *recordingEmbedder) lastModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.models) == 0 {
		return ""
	}
	return m.models[len(m.models)-1]
}

// startCall captures a DocumentProcessor.Start invocation.
// unreadableDocuments claims documents normally but cannot load them.
type unreadableDocuments struct {
	driven.DocumentStore
	err error
}

func (d *unreadableDocuments) GetDocument(context.Context, string) (*domain.Document, error) {
	return nil, d.err
}

type startCall struct {
	documentID string
	pipelineID string
	filePath   string
	config     domain.PipelineConfig
}

// stubProcessor implements driving.DocumentProcessor without processing.
type stubProcessor struct {
	mu    sync.Mutex
	calls []startCall
}

func (m *stubProcessor) ProcessDocument(_ context.Context, documentID, pipelineID, filePath string, cfg domain.PipelineConfig) {
	m.record(documentID, pipelineID, filePath, cfg)
}

func (m *stubProcessor) Start(_ context.Context, documentID, pipelineID, filePath string, cfg domain.PipelineConfig) {
	m.record(documentID, pipelineID, filePath, cfg)
}

func (m *stubProcessor) Wait() {}

func (m *stubProcessor) record(documentID, pipelineID, filePath string, cfg domain.PipelineConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, startCall{
		documentID: documentID,
		pipelineID: pipelineID,
		filePath:   filePath,
		config:     cfg,
	})
}

func (m *stubProcessor) started() []startCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]startCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// stubStats implements driven.StatsStore and records the window start.
type stubStats struct {
	since time.Time
	stats domain.DashboardStats
	err   error
}

func (m *stubStats) Stats(_ context.Context, since time.Time) (*domain.DashboardStats, error) {
	m.since = since
	if m.err != nil {
		return nil, m.err
	}
	stats := m.stats
	return &stats, nil
}

// --- Test environment ---

// testEnv wires the services to in-memory adapters and a real processor.
type testEnv struct {
	store     *memory.Store
	files     *local.FileStore
	bus       *eventmemory.Bus
	registry  *normalisers.Registry
	processor *DocumentProcessor
	pipelines *PipelineService
	documents *DocumentService
	search    *SearchService
	sweeper   *Sweeper
}

func newTestEnv(t *testing.T, embedder driven.EmbeddingProvider) *testEnv {
	t.Helper()

	if embedder == nil {
		embedder = mock.New()
	}

	files, err := local.New(t.TempDir())
	require.NoError(t, err)

	store := memory.NewStore()
	bus := eventmemory.New()
	t.Cleanup(func() { _ = bus.Close() })
	registry := normalisers.NewDefaultRegistry()

	processor := NewDocumentProcessor(
		store.DocumentStore(), store.MetricStore(), store.ActivityStore(),
		files, registry, postprocessors.NewChunker, embedder, bus,
	)
	sweeper := NewSweeper(store.DocumentStore(), store.PipelineStore(), processor, time.Minute)

	return &testEnv{
		store:     store,
		files:     files,
		bus:       bus,
		registry:  registry,
		processor: processor,
		pipelines: NewPipelineService(
			store.PipelineStore(), store.DocumentStore(), store.MetricStore(), store.ActivityStore(), files, sweeper,
		),
		documents: NewDocumentService(
			store.PipelineStore(), store.DocumentStore(), store.ActivityStore(),
			files, registry, processor, bus, 0,
		),
		search:  NewSearchService(store.PassageSearcher(), store.PipelineStore(), embedder),
		sweeper: sweeper,
	}
}

// testConfig returns a valid pipeline config served by the mock provider.
func testConfig() domain.PipelineConfig {
	cfg := domain.DefaultPipelineConfig()
	cfg.ChunkSize = 200
	cfg.ChunkOverlap = 20
	cfg.EmbeddingModel = "mock-small"
	return cfg
}

func (e *testEnv) createPipeline(t *testing.T, name string, active bool) *domain.Pipeline {
	t.Helper()
	ctx := context.Background()

	pipeline, err := e.pipelines.Create(ctx, name, "", testConfig())
	require.NoError(t, err)
	if active {
		pipeline, err = e.pipelines.Start(ctx, pipeline.ID)
		require.NoError(t, err)
	}
	return pipeline
}

func (e *testEnv) upload(t *testing.T, pipelineID, name, content string) *domain.Document {
	t.Helper()
	doc, err := e.documents.Upload(context.Background(), pipelineID, name, "text/plain", strings.NewReader(content))
	require.NoError(t, err)
	return doc
}

// sampleText returns prose long enough to produce several chunks.
func sampleText() string {
	sentences := []string{
		"Vector search ranks passages by cosine similarity.",
		"Each pipeline chunks documents before embedding them.",
		"Failed documents keep their error message for the operator.",
		"Pending uploads are picked up when the pipeline starts.",
	}
	var b strings.Builder
	for i := 0; i < 6; i++ {
		for _, s := range sentences {
			b.WriteString(s)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}
