package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

func TestPipelineCmd_Use(t *testing.T) {
	assert.Equal(t, "pipeline", pipelineCmd.Use)
	assert.Contains(t, pipelineCmd.Aliases, "pipelines")
}

func TestPipelineCreateCmd_Flags(t *testing.T) {
	defaults := domain.DefaultPipelineConfig()

	flag := pipelineCreateCmd.Flags().Lookup("chunk-size")
	require.NotNil(t, flag)
	assert.Equal(t, "512", flag.DefValue)

	flag = pipelineCreateCmd.Flags().Lookup("model")
	require.NotNil(t, flag)
	assert.Equal(t, "m", flag.Shorthand)
	assert.Equal(t, defaults.EmbeddingModel, flag.DefValue)

	assert.Nil(t, pipelineCreateCmd.Flags().Lookup("name"), "name is positional on create")
	assert.NotNil(t, pipelineUpdateCmd.Flags().Lookup("name"))
}

func TestPipelineCreateCmd_Executes(t *testing.T) {
	env := setupTestServices(t)

	out, err := executeCommand(t, "pipeline", "create", "handbook",
		"--description", "Employee handbook", "--chunk-size", "300", "--chunk-overlap", "30", "--model", "mock-small")

	require.NoError(t, err)
	assert.Contains(t, out, "Pipeline created:")
	assert.Contains(t, out, "paused")

	pipelines, err := env.pipelines.List(context.Background())
	require.NoError(t, err)
	require.Len(t, pipelines, 1)
	p := pipelines[0]
	assert.Equal(t, "handbook", p.Name)
	assert.Equal(t, "Employee handbook", p.Description)
	assert.Equal(t, 300, p.Config.ChunkSize)
	assert.Equal(t, 30, p.Config.ChunkOverlap)
	assert.Equal(t, "mock-small", p.Config.EmbeddingModel)
	assert.Equal(t, domain.SourceFile, p.Config.SourceType)
}

func TestPipelineCreateCmd_InvalidConfig(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "pipeline", "create", "bad", "--chunk-size", "50")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "failed to create pipeline")
}

func TestPipelineCreateCmd_RequiresName(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "pipeline", "create")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestPipelineListCmd(t *testing.T) {
	env := setupTestServices(t)

	t.Run("empty", func(t *testing.T) {
		out, err := executeCommand(t, "pipeline", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "No pipelines configured.")
	})

	t.Run("with pipelines", func(t *testing.T) {
		first := env.createPipeline(t, "first", false)
		second := env.createPipeline(t, "second", true)

		out, err := executeCommand(t, "pipeline", "list")
		require.NoError(t, err)
		assert.Contains(t, out, first.ID)
		assert.Contains(t, out, second.ID)
		assert.Contains(t, out, "Total: 2 pipelines")
	})
}

func TestPipelineGetCmd(t *testing.T) {
	env := setupTestServices(t)
	p := env.createPipeline(t, "docs", false)
	env.upload(t, p.ID, "a.txt", "alpha")

	out, err := executeCommand(t, "pipeline", "get", p.ID)

	require.NoError(t, err)
	assert.Contains(t, out, "Pipeline: "+p.ID)
	assert.Contains(t, out, "docs")
	assert.Contains(t, out, "mock-small")
	assert.Contains(t, out, "Documents:     1")
}

func TestPipelineGetCmd_NotFound(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "pipeline", "get", "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPipelineUpdateCmd(t *testing.T) {
	env := setupTestServices(t)
	p := env.createPipeline(t, "docs", false)

	t.Run("only changed flags apply", func(t *testing.T) {
		out, err := executeCommand(t, "pipeline", "update", p.ID, "--name", "renamed", "--chunk-size", "400")
		require.NoError(t, err)
		assert.Contains(t, out, "Pipeline updated.")

		got, err := env.pipelines.Get(context.Background(), p.ID)
		require.NoError(t, err)
		assert.Equal(t, "renamed", got.Name)
		assert.Equal(t, 400, got.Config.ChunkSize)
		assert.Equal(t, 20, got.Config.ChunkOverlap, "overlap untouched")
		assert.Equal(t, "mock-small", got.Config.EmbeddingModel, "model untouched")
	})

	t.Run("s3 source", func(t *testing.T) {
		_, err := executeCommand(t, "pipeline", "update", p.ID, "--source", "s3", "--s3-bucket", "docs-bucket")
		require.NoError(t, err)

		got, err := env.pipelines.Get(context.Background(), p.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.SourceS3, got.Config.SourceType)
		assert.Equal(t, "docs-bucket", got.Config.S3Bucket)
	})

	t.Run("nothing to update", func(t *testing.T) {
		_, err := executeCommand(t, "pipeline", "update", p.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nothing to update")
	})
}

func TestPipelineStartStopCmd(t *testing.T) {
	env := setupTestServices(t)
	p := env.createPipeline(t, "docs", false)
	doc := env.upload(t, p.ID, "guide.txt", "Pending until the pipeline starts.")

	out, err := executeCommand(t, "pipeline", "start", p.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "active")

	got, err := env.documents.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentCompleted, got.Status, "start processes pending documents")

	out, err = executeCommand(t, "pipeline", "stop", p.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "paused")
}

func TestPipelineDeleteCmd(t *testing.T) {
	env := setupTestServices(t)
	p := env.createPipeline(t, "docs", true)
	env.upload(t, p.ID, "a.txt", "alpha")

	out, err := executeCommand(t, "pipeline", "delete", p.ID)

	require.NoError(t, err)
	assert.Contains(t, out, "deleted")
	_, err = env.pipelines.Get(context.Background(), p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	docs, err := env.documents.List(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestPipelineMetricsCmd(t *testing.T) {
	env := setupTestServices(t)
	p := env.createPipeline(t, "docs", true)

	t.Run("no samples", func(t *testing.T) {
		out, err := executeCommand(t, "pipeline", "metrics", p.ID)
		require.NoError(t, err)
		assert.Contains(t, out, "(no samples)")
	})

	t.Run("after processing", func(t *testing.T) {
		env.upload(t, p.ID, "a.txt", "alpha document")
		env.upload(t, p.ID, "b.txt", "bravo document")

		out, err := executeCommand(t, "pipeline", "metrics", p.ID, "--hours", "1")
		require.NoError(t, err)
		assert.Contains(t, out, "last 1h")
		assert.Contains(t, out, "Documents processed")
		assert.Contains(t, out, "Samples: 2")
	})
}

func TestPipelineCmds_ServiceNotConfigured(t *testing.T) {
	oldService := pipelineService
	pipelineService = nil
	defer func() { pipelineService = oldService }()

	for _, args := range [][]string{
		{"pipeline", "create", "x"},
		{"pipeline", "list"},
		{"pipeline", "get", "x"},
		{"pipeline", "update", "x", "--name", "y"},
		{"pipeline", "delete", "x"},
		{"pipeline", "start", "x"},
		{"pipeline", "stop", "x"},
		{"pipeline", "metrics", "x"},
	} {
		t.Run(args[1], func(t *testing.T) {
			_, err := executeCommand(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "pipeline service not configured")
		})
	}
}
