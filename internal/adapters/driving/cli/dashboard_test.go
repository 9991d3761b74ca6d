package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

func TestDashboardCmd(t *testing.T) {
	env := setupTestServices(t)

	t.Run("empty installation", func(t *testing.T) {
		out, err := executeCommand(t, "dashboard")
		require.NoError(t, err)
		assert.Contains(t, out, "Pipelines")
		assert.Contains(t, out, "0 (0 active)")
		assert.Contains(t, out, "No activity yet.")
	})

	t.Run("after processing", func(t *testing.T) {
		p := env.createPipeline(t, "docs", true)
		env.upload(t, p.ID, "guide.txt", "Some guide text.")

		out, err := executeCommand(t, "status")
		require.NoError(t, err)
		assert.Contains(t, out, "1 (1 active)")
		assert.Contains(t, out, "Processed 24h")
		assert.Contains(t, out, "document processed")
		assert.Contains(t, out, "pipeline started")
	})
}

func TestActivityCmd(t *testing.T) {
	env := setupTestServices(t)
	first := env.createPipeline(t, "first", true)
	second := env.createPipeline(t, "second", true)
	env.upload(t, first.ID, "a.txt", "alpha")
	env.upload(t, second.ID, "b.txt", "bravo")

	t.Run("scoped to a pipeline", func(t *testing.T) {
		out, err := executeCommand(t, "activity", second.ID)
		require.NoError(t, err)
		assert.Contains(t, out, "b.txt")
		assert.NotContains(t, out, "a.txt")
	})

	t.Run("limit", func(t *testing.T) {
		entries, err := env.store.ActivityStore().ListActivity(context.Background(), "", 100)
		require.NoError(t, err)
		require.Greater(t, len(entries), 1)

		out, err := executeCommand(t, "activity", "-n", "1")
		require.NoError(t, err)
		assert.Contains(t, out, entries[0].Message)
		assert.NotContains(t, out, entries[len(entries)-1].Message)
	})
}

func TestActivityCmd_ErrorEntries(t *testing.T) {
	env := setupTestServices(t)
	require.NoError(t, env.store.ActivityStore().RecordActivity(context.Background(), &domain.Activity{
		Type:    domain.ActivityError,
		Message: "Failed to process broken.json",
	}))

	out, err := executeCommand(t, "activity")

	require.NoError(t, err)
	assert.Contains(t, out, "error")
	assert.Contains(t, out, "Failed to process broken.json")
}

func TestDashboardCmds_ServiceNotConfigured(t *testing.T) {
	oldService := dashboardService
	dashboardService = nil
	defer func() { dashboardService = oldService }()

	for _, name := range []string{"dashboard", "activity"} {
		t.Run(name, func(t *testing.T) {
			_, err := executeCommand(t, name)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "dashboard service not configured")
		})
	}
}
