package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

func TestUploadCmd_Use(t *testing.T) {
	assert.Equal(t, "upload [pipeline-id] [file|pattern]...", uploadCmd.Use)

	flag := uploadCmd.Flags().Lookup("wait")
	require.NotNil(t, flag)
	assert.Equal(t, "w", flag.Shorthand)
}

func TestExpandUploadPatterns(t *testing.T) {
	dir := t.TempDir()
	a := writeTempFile(t, dir, "a.md", "alpha")
	b := writeTempFile(t, dir, "nested/b.md", "bravo")
	c := writeTempFile(t, dir, "nested/deeper/c.txt", "charlie")

	t.Run("plain path", func(t *testing.T) {
		files, err := expandUploadPatterns([]string{c})
		require.NoError(t, err)
		assert.Equal(t, []string{c}, files)
	})

	t.Run("recursive pattern", func(t *testing.T) {
		files, err := expandUploadPatterns([]string{filepath.Join(dir, "**", "*.md")})
		require.NoError(t, err)
		assert.Equal(t, []string{a, b}, files)
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		files, err := expandUploadPatterns([]string{a, filepath.Join(dir, "*.md")})
		require.NoError(t, err)
		assert.Equal(t, []string{a}, files)
	})

	t.Run("directories are skipped by patterns", func(t *testing.T) {
		files, err := expandUploadPatterns([]string{filepath.Join(dir, "*")})
		require.NoError(t, err)
		assert.Equal(t, []string{a}, files)
	})

	t.Run("plain directory is rejected", func(t *testing.T) {
		_, err := expandUploadPatterns([]string{dir})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "is a directory")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := expandUploadPatterns([]string{filepath.Join(dir, "missing.txt")})
		assert.Error(t, err)
	})

	t.Run("pattern without matches", func(t *testing.T) {
		files, err := expandUploadPatterns([]string{filepath.Join(dir, "*.pdf")})
		require.NoError(t, err)
		assert.Empty(t, files)
	})
}

func TestUploadCmd_SingleFilePending(t *testing.T) {
	env := setupTestServices(t)
	p := env.createPipeline(t, "docs", false)
	path := writeTempFile(t, t.TempDir(), "guide.md", "# Guide\n\nSome text.")

	out, err := executeCommand(t, "upload", p.ID, path)

	require.NoError(t, err)
	assert.Contains(t, out, "Uploaded guide.md as")
	assert.Contains(t, out, "pending")

	docs, err := env.documents.List(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "text/markdown", docs[0].MimeType)
	assert.Equal(t, domain.DocumentPending, docs[0].Status)
}

func TestUploadCmd_WaitFollowsProcessing(t *testing.T) {
	env := setupTestServices(t)
	p := env.createPipeline(t, "docs", true)
	dir := t.TempDir()
	writeTempFile(t, dir, "a.txt", "Alpha document about refunds.")
	writeTempFile(t, dir, "b.txt", "Bravo document about shipping.")
	writeTempFile(t, dir, "broken.json", "{not json")

	out, err := executeCommand(t, "upload", "--wait", p.ID, filepath.Join(dir, "*"))

	require.NoError(t, err)
	assert.Contains(t, out, "a.txt: ")
	assert.Contains(t, out, "(1 passages)")
	assert.Contains(t, out, "broken.json: ")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, string(domain.EventDocumentCompleted))

	docs, err := env.documents.List(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Len(t, docs, 3)
}

func TestUploadCmd_ExplicitType(t *testing.T) {
	env := setupTestServices(t)
	p := env.createPipeline(t, "docs", false)
	path := writeTempFile(t, t.TempDir(), "notes", "no extension")

	_, err := executeCommand(t, "upload", "--type", "text/plain", p.ID, path)

	require.NoError(t, err)
	docs, err := env.documents.List(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "text/plain", docs[0].MimeType)
}

func TestUploadCmd_Errors(t *testing.T) {
	env := setupTestServices(t)
	p := env.createPipeline(t, "docs", false)
	dir := t.TempDir()
	image := writeTempFile(t, dir, "logo.png", "png bytes")
	text := writeTempFile(t, dir, "ok.txt", "fine")

	t.Run("unsupported single file", func(t *testing.T) {
		_, err := executeCommand(t, "upload", p.ID, image)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	})

	t.Run("unknown pipeline", func(t *testing.T) {
		_, err := executeCommand(t, "upload", "missing", text)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("partial failure", func(t *testing.T) {
		_, err := executeCommand(t, "upload", p.ID, image, text)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 2 uploads failed")
	})

	t.Run("no matches", func(t *testing.T) {
		_, err := executeCommand(t, "upload", p.ID, filepath.Join(dir, "*.pdf"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no files match")
	})

	t.Run("needs a file", func(t *testing.T) {
		_, err := executeCommand(t, "upload", p.ID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "requires at least 2 arg(s)")
	})
}

func TestUploadCmd_ServiceNotConfigured(t *testing.T) {
	oldService := documentService
	documentService = nil
	defer func() { documentService = oldService }()

	_, err := executeCommand(t, "upload", "p1", "file.txt")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "document service not configured")
}
