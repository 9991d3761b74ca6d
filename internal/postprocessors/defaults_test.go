package postprocessors

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragpipe/internal/core/domain"
)

func TestNewChunker(t *testing.T) {
	cfg := domain.DefaultPipelineConfig()
	cfg.ChunkSize = 100
	cfg.ChunkOverlap = 0

	c := NewChunker(cfg)
	require.NotNil(t, c)
	assert.Equal(t, "chunker", c.Name())

	doc := &domain.Document{ID: "d1", PipelineID: "p1", Name: "a.txt"}
	passages := c.Process(doc, strings.Repeat("x", 250))

	require.Len(t, passages, 3)
	assert.Len(t, passages[0].Content, 100)
	assert.Len(t, passages[2].Content, 50)
}

func TestNewChunker_ZeroConfigUsesDefaults(t *testing.T) {
	c := NewChunker(domain.PipelineConfig{})

	passages := c.Process(&domain.Document{ID: "d1"}, strings.Repeat("y", 600))
	require.Len(t, passages, 2)
	assert.Len(t, passages[0].Content, 512)
}
