package mock

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestProvider_Embed_Deterministic(t *testing.T) {
	p := New()
	ctx := context.Background()

	a, err := p.Embed(ctx, "hello world", "")
	require.NoError(t, err)
	b, err := p.Embed(ctx, "hello world", "")
	require.NoError(t, err)
	c, err := p.Embed(ctx, "hello there", "")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestProvider_Embed_UnitNorm(t *testing.T) {
	p := New()

	for _, text := range []string{"", "a", "The quick brown fox", "héllo wörld", "长文本"} {
		v, err := p.Embed(context.Background(), text, "mock-small")
		require.NoError(t, err)
		assert.InDelta(t, 1.0, norm(v), 1e-6, "text %q", text)
	}
}

func TestProvider_Dimension(t *testing.T) {
	p := New()

	tests := []struct {
		model string
		want  int
	}{
		{"", 1536},
		{"mock-small", 384},
		{"mock-large", 1536},
		{"unknown", 1536},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Dimension(tt.model))

			v, err := p.Embed(context.Background(), "text", tt.model)
			require.NoError(t, err)
			assert.Len(t, v, tt.want)
		})
	}
}

func TestProvider_EmbedBatch_MatchesEmbed(t *testing.T) {
	p := New()
	ctx := context.Background()
	texts := []string{"one", "two", "three"}

	batch, err := p.EmbedBatch(ctx, texts, "mock-small")
	require.NoError(t, err)
	require.Len(t, batch, len(texts))

	for i, text := range texts {
		single, err := p.Embed(ctx, text, "mock-small")
		require.NoError(t, err)
		assert.Equal(t, single, batch[i])
	}
}

func TestProvider_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().EmbedBatch(ctx, []string{"a"}, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHash(t *testing.T) {
	assert.Equal(t, int64(0), hash(""))
	assert.Equal(t, int64(97), hash("a"))
	assert.Equal(t, int64(97*31+98), hash("ab"))

	// Long inputs wrap to 32 bits and stay non-negative.
	h := hash(strings.Repeat("z", 40))
	assert.GreaterOrEqual(t, h, int64(0))
	assert.LessOrEqual(t, h, int64(math.MaxInt32)+1)
}

func TestProvider_Catalog(t *testing.T) {
	p := New()
	assert.Equal(t, "mock", p.Name())
	assert.Equal(t, "mock-large", p.DefaultModel())
	assert.Len(t, p.Models(), 2)
}
