package embedding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct{ calls int }

func (c *countingProvider) Embed(ctx context.Context, text, taskType string) ([]float32, error) {
	c.calls++
	return []float32{0.5, 0.5}, nil
}

func TestCachedProvider_WithoutRedisPassesThrough(t *testing.T) {
	inner := &countingProvider{}
	c := NewCachedProvider(inner, nil, 0, nil)

	vec, err := c.Embed(context.Background(), "q", TaskRetrievalQuery)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, vec)
	assert.Equal(t, 1, inner.calls)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, cacheKey("q", TaskRetrievalQuery), cacheKey("q", TaskRetrievalQuery))
	assert.NotEqual(t, cacheKey("q", TaskRetrievalQuery), cacheKey("q", TaskRetrievalDocument))
	assert.Contains(t, cacheKey("q", ""), "embedding:")
}
