package embedding

import (
	"context"
	"errors"
	"testing"

	"shop-assistant-be/pkg/credential"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKeyed struct {
	good  map[string]bool
	calls []string
}

func (f *fakeKeyed) EmbedWithKey(ctx context.Context, text, taskType, apiKey string) ([]float32, error) {
	f.calls = append(f.calls, apiKey)
	if f.good[apiKey] {
		return []float32{1, 0}, nil
	}
	return nil, errors.New("quota exceeded")
}

func TestPooledProvider_FallsBackAcrossCredentials(t *testing.T) {
	pool, err := credential.NewPool(credential.TierEmbedding, []string{"e1", "e2", "e3"})
	require.NoError(t, err)
	keyed := &fakeKeyed{good: map[string]bool{"e3": true}}

	p := NewPooledProvider(keyed, pool, nil)
	vec, err := p.Embed(context.Background(), "red shoes", TaskRetrievalQuery)

	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0}, vec)
	assert.Equal(t, []string{"e1", "e2", "e3"}, keyed.calls)
	assert.Equal(t, 2, pool.Cursor())

	// Next call starts on the working key.
	keyed.calls = nil
	_, err = p.Embed(context.Background(), "blue shoes", TaskRetrievalQuery)
	require.NoError(t, err)
	assert.Equal(t, []string{"e3"}, keyed.calls)
}

func TestPooledProvider_AllCredentialsFail(t *testing.T) {
	pool, err := credential.NewPool(credential.TierEmbedding, []string{"e1", "e2"})
	require.NoError(t, err)
	keyed := &fakeKeyed{good: map[string]bool{}}

	_, err = NewPooledProvider(keyed, pool, nil).Embed(context.Background(), "x", TaskRetrievalQuery)

	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
	assert.Len(t, keyed.calls, 2)
}
