package credential

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPool_RejectsEmpty(t *testing.T) {
	_, err := NewPool(TierPrimary, nil)
	assert.ErrorIs(t, err, ErrEmptyPool)

	_, err = NewPool(TierPrimary, []string{"", ""})
	assert.ErrorIs(t, err, ErrEmptyPool)
}

func TestPool_AdvanceWrapsAround(t *testing.T) {
	p, err := NewPool(TierSecondary, []string{"k1", "k2", "k3"})
	require.NoError(t, err)

	idx, key := p.Current()
	assert.Equal(t, 0, idx)
	assert.Equal(t, "k1", key)

	assert.Equal(t, 1, p.Advance())
	assert.Equal(t, 2, p.Advance())
	assert.Equal(t, 0, p.Advance())
	assert.Equal(t, "k1", p.At(3))
}

func TestPool_ConcurrentAdvanceKeepsCursorInRange(t *testing.T) {
	p, err := NewPool(TierPrimary, []string{"a", "b", "c", "d", "e"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c := p.Advance()
				assert.True(t, c >= 0 && c < p.Size())
			}
		}()
	}
	wg.Wait()

	// 5000 advances on a pool of 5 lands back on the start.
	assert.Equal(t, 0, p.Cursor())
}
