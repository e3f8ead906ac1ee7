package credential

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// Tier is a priority class of generation capability.
type Tier string

const (
	TierPrimary   Tier = "primary"
	TierSecondary Tier = "secondary"
	TierEmbedding Tier = "embedding"
)

var ErrEmptyPool = errors.New("credential pool has no credentials")

// Pool holds the ordered API keys of one tier and a shared rotation cursor.
// The cursor is a load-spreading hint: concurrent callers may observe the
// same position, which is acceptable.
type Pool struct {
	tier        Tier
	credentials []string
	cursor      atomic.Uint64
}

func NewPool(tier Tier, credentials []string) (*Pool, error) {
	keys := make([]string, 0, len(credentials))
	for _, c := range credentials {
		if c != "" {
			keys = append(keys, c)
		}
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("%s: %w", tier, ErrEmptyPool)
	}
	return &Pool{tier: tier, credentials: keys}, nil
}

func (p *Pool) Tier() Tier {
	return p.tier
}

func (p *Pool) Size() int {
	return len(p.credentials)
}

// Cursor returns the current rotation position, always in [0, Size()).
func (p *Pool) Cursor() int {
	return int(p.cursor.Load() % uint64(len(p.credentials)))
}

// Current returns the credential at the cursor along with its index.
func (p *Pool) Current() (int, string) {
	idx := p.Cursor()
	return idx, p.credentials[idx]
}

// At returns the credential at idx modulo the pool size.
func (p *Pool) At(idx int) string {
	return p.credentials[idx%len(p.credentials)]
}

// Advance moves the cursor to the next credential and returns the new position.
func (p *Pool) Advance() int {
	return int(p.cursor.Add(1) % uint64(len(p.credentials)))
}
