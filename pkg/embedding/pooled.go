package embedding

import (
	"context"
	"errors"
	"fmt"

	"shop-assistant-be/internal/pkg/logger"
	"shop-assistant-be/pkg/credential"
)

// PooledProvider embeds with the first working key of a dedicated low-cost
// pool. A failing key moves the pool cursor so later calls start past it.
type PooledProvider struct {
	keyed  KeyedProvider
	pool   *credential.Pool
	logger logger.ILogger
}

var _ EmbeddingProvider = &PooledProvider{}

func NewPooledProvider(keyed KeyedProvider, pool *credential.Pool, log logger.ILogger) *PooledProvider {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &PooledProvider{keyed: keyed, pool: pool, logger: log}
}

func (p *PooledProvider) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	var lastErr error
	start := p.pool.Cursor()

	for i := 0; i < p.pool.Size(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		idx := (start + i) % p.pool.Size()
		values, err := p.keyed.EmbedWithKey(ctx, text, taskType, p.pool.At(idx))
		if err == nil {
			return values, nil
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}

		p.logger.Warn("EMBEDDING", "Embedding credential failed, trying next", map[string]interface{}{
			"credential_index": idx,
			"error":            err.Error(),
		})
		lastErr = err
		p.pool.Advance()
	}

	return nil, fmt.Errorf("%w: all %d credentials failed: %v", ErrEmbeddingUnavailable, p.pool.Size(), lastErr)
}
