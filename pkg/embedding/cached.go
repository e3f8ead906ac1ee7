package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"shop-assistant-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// CachedProvider memoises embeddings in Redis. Shoppers repeat the same
// questions a lot, so query vectors are worth keeping around. Redis problems
// are logged and bypassed.
type CachedProvider struct {
	inner  EmbeddingProvider
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger logger.ILogger
}

var _ EmbeddingProvider = &CachedProvider{}

func NewCachedProvider(inner EmbeddingProvider, rdb redis.UniversalClient, ttl time.Duration, log logger.ILogger) *CachedProvider {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &CachedProvider{inner: inner, rdb: rdb, ttl: ttl, logger: log}
}

func cacheKey(text, taskType string) string {
	sum := sha256.Sum256([]byte(taskType + "\x00" + text))
	return "embedding:" + hex.EncodeToString(sum[:])
}

func (c *CachedProvider) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if c.rdb == nil {
		return c.inner.Embed(ctx, text, taskType)
	}

	key := cacheKey(text, taskType)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var values []float32
		if jsonErr := json.Unmarshal(raw, &values); jsonErr == nil && len(values) > 0 {
			return values, nil
		}
		c.logger.Warn("EMBEDDING", "Discarding corrupt cached embedding", map[string]interface{}{"key": key})
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("EMBEDDING", "Embedding cache read failed", map[string]interface{}{"error": err.Error()})
	}

	values, err := c.inner.Embed(ctx, text, taskType)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(values); err == nil {
		if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("EMBEDDING", "Embedding cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}

	return values, nil
}
