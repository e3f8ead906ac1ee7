package memory

import (
	"context"
	"sync"
	"time"

	"shop-assistant-be/internal/entity"
	"shop-assistant-be/internal/repository/contract"
	"shop-assistant-be/internal/repository/specification"
	"shop-assistant-be/pkg/rag/retriever"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const corpusKey = "active_corpus"

type corpusSnapshot struct {
	documents []retriever.Document
	products  map[uuid.UUID]*entity.Product
}

// CorpusCache keeps a snapshot of the active catalog and its vectors in
// process memory. The snapshot is reloaded after the TTL or after Invalidate.
type CorpusCache struct {
	cache      *cache.Cache
	products   contract.ProductRepository
	embeddings contract.ProductEmbeddingRepository
	mu         sync.Mutex // one loader at a time
}

var _ retriever.CorpusSource = &CorpusCache{}

func NewCorpusCache(products contract.ProductRepository, embeddings contract.ProductEmbeddingRepository, ttl time.Duration) *CorpusCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CorpusCache{
		cache:      cache.New(ttl, 2*ttl),
		products:   products,
		embeddings: embeddings,
	}
}

func (c *CorpusCache) Documents(ctx context.Context) ([]retriever.Document, error) {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.documents, nil
}

func (c *CorpusCache) Products(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.Product, error) {
	snap, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*entity.Product, len(ids))
	for _, id := range ids {
		if p, ok := snap.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (c *CorpusCache) Invalidate() {
	c.cache.Delete(corpusKey)
}

func (c *CorpusCache) snapshot(ctx context.Context) (*corpusSnapshot, error) {
	if x, found := c.cache.Get(corpusKey); found {
		return x.(*corpusSnapshot), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if x, found := c.cache.Get(corpusKey); found {
		return x.(*corpusSnapshot), nil
	}

	products, err := c.products.FindAll(ctx, specification.ActiveOnly{})
	if err != nil {
		return nil, err
	}
	embeddings, err := c.embeddings.FindAllActive(ctx)
	if err != nil {
		return nil, err
	}

	snap := &corpusSnapshot{
		documents: make([]retriever.Document, 0, len(embeddings)),
		products:  make(map[uuid.UUID]*entity.Product, len(products)),
	}
	for _, p := range products {
		snap.products[p.Id] = p
	}
	for _, e := range embeddings {
		if _, ok := snap.products[e.ProductId]; !ok {
			continue
		}
		snap.documents = append(snap.documents, retriever.Document{ID: e.ProductId, Vector: e.EmbeddingValue})
	}

	c.cache.Set(corpusKey, snap, cache.DefaultExpiration)
	return snap, nil
}
