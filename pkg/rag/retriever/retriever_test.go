package retriever

import (
	"context"
	"errors"
	"testing"

	"shop-assistant-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return f.vector, f.err
}

type fakeCorpus struct {
	docs        []Document
	products    map[uuid.UUID]*entity.Product
	docsErr     error
	productsErr error
}

func (f *fakeCorpus) Documents(ctx context.Context) ([]Document, error) {
	return f.docs, f.docsErr
}

func (f *fakeCorpus) Products(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.Product, error) {
	if f.productsErr != nil {
		return nil, f.productsErr
	}
	out := make(map[uuid.UUID]*entity.Product)
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func newCorpus() (*fakeCorpus, []*entity.Product) {
	products := []*entity.Product{
		{Id: uuid.New(), Name: "Trail Runner", Price: 89.9, Category: "shoes", Slug: "trail-runner"},
		{Id: uuid.New(), Name: "Rain Jacket", Price: 120, Category: "outerwear", Slug: "rain-jacket"},
		{Id: uuid.New(), Name: "", Price: 5, Slug: "mystery"},
	}
	corpus := &fakeCorpus{
		docs: []Document{
			{ID: products[0].Id, Vector: []float32{1, 0}},
			{ID: products[1].Id, Vector: []float32{0, 1}},
			{ID: products[2].Id, Vector: []float32{0.7, 0.7}},
		},
		products: map[uuid.UUID]*entity.Product{},
	}
	for _, p := range products {
		corpus.products[p.Id] = p
	}
	return corpus, products
}

func TestRetriever_HydratesRankedItems(t *testing.T) {
	corpus, products := newCorpus()
	r := NewRetriever(&fakeEmbedder{vector: []float32{1, 0}}, corpus, 2, 0, nil)

	items, err := r.Retrieve(context.Background(), "running shoes")
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, products[0].Id, items[0].ProductId)
	assert.Equal(t, "Trail Runner", items[0].Name)
	assert.Equal(t, products[2].Id, items[1].ProductId)
	assert.Equal(t, "Unnamed product", items[1].Name)
	assert.Equal(t, "general", items[1].Category)
	assert.NotNil(t, items[1].KeyPoints)
}

func TestRetriever_AppliesMinScore(t *testing.T) {
	corpus, products := newCorpus()
	r := NewRetriever(&fakeEmbedder{vector: []float32{1, 0}}, corpus, 3, 0.9, nil)

	items, err := r.Retrieve(context.Background(), "running shoes")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, products[0].Id, items[0].ProductId)
}

func TestRetriever_SkipsMissingProducts(t *testing.T) {
	corpus, products := newCorpus()
	delete(corpus.products, products[0].Id)
	r := NewRetriever(&fakeEmbedder{vector: []float32{1, 0}}, corpus, 2, 0, nil)

	items, err := r.Retrieve(context.Background(), "running shoes")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, products[2].Id, items[0].ProductId)
}

func TestRetriever_EmptyCorpus(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{vector: []float32{1, 0}}, &fakeCorpus{}, 5, 0, nil)

	items, err := r.Retrieve(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRetriever_FailuresAreUnavailable(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name     string
		embedder *fakeEmbedder
		mutate   func(c *fakeCorpus)
	}{
		{name: "embedding", embedder: &fakeEmbedder{err: boom}},
		{name: "corpus", embedder: &fakeEmbedder{vector: []float32{1, 0}}, mutate: func(c *fakeCorpus) { c.docsErr = boom }},
		{name: "products", embedder: &fakeEmbedder{vector: []float32{1, 0}}, mutate: func(c *fakeCorpus) { c.productsErr = boom }},
		{name: "dimension", embedder: &fakeEmbedder{vector: []float32{1, 0, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			corpus, _ := newCorpus()
			if tt.mutate != nil {
				tt.mutate(corpus)
			}
			r := NewRetriever(tt.embedder, corpus, 2, 0, nil)

			items, err := r.Retrieve(context.Background(), "q")
			assert.Nil(t, items)
			assert.ErrorIs(t, err, ErrRetrievalUnavailable)
		})
	}
}
