package retriever

import (
	"context"
	"errors"
	"fmt"

	"shop-assistant-be/internal/entity"
	"shop-assistant-be/internal/pkg/logger"
	"shop-assistant-be/pkg/embedding"

	"github.com/google/uuid"
)

var ErrRetrievalUnavailable = errors.New("retrieval unavailable")

// CorpusSource supplies the active catalog: one vector per item plus the item
// details used to hydrate matches.
type CorpusSource interface {
	Documents(ctx context.Context) ([]Document, error)
	Products(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.Product, error)
}

type Retriever struct {
	embedder embedding.EmbeddingProvider
	corpus   CorpusSource
	topK     int
	minScore float64
	logger   logger.ILogger
}

func NewRetriever(embedder embedding.EmbeddingProvider, corpus CorpusSource, topK int, minScore float64, log logger.ILogger) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Retriever{
		embedder: embedder,
		corpus:   corpus,
		topK:     topK,
		minScore: minScore,
		logger:   log,
	}
}

// Retrieve returns the catalog items closest to message, best first. Any
// failure is reported as ErrRetrievalUnavailable.
func (r *Retriever) Retrieve(ctx context.Context, message string) ([]entity.RetrievedItem, error) {
	query, err := r.embedder.Embed(ctx, message, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", ErrRetrievalUnavailable, err)
	}

	docs, err := r.corpus.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load corpus: %w", ErrRetrievalUnavailable, err)
	}

	ranked, err := Retrieve(query, docs, r.topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrievalUnavailable, err)
	}

	ids := make([]uuid.UUID, 0, len(ranked))
	for _, res := range ranked {
		if res.Score < r.minScore {
			break
		}
		ids = append(ids, res.ID)
	}
	if len(ids) == 0 {
		return []entity.RetrievedItem{}, nil
	}

	products, err := r.corpus.Products(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: load products: %w", ErrRetrievalUnavailable, err)
	}

	items := make([]entity.RetrievedItem, 0, len(ids))
	for _, res := range ranked[:len(ids)] {
		product, ok := products[res.ID]
		if !ok {
			// vector outlived its product; skip until the next reindex
			continue
		}
		items = append(items, entity.NewRetrievedItem(product, res.Score))
	}

	r.logger.Debug("RETRIEVER", "Ranked catalog", map[string]interface{}{
		"corpus_size": len(docs),
		"matched":     len(items),
	})
	return items, nil
}
