package embedding

import (
	"context"
	"errors"
)

const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

var ErrEmbeddingUnavailable = errors.New("embedding unavailable")

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, error)
}

// KeyedProvider is a remote embedding backend that needs an API key per call.
// PooledProvider turns it into an EmbeddingProvider.
type KeyedProvider interface {
	EmbedWithKey(ctx context.Context, text, taskType, apiKey string) ([]float32, error)
}
