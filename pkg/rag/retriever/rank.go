package retriever

import (
	"errors"
	"math"
	"sort"

	"github.com/google/uuid"
)

var (
	ErrInvalidK          = errors.New("k must not be negative")
	ErrDimensionMismatch = errors.New("corpus vector dimension differs from query")
)

// Document is one catalog item's vector as seen by ranking.
type Document struct {
	ID     uuid.UUID
	Vector []float32
}

type Result struct {
	ID    uuid.UUID
	Score float64
}

// Cosine returns dot(a,b)/(|a||b|). It is 0 when either vector has zero norm
// or the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Retrieve scores every document against query and returns the best min(k, n)
// by descending similarity. Equal scores keep corpus order.
func Retrieve(query []float32, corpus []Document, k int) ([]Result, error) {
	if k < 0 {
		return nil, ErrInvalidK
	}
	if len(corpus) == 0 || k == 0 {
		return []Result{}, nil
	}

	results := make([]Result, len(corpus))
	for i, doc := range corpus {
		if len(doc.Vector) != len(query) {
			return nil, ErrDimensionMismatch
		}
		results[i] = Result{ID: doc.ID, Score: Cosine(query, doc.Vector)}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}
