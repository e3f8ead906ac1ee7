package entity

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog item as supplied by the catalog source. Read-only here.
type Product struct {
	Id          uuid.UUID
	Name        string
	Price       float64
	Category    string
	Description string
	KeyPoints   []string
	Slug        string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// ProductEmbedding is the vector of one product's source text. Vectors are
// replaced wholesale when the text changes, never patched.
type ProductEmbedding struct {
	Id             uuid.UUID
	ProductId      uuid.UUID
	Document       string
	EmbeddingValue []float32
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

// RetrievedItem is what prompt assembly sees of a matched product. Optional
// catalog fields are defaulted when it is built, never downstream.
type RetrievedItem struct {
	ProductId   uuid.UUID
	Name        string
	Price       float64
	Category    string
	Description string
	KeyPoints   []string
	Slug        string
	Score       float64
}

// NewRetrievedItem builds a RetrievedItem from a product and its score.
func NewRetrievedItem(p *Product, score float64) RetrievedItem {
	item := RetrievedItem{
		ProductId:   p.Id,
		Name:        p.Name,
		Price:       p.Price,
		Category:    p.Category,
		Description: p.Description,
		KeyPoints:   p.KeyPoints,
		Slug:        p.Slug,
		Score:       score,
	}
	if item.Name == "" {
		item.Name = "Unnamed product"
	}
	if item.Category == "" {
		item.Category = "general"
	}
	if item.KeyPoints == nil {
		item.KeyPoints = []string{}
	}
	return item
}
