package contract

import (
	"context"

	"shop-assistant-be/internal/entity"
	"shop-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ProductRepository interface {
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Product, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Product, error)
	FindByIds(ctx context.Context, ids []uuid.UUID) ([]*entity.Product, error)
}

type ProductEmbeddingRepository interface {
	// FindAllActive returns the vectors of every active, non-deleted product.
	FindAllActive(ctx context.Context) ([]*entity.ProductEmbedding, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ProductEmbedding, error)
	// ReplaceForProduct drops any existing vector of the product and stores the new one.
	ReplaceForProduct(ctx context.Context, embedding *entity.ProductEmbedding) error
}
