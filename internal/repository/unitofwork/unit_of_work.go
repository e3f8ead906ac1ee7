package unitofwork

import (
	"context"

	"shop-assistant-be/internal/repository/contract"
)

// UnitOfWork hands out repositories bound to one database handle. Inside
// Transaction they share a single transaction.
type UnitOfWork interface {
	// Transaction runs fn in a transaction; an error from fn rolls it back.
	Transaction(ctx context.Context, fn func(tx UnitOfWork) error) error

	ConversationRepository() contract.ConversationRepository
	ProductRepository() contract.ProductRepository
	ProductEmbeddingRepository() contract.ProductEmbeddingRepository
}
