package unitofwork

import "context"

// RepositoryFactory creates a UnitOfWork per operation.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
