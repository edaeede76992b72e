package unitofwork

import (
	"context"

	"idea-clustering-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	IdeaRepository() contract.IdeaRepository
	TopicRepository() contract.TopicRepository
}

// RepositoryFactory hands out short-lived units of work, one per request
// or pipeline step.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
