package repository

import (
	"context"

	"fintrack/domain"
)

// TransactionRepository persists income and expense records. Every lookup is
// scoped to the owning user; records of other users read as ErrNotFound.
type TransactionRepository interface {
	Create(ctx context.Context, tx domain.Transaction) error
	Get(ctx context.Context, userID, id string) (domain.Transaction, error)
	List(ctx context.Context, userID string, kind domain.TransactionKind) ([]domain.Transaction, error)
	Update(ctx context.Context, tx domain.Transaction) error
	Delete(ctx context.Context, userID, id string) error
}
