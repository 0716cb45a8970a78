package repository

import (
	"context"
	"sort"
	"sync"

	"fintrack/domain"
)

type TransactionRepositoryMemory struct {
	mu   sync.RWMutex
	data map[string]domain.Transaction // keyed by id
}

var _ TransactionRepository = (*TransactionRepositoryMemory)(nil)

func NewTransactionRepositoryMemory() *TransactionRepositoryMemory {
	return &TransactionRepositoryMemory{
		data: make(map[string]domain.Transaction),
	}
}

func (r *TransactionRepositoryMemory) Create(_ context.Context, tx domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[tx.ID]; exists {
		return ErrDuplicateKey
	}
	r.data[tx.ID] = tx
	return nil
}

func (r *TransactionRepositoryMemory) Get(_ context.Context, userID, id string) (domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, ok := r.data[id]
	if !ok || tx.UserID != userID {
		return domain.Transaction{}, ErrNotFound
	}
	return tx, nil
}

// List returns the user's records of the given kind, most recent date first.
func (r *TransactionRepositoryMemory) List(_ context.Context, userID string, kind domain.TransactionKind) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Transaction{}
	for _, tx := range r.data {
		if tx.UserID == userID && tx.Kind == kind {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID < out[j].ID
		}
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (r *TransactionRepositoryMemory) Update(_ context.Context, tx domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.data[tx.ID]
	if !ok || existing.UserID != tx.UserID {
		return ErrNotFound
	}
	r.data[tx.ID] = tx
	return nil
}

func (r *TransactionRepositoryMemory) Delete(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.data[id]
	if !ok || existing.UserID != userID {
		return ErrNotFound
	}
	delete(r.data, id)
	return nil
}
