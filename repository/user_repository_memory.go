package repository

import (
	"context"
	"sync"

	"fintrack/domain"
)

type UserRepositoryMemory struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string // email -> id
}

var _ UserRepository = (*UserRepositoryMemory)(nil)

func NewUserRepositoryMemory() *UserRepositoryMemory {
	return &UserRepositoryMemory{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

func (r *UserRepositoryMemory) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[user.ID]; exists {
		return ErrDuplicateKey
	}
	if _, exists := r.byEmail[user.Email]; exists {
		return ErrDuplicateKey
	}
	r.byID[user.ID] = user
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *UserRepositoryMemory) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *UserRepositoryMemory) GetByID(_ context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return user, nil
}
