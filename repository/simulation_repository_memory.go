package repository

import (
	"context"
	"sync"

	"fintrack/domain"
)

// SimulationRepositoryMemory keeps simulation history in memory, newest last.
type SimulationRepositoryMemory struct {
	mu     sync.RWMutex
	byUser map[string][]domain.SimulationRecord
}

var _ SimulationRepository = (*SimulationRepositoryMemory)(nil)

func NewSimulationRepositoryMemory() *SimulationRepositoryMemory {
	return &SimulationRepositoryMemory{
		byUser: make(map[string][]domain.SimulationRecord),
	}
}

func (r *SimulationRepositoryMemory) Save(_ context.Context, record domain.SimulationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byUser[record.UserID] {
		if existing.ID == record.ID {
			return ErrDuplicateKey
		}
	}
	record.Result.Schedule = nil
	r.byUser[record.UserID] = append(r.byUser[record.UserID], record)
	return nil
}

// ListByUser returns up to limit records, newest first. limit <= 0 returns all.
func (r *SimulationRepositoryMemory) ListByUser(_ context.Context, userID string, limit int) ([]domain.SimulationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := r.byUser[userID]
	n := len(records)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]domain.SimulationRecord, 0, n)
	for i := len(records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, records[i])
	}
	return out, nil
}
