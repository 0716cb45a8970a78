package repository

import (
	"context"

	"fintrack/domain"
)

type SimulationRepository interface {
	Save(ctx context.Context, record domain.SimulationRecord) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.SimulationRecord, error)
}
