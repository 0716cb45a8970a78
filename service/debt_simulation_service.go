package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"fintrack/domain"
	"fintrack/observability"
	"fintrack/repository"
)

type DebtSimulationService struct {
	simulator *DebtSimulator
	repo      repository.SimulationRepository
	cache     repository.CacheRepository
	cacheTTL  time.Duration
	metrics   *observability.Metrics
	now       func() time.Time
}

// NewDebtSimulationService wires the simulator to its history store and
// result cache. metrics may be nil.
func NewDebtSimulationService(
	simulator *DebtSimulator,
	repo repository.SimulationRepository,
	cache repository.CacheRepository,
	cacheTTL time.Duration,
	metrics *observability.Metrics,
) *DebtSimulationService {
	return &DebtSimulationService{
		simulator: simulator,
		repo:      repo,
		cache:     cache,
		cacheTTL:  cacheTTL,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Simulate runs (or replays from cache) the payoff projection and records it
// in the user's history.
func (s *DebtSimulationService) Simulate(
	ctx context.Context,
	userID string,
	input domain.SimulationInput,
) (domain.SimulationResult, error) {
	key := s.cacheKey(input)

	result, ok := s.lookup(ctx, key)
	if !ok {
		var err error
		result, err = s.simulator.Simulate(input)
		if err != nil {
			s.countOutcome(err)
			return domain.SimulationResult{}, err
		}
		s.store(ctx, key, result)
	}
	s.countOutcome(nil)
	if s.metrics != nil {
		s.metrics.SimulationMonths.Observe(float64(result.Months))
	}

	record := domain.SimulationRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Input:     input,
		Result:    result,
		CreatedAt: s.now().UTC(),
	}
	// History is best effort; a failed save does not fail the simulation.
	if err := s.repo.Save(ctx, record); err != nil {
		log.Printf("Warning: failed to save debt simulation for user %s: %v", userID, err)
	}

	return result, nil
}

// History returns the user's most recent simulations, newest first.
func (s *DebtSimulationService) History(ctx context.Context, userID string, limit int) ([]domain.SimulationRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	records, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list simulation history: %w", err)
	}
	return records, nil
}

// cacheKey hashes every value the result depends on, including the
// simulator's own settings.
func (s *DebtSimulationService) cacheKey(input domain.SimulationInput) string {
	payment := "-"
	if input.MonthlyPayment.Valid {
		payment = input.MonthlyPayment.Decimal.String()
	}
	canonical := fmt.Sprintf("%s|%s|%s|%t|%s|%v|%d",
		input.DebtAmount.String(),
		input.AnnualInterestRatePercent.String(),
		payment,
		input.IncludeSchedule,
		s.simulator.Policy.Name(),
		s.simulator.Policy,
		s.simulator.MaxMonths,
	)
	return "debt-sim:" + strconv.FormatUint(xxhash.Sum64String(canonical), 16)
}

func (s *DebtSimulationService) lookup(ctx context.Context, key string) (domain.SimulationResult, bool) {
	if s.cache == nil {
		return domain.SimulationResult{}, false
	}
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Printf("Warning: simulation cache lookup failed: %v", err)
		s.countCache("error")
		return domain.SimulationResult{}, false
	}
	if !ok {
		s.countCache("miss")
		return domain.SimulationResult{}, false
	}

	var result domain.SimulationResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		log.Printf("Warning: discarding unreadable cached simulation %s: %v", key, err)
		s.countCache("error")
		return domain.SimulationResult{}, false
	}
	s.countCache("hit")
	return result, true
}

func (s *DebtSimulationService) store(ctx context.Context, key string, result domain.SimulationResult) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		log.Printf("Warning: failed to encode simulation for cache: %v", err)
		return
	}
	if err := s.cache.Set(ctx, key, string(data), s.cacheTTL); err != nil {
		log.Printf("Warning: failed to cache simulation: %v", err)
	}
}

func (s *DebtSimulationService) countCache(result string) {
	if s.metrics != nil {
		s.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}

func (s *DebtSimulationService) countOutcome(err error) {
	if s.metrics != nil {
		s.metrics.SimulationsTotal.WithLabelValues(SimulationOutcome(err)).Inc()
	}
}

// SimulationOutcome maps a simulator error to its metrics label.
func SimulationOutcome(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeOK
	case errors.Is(err, ErrInvalidInput):
		return observability.OutcomeInvalid
	case errors.Is(err, ErrNonAmortizingPayment):
		return observability.OutcomeNonAmortizing
	case errors.Is(err, ErrPayoffHorizonExceeded):
		return observability.OutcomeHorizon
	default:
		return observability.OutcomeError
	}
}
