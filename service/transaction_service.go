package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/domain"
	"fintrack/repository"
)

// TransactionInput carries the editable fields of an income or expense.
type TransactionInput struct {
	Title       string     `json:"title"`
	Amount      float64    `json:"amount"`
	Category    string     `json:"category"`
	Date        *time.Time `json:"date,omitempty"`
	Description string     `json:"description,omitempty"`
}

type TransactionService struct {
	repo repository.TransactionRepository
	now  func() time.Time
}

func NewTransactionService(repo repository.TransactionRepository) *TransactionService {
	return &TransactionService{repo: repo, now: time.Now}
}

func (s *TransactionService) Create(
	ctx context.Context,
	userID string,
	kind domain.TransactionKind,
	input TransactionInput,
) (domain.Transaction, error) {
	if err := validateTransaction(kind, input); err != nil {
		return domain.Transaction{}, err
	}

	now := s.now().UTC()
	tx := domain.Transaction{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		CreatedAt: now,
	}
	s.apply(&tx, input, now)

	if err := s.repo.Create(ctx, tx); err != nil {
		return domain.Transaction{}, fmt.Errorf("create %s: %w", kind, err)
	}
	return tx, nil
}

func (s *TransactionService) List(ctx context.Context, userID string, kind domain.TransactionKind) ([]domain.Transaction, error) {
	list, err := s.repo.List(ctx, userID, kind)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return list, nil
}

func (s *TransactionService) Update(
	ctx context.Context,
	userID string,
	kind domain.TransactionKind,
	id string,
	input TransactionInput,
) (domain.Transaction, error) {
	if err := validateTransaction(kind, input); err != nil {
		return domain.Transaction{}, err
	}

	tx, err := s.get(ctx, userID, kind, id)
	if err != nil {
		return domain.Transaction{}, err
	}
	s.apply(&tx, input, s.now().UTC())

	if err := s.repo.Update(ctx, tx); err != nil {
		return domain.Transaction{}, fmt.Errorf("update %s: %w", kind, err)
	}
	return tx, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID string, kind domain.TransactionKind, id string) error {
	if _, err := s.get(ctx, userID, kind, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	return nil
}

// Summary totals the user's records per category, largest first.
func (s *TransactionService) Summary(ctx context.Context, userID string, kind domain.TransactionKind) ([]domain.CategoryTotal, error) {
	list, err := s.List(ctx, userID, kind)
	if err != nil {
		return nil, err
	}

	totals := map[string]decimal.Decimal{}
	counts := map[string]int{}
	for _, tx := range list {
		totals[tx.Category] = totals[tx.Category].Add(decimal.NewFromFloat(tx.Amount))
		counts[tx.Category]++
	}

	out := make([]domain.CategoryTotal, 0, len(totals))
	for category, total := range totals {
		out = append(out, domain.CategoryTotal{
			Category: category,
			Total:    total.Round(2).InexactFloat64(),
			Count:    counts[category],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total == out[j].Total {
			return out[i].Category < out[j].Category
		}
		return out[i].Total > out[j].Total
	})
	return out, nil
}

// get loads a record and hides records of the other kind behind ErrNotFound.
func (s *TransactionService) get(ctx context.Context, userID string, kind domain.TransactionKind, id string) (domain.Transaction, error) {
	tx, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("get %s %s: %w", kind, id, err)
	}
	if tx.Kind != kind {
		return domain.Transaction{}, fmt.Errorf("get %s %s: %w", kind, id, ErrNotFound)
	}
	return tx, nil
}

func (s *TransactionService) apply(tx *domain.Transaction, input TransactionInput, now time.Time) {
	tx.Title = strings.TrimSpace(input.Title)
	tx.Amount = decimal.NewFromFloat(input.Amount).Round(2).InexactFloat64()
	tx.Category = strings.TrimSpace(input.Category)
	if tx.Category == "" {
		tx.Category = DefaultCategory
	}
	if input.Date != nil {
		tx.Date = input.Date.UTC()
	} else if tx.Date.IsZero() {
		tx.Date = now
	}
	tx.Description = strings.TrimSpace(input.Description)
	tx.UpdatedAt = now
}

func validateTransaction(kind domain.TransactionKind, input TransactionInput) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown record kind %q", ErrInvalidInput, kind)
	}
	if strings.TrimSpace(input.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if decimal.NewFromFloat(input.Amount).Round(2).Sign() <= 0 {
		return fmt.Errorf("%w: amount must be at least 0.01", ErrInvalidInput)
	}
	if input.Amount > MaxTransactionAmount {
		return fmt.Errorf("%w: amount exceeds the maximum of %.2f", ErrInvalidInput, MaxTransactionAmount)
	}
	return nil
}
