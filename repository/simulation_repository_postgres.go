package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"fintrack/domain"
)

// SimulationRepositoryPostgres stores simulation history. Total interest is
// kept to the cent; history is a display record.
type SimulationRepositoryPostgres struct {
	pool *Pool
}

var _ SimulationRepository = (*SimulationRepositoryPostgres)(nil)

func NewSimulationRepositoryPostgres(pool *Pool) *SimulationRepositoryPostgres {
	return &SimulationRepositoryPostgres{pool: pool}
}

func (r *SimulationRepositoryPostgres) Save(ctx context.Context, record domain.SimulationRecord) error {
	query := `
		INSERT INTO debt_simulations (
			id, user_id, debt_amount, interest_rate, payment_override,
			months, total_interest, monthly_payment, payment_source, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	var override *string
	if record.Input.MonthlyPayment.Valid {
		s := record.Input.MonthlyPayment.Decimal.String()
		override = &s
	}

	_, err := r.pool.Exec(ctx, query,
		record.ID,
		record.UserID,
		record.Input.DebtAmount.String(),
		record.Input.AnnualInterestRatePercent.String(),
		override,
		record.Result.Months,
		record.Result.TotalInterest.StringFixed(2),
		record.Result.MonthlyPayment.String(),
		record.Result.PaymentSource,
		record.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert debt simulation: %w", err)
	}
	return nil
}

func (r *SimulationRepositoryPostgres) ListByUser(ctx context.Context, userID string, limit int) ([]domain.SimulationRecord, error) {
	query := `
		SELECT id, user_id, debt_amount::text, interest_rate::text, payment_override::text,
		       months, total_interest::text, monthly_payment::text, payment_source, created_at
		FROM debt_simulations
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list debt simulations: %w", err)
	}
	defer rows.Close()

	out := []domain.SimulationRecord{}
	for rows.Next() {
		rec, err := scanSimulation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate debt simulations: %w", err)
	}
	return out, nil
}

func scanSimulation(row pgx.Row) (domain.SimulationRecord, error) {
	var (
		rec                           domain.SimulationRecord
		debt, rate, interest, payment string
		override                      *string
	)
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&debt,
		&rate,
		&override,
		&rec.Result.Months,
		&interest,
		&payment,
		&rec.Result.PaymentSource,
		&rec.CreatedAt,
	)
	if err != nil {
		return domain.SimulationRecord{}, fmt.Errorf("scan debt simulation: %w", err)
	}

	parsed := make([]decimal.Decimal, 4)
	for i, s := range []string{debt, rate, interest, payment} {
		if parsed[i], err = decimal.NewFromString(s); err != nil {
			return domain.SimulationRecord{}, fmt.Errorf("parse numeric %q: %w", s, err)
		}
	}
	rec.Input.DebtAmount = parsed[0]
	rec.Input.AnnualInterestRatePercent = parsed[1]
	rec.Result.TotalInterest = parsed[2]
	rec.Result.MonthlyPayment = parsed[3]

	if override != nil {
		d, err := decimal.NewFromString(*override)
		if err != nil {
			return domain.SimulationRecord{}, fmt.Errorf("parse numeric %q: %w", *override, err)
		}
		rec.Input.MonthlyPayment = decimal.NewNullDecimal(d)
	}
	return rec, nil
}
