package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fintrack/domain"
)

type TransactionRepositoryPostgres struct {
	pool *Pool
}

var _ TransactionRepository = (*TransactionRepositoryPostgres)(nil)

func NewTransactionRepositoryPostgres(pool *Pool) *TransactionRepositoryPostgres {
	return &TransactionRepositoryPostgres{pool: pool}
}

const transactionColumns = `id, user_id, kind, title, amount, category, occurred_at, description, created_at, updated_at`

func (r *TransactionRepositoryPostgres) Create(ctx context.Context, tx domain.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.pool.Exec(ctx, query,
		tx.ID,
		tx.UserID,
		string(tx.Kind),
		tx.Title,
		tx.Amount,
		tx.Category,
		tx.Date,
		tx.Description,
		tx.CreatedAt,
		tx.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *TransactionRepositoryPostgres) Get(ctx context.Context, userID, id string) (domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 AND user_id = $2`

	tx, err := scanTransaction(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if isNotFoundError(err) {
			return domain.Transaction{}, ErrNotFound
		}
		return domain.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (r *TransactionRepositoryPostgres) List(ctx context.Context, userID string, kind domain.TransactionKind) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND kind = $2
		ORDER BY occurred_at DESC, id ASC
	`
	rows, err := r.pool.Query(ctx, query, userID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := []domain.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *TransactionRepositoryPostgres) Update(ctx context.Context, tx domain.Transaction) error {
	query := `
		UPDATE transactions
		SET title = $3, amount = $4, category = $5, occurred_at = $6, description = $7, updated_at = $8
		WHERE id = $1 AND user_id = $2
	`
	tag, err := r.pool.Exec(ctx, query,
		tx.ID, tx.UserID, tx.Title, tx.Amount, tx.Category, tx.Date, tx.Description, tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TransactionRepositoryPostgres) Delete(ctx context.Context, userID, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTransaction(row pgx.Row) (domain.Transaction, error) {
	var (
		tx   domain.Transaction
		kind string
	)
	err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&kind,
		&tx.Title,
		&tx.Amount,
		&tx.Category,
		&tx.Date,
		&tx.Description,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		return domain.Transaction{}, err
	}
	tx.Kind = domain.TransactionKind(kind)
	return tx, nil
}
