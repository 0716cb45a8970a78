package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fintrack/domain"
)

type UserRepositoryPostgres struct {
	pool *Pool
}

var _ UserRepository = (*UserRepositoryPostgres)(nil)

func NewUserRepositoryPostgres(pool *Pool) *UserRepositoryPostgres {
	return &UserRepositoryPostgres{pool: pool}
}

func (r *UserRepositoryPostgres) Create(ctx context.Context, user domain.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.pool.Exec(ctx, query, user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepositoryPostgres) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	query := `SELECT id, name, email, password_hash, created_at FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

func (r *UserRepositoryPostgres) GetByID(ctx context.Context, id string) (domain.User, error) {
	query := `SELECT id, name, email, password_hash, created_at FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *UserRepositoryPostgres) getOne(ctx context.Context, query string, arg string) (domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if isNotFoundError(err) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}
