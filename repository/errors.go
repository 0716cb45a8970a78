package repository

import "errors"

var (
	// ErrNotFound is returned when a record does not exist or belongs to another user.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a unique field (user email, record id) already exists.
	ErrDuplicateKey = errors.New("duplicate key")
)
