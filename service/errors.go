package service

import (
	"errors"

	"fintrack/repository"
)

// Simulator failures. All of them are input rejections: the handler reports
// them to the caller as 400 with the wrapped message.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNonAmortizingPayment  = errors.New("payment does not cover the monthly interest")
	ErrPayoffHorizonExceeded = errors.New("payoff horizon exceeded")
)

// IsInputError reports whether err should be surfaced to the caller as a
// correctable request error.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrNonAmortizingPayment) ||
		errors.Is(err, ErrPayoffHorizonExceeded)
}

var (
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotFound           = repository.ErrNotFound
)
