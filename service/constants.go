package service

const (
	MaxDebtAmount   = 100_000_000
	MaxInterestRate = 1000 // percent per year

	// DefaultMaxPayoffMonths caps the simulation at 100 years of payments.
	DefaultMaxPayoffMonths = 1200

	DefaultPaymentFraction = "0.05"
	DefaultPaymentTerm     = 36

	MaxTransactionAmount = 1_000_000_000.0
	DefaultCategory      = "Other"
	DefaultHistoryLimit  = 20
	MaxHistoryLimit      = 100
)
