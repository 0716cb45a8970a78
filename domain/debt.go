package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment sources reported in SimulationResult.PaymentSource.
const (
	PaymentSourceOverride = "override"
	PaymentSourceDefault  = "default"
)

type SimulationInput struct {
	DebtAmount                decimal.Decimal
	AnnualInterestRatePercent decimal.Decimal
	MonthlyPayment            decimal.NullDecimal // Valid=false lets the default policy pick one
	IncludeSchedule           bool
}

type ScheduleEntry struct {
	Month     int
	Payment   decimal.Decimal
	Interest  decimal.Decimal
	Principal decimal.Decimal
	Balance   decimal.Decimal
}

// SimulationResult is the payoff projection. Values are unrounded; callers
// round at presentation time.
type SimulationResult struct {
	Months         int
	TotalInterest  decimal.Decimal
	MonthlyPayment decimal.Decimal
	PaymentSource  string
	Schedule       []ScheduleEntry
}

// SimulationRecord is one stored run of the simulator for a user.
type SimulationRecord struct {
	ID        string
	UserID    string
	Input     SimulationInput
	Result    SimulationResult
	CreatedAt time.Time
}
