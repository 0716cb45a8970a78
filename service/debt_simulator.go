package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fintrack/domain"
)

var (
	monthsPerYearPercent = decimal.NewFromInt(1200)
	maxDebtAmount        = decimal.NewFromInt(MaxDebtAmount)
	maxInterestRate      = decimal.NewFromInt(MaxInterestRate)
)

// workingScale bounds the digits carried between months. Truncating there
// keeps values small over long plans and moves nothing at the cent.
const workingScale = 20

// DebtSimulator projects how a single debt is paid off month by month.
// It holds no mutable state and is safe for concurrent use.
type DebtSimulator struct {
	Policy    PaymentPolicy
	MaxMonths int
}

func NewDebtSimulator(policy PaymentPolicy, maxMonths int) *DebtSimulator {
	if policy == nil {
		policy = PrincipalFractionPolicy{Fraction: decimal.RequireFromString(DefaultPaymentFraction)}
	}
	if maxMonths <= 0 {
		maxMonths = DefaultMaxPayoffMonths
	}
	return &DebtSimulator{Policy: policy, MaxMonths: maxMonths}
}

// Simulate runs the payoff month by month so the last, partial payment is
// handled exactly. Nothing is rounded to cents here; interest is truncated
// to workingScale digits.
func (s *DebtSimulator) Simulate(input domain.SimulationInput) (domain.SimulationResult, error) {
	if err := validateSimulationInput(input); err != nil {
		return domain.SimulationResult{}, err
	}

	rate := input.AnnualInterestRatePercent.Div(monthsPerYearPercent)

	payment := input.MonthlyPayment.Decimal
	source := domain.PaymentSourceOverride
	if !input.MonthlyPayment.Valid {
		payment = s.Policy.DefaultPayment(input.DebtAmount, rate)
		source = domain.PaymentSourceDefault
		if !payment.IsPositive() {
			return domain.SimulationResult{}, fmt.Errorf("%w: default payment policy %s produced %s",
				ErrInvalidInput, s.Policy.Name(), payment)
		}
	}

	balance := input.DebtAmount
	totalInterest := decimal.Zero
	months := 0

	var schedule []domain.ScheduleEntry
	if input.IncludeSchedule {
		schedule = make([]domain.ScheduleEntry, 0, 64)
	}

	for balance.IsPositive() {
		if months >= s.MaxMonths {
			return domain.SimulationResult{}, fmt.Errorf("%w: debt is not paid off within %d months",
				ErrPayoffHorizonExceeded, s.MaxMonths)
		}

		interest := balance.Mul(rate).Truncate(workingScale)
		if payment.LessThanOrEqual(interest) {
			return domain.SimulationResult{}, fmt.Errorf("%w: payment of %s is not above the interest of %s",
				ErrNonAmortizingPayment, payment.StringFixed(2), interest.StringFixed(2))
		}

		principal := decimal.Min(payment.Sub(interest), balance)
		balance = balance.Sub(principal)
		if balance.IsNegative() {
			balance = decimal.Zero
		}
		totalInterest = totalInterest.Add(interest)
		months++

		if input.IncludeSchedule {
			schedule = append(schedule, domain.ScheduleEntry{
				Month:     months,
				Payment:   principal.Add(interest),
				Interest:  interest,
				Principal: principal,
				Balance:   balance,
			})
		}
	}

	return domain.SimulationResult{
		Months:         months,
		TotalInterest:  totalInterest,
		MonthlyPayment: payment,
		PaymentSource:  source,
		Schedule:       schedule,
	}, nil
}

func validateSimulationInput(input domain.SimulationInput) error {
	if !input.DebtAmount.IsPositive() {
		return fmt.Errorf("%w: debt amount must be greater than zero", ErrInvalidInput)
	}
	if input.DebtAmount.GreaterThan(maxDebtAmount) {
		return fmt.Errorf("%w: debt amount exceeds the maximum of %s", ErrInvalidInput, maxDebtAmount)
	}
	if input.AnnualInterestRatePercent.IsNegative() {
		return fmt.Errorf("%w: interest rate cannot be negative", ErrInvalidInput)
	}
	if input.AnnualInterestRatePercent.GreaterThan(maxInterestRate) {
		return fmt.Errorf("%w: interest rate exceeds the maximum of %s%%", ErrInvalidInput, maxInterestRate)
	}
	if input.MonthlyPayment.Valid && !input.MonthlyPayment.Decimal.IsPositive() {
		return fmt.Errorf("%w: monthly payment must be greater than zero", ErrInvalidInput)
	}
	return nil
}
