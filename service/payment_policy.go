package service

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	PolicyPrincipalFraction = "principal_fraction"
	PolicyFixedTerm         = "fixed_term"
)

// PaymentPolicy picks the monthly payment when the caller does not supply one.
// Payments are rounded up to the cent.
type PaymentPolicy interface {
	Name() string
	DefaultPayment(principal, monthlyRate decimal.Decimal) decimal.Decimal
}

// PrincipalFractionPolicy pays a fixed share of the original principal every month.
type PrincipalFractionPolicy struct {
	Fraction decimal.Decimal
}

func (p PrincipalFractionPolicy) Name() string { return PolicyPrincipalFraction }

func (p PrincipalFractionPolicy) DefaultPayment(principal, _ decimal.Decimal) decimal.Decimal {
	return principal.Mul(p.Fraction).RoundCeil(2)
}

// FixedTermPolicy pays the level installment that retires the debt in TermMonths.
type FixedTermPolicy struct {
	TermMonths int
}

func (p FixedTermPolicy) Name() string { return PolicyFixedTerm }

func (p FixedTermPolicy) DefaultPayment(principal, monthlyRate decimal.Decimal) decimal.Decimal {
	n := decimal.NewFromInt(int64(p.TermMonths))
	if monthlyRate.IsZero() {
		return principal.Div(n).RoundCeil(2)
	}

	// payment = P * r * (1+r)^n / ((1+r)^n - 1)
	factor := decimal.NewFromInt(1).Add(monthlyRate).Pow(n)
	payment := principal.Mul(monthlyRate).Mul(factor).Div(factor.Sub(decimal.NewFromInt(1)))
	return payment.RoundCeil(2)
}

// NewPaymentPolicy builds the policy named in configuration.
func NewPaymentPolicy(name string, fraction float64, termMonths int) (PaymentPolicy, error) {
	switch name {
	case "", PolicyPrincipalFraction:
		f := decimal.RequireFromString(DefaultPaymentFraction)
		if fraction != 0 {
			f = decimal.NewFromFloat(fraction)
		}
		if !f.IsPositive() || f.GreaterThan(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("payment fraction must be in (0, 1], got %s", f)
		}
		return PrincipalFractionPolicy{Fraction: f}, nil
	case PolicyFixedTerm:
		if termMonths == 0 {
			termMonths = DefaultPaymentTerm
		}
		if termMonths < 1 {
			return nil, fmt.Errorf("payment term must be at least 1 month, got %d", termMonths)
		}
		return FixedTermPolicy{TermMonths: termMonths}, nil
	default:
		return nil, fmt.Errorf("unknown payment policy %q", name)
	}
}
