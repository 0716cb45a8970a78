package service

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"fintrack/domain"
)

const DefaultCurrency = "LKR"

// FormatMoney renders an amount as "<CODE> 1,234.56" using the currency's
// fraction digits and separators. Unknown codes fall back to USD.
func FormatMoney(amount decimal.Decimal, code string) string {
	code = strings.ToUpper(code)
	cur := money.GetCurrency(code)
	if cur == nil {
		code = money.USD
		cur = money.GetCurrency(code)
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	f := money.NewFormatter(cur.Fraction, cur.Decimal, cur.Thousand, code+" ", "$1")
	return f.Format(minor)
}

// Narrate builds the sentence the dashboard reads out through speech synthesis.
func Narrate(input domain.SimulationInput, result domain.SimulationResult, currency string) string {
	years := decimal.NewFromInt(int64(result.Months)).Div(decimal.NewFromInt(12)).StringFixed(1)

	var b strings.Builder
	fmt.Fprintf(&b, "Your total debt is %s at an annual rate of %s%%. ",
		FormatMoney(input.DebtAmount, currency), input.AnnualInterestRatePercent.String())
	fmt.Fprintf(&b, "Based on the simulation, it will take %d %s (%s years) to pay off your debt. ",
		result.Months, pluralMonths(result.Months), years)
	fmt.Fprintf(&b, "Total interest paid will be %s. ", FormatMoney(result.TotalInterest, currency))
	fmt.Fprintf(&b, "Monthly payment is %s.", FormatMoney(result.MonthlyPayment, currency))
	return b.String()
}

func pluralMonths(n int) string {
	if n == 1 {
		return "month"
	}
	return "months"
}
