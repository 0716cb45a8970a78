package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"fintrack/domain"
	"fintrack/service"
)

type simulateOptions struct {
	debt     string
	rate     string
	payment  string
	schedule bool
	plain    bool
	style    string
}

func newSimulateCommand(load configLoader) *cobra.Command {
	var opts simulateOptions

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Project the payoff of a single debt",
		Example: `  fintrack simulate --debt 5000 --rate 18 --payment 200
  fintrack simulate --debt 5000 --rate 18 --schedule`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			simulator, err := newSimulator(cfg.Simulation)
			if err != nil {
				return err
			}
			return runSimulate(cmd.OutOrStdout(), simulator, cfg.Simulation.Currency, opts)
		},
	}

	cmd.Flags().StringVar(&opts.debt, "debt", "", "outstanding balance (required)")
	_ = cmd.MarkFlagRequired("debt")
	cmd.Flags().StringVar(&opts.rate, "rate", "", "annual interest rate in percent (required)")
	_ = cmd.MarkFlagRequired("rate")
	cmd.Flags().StringVar(&opts.payment, "payment", "", "monthly payment (default from the configured policy)")
	cmd.Flags().BoolVar(&opts.schedule, "schedule", false, "include the month-by-month schedule")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "print raw markdown instead of rendering it")
	cmd.Flags().StringVar(&opts.style, "style", "auto", "glamour style (auto, dark, light, notty)")

	return cmd
}

func parseSimulateOptions(opts simulateOptions) (domain.SimulationInput, error) {
	debt, err := decimal.NewFromString(opts.debt)
	if err != nil {
		return domain.SimulationInput{}, fmt.Errorf("parsing --debt: %w", err)
	}
	rate, err := decimal.NewFromString(opts.rate)
	if err != nil {
		return domain.SimulationInput{}, fmt.Errorf("parsing --rate: %w", err)
	}

	input := domain.SimulationInput{
		DebtAmount:                debt,
		AnnualInterestRatePercent: rate,
		IncludeSchedule:           opts.schedule,
	}
	if opts.payment != "" {
		payment, err := decimal.NewFromString(opts.payment)
		if err != nil {
			return domain.SimulationInput{}, fmt.Errorf("parsing --payment: %w", err)
		}
		input.MonthlyPayment = decimal.NewNullDecimal(payment)
	}
	return input, nil
}

func runSimulate(w io.Writer, simulator *service.DebtSimulator, currency string, opts simulateOptions) error {
	input, err := parseSimulateOptions(opts)
	if err != nil {
		return err
	}
	result, err := simulator.Simulate(input)
	if err != nil {
		return err
	}

	md := simulationMarkdown(input, result, currency)
	if opts.plain {
		_, err := io.WriteString(w, md)
		return err
	}

	renderer, err := newRenderer(opts.style)
	if err != nil {
		return err
	}
	out, err := renderer.Render(md)
	if err != nil {
		return fmt.Errorf("rendering markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

func newRenderer(style string) (*glamour.TermRenderer, error) {
	styleOpt := glamour.WithAutoStyle()
	if style != "" && style != "auto" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(100))
	if err != nil {
		return nil, fmt.Errorf("creating renderer: %w", err)
	}
	return r, nil
}

// simulationMarkdown lays a result out as a summary table, the narration and
// (when present) the schedule.
func simulationMarkdown(input domain.SimulationInput, result domain.SimulationResult, currency string) string {
	var b strings.Builder

	b.WriteString("# Debt payoff plan\n\n")
	b.WriteString("| Item | Value |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Debt | %s |\n", service.FormatMoney(input.DebtAmount, currency))
	fmt.Fprintf(&b, "| Annual rate | %s%% |\n", input.AnnualInterestRatePercent)
	fmt.Fprintf(&b, "| Monthly payment | %s (%s) |\n", service.FormatMoney(result.MonthlyPayment, currency), result.PaymentSource)
	fmt.Fprintf(&b, "| Months to payoff | %d |\n", result.Months)
	fmt.Fprintf(&b, "| Total interest | %s |\n", service.FormatMoney(result.TotalInterest, currency))
	fmt.Fprintf(&b, "| Total paid | %s |\n\n", service.FormatMoney(input.DebtAmount.Add(result.TotalInterest), currency))

	b.WriteString(service.Narrate(input, result, currency))
	b.WriteString("\n")

	if len(result.Schedule) == 0 {
		return b.String()
	}

	b.WriteString("\n## Schedule\n\n")
	b.WriteString("| Month | Payment | Interest | Principal | Balance |\n|---:|---:|---:|---:|---:|\n")
	for _, e := range result.Schedule {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
			e.Month, e.Payment.StringFixed(2), e.Interest.StringFixed(2), e.Principal.StringFixed(2), e.Balance.StringFixed(2))
	}
	return b.String()
}
