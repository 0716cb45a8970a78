package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/buildinfo"
	"fintrack/config"
	"fintrack/service"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "fintrack",
		Short:   "Personal finance API with a debt payoff simulator",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to fintrack.yaml (defaults are used when empty)")

	load := func() (*config.Config, error) {
		return config.Resolve(configPath)
	}

	rootCmd.AddCommand(
		newServeCommand(load),
		newSimulateCommand(load),
		newMigrateCommand(load),
		newConfigCommand(),
	)

	return rootCmd
}

type configLoader func() (*config.Config, error)

// newSimulator builds the simulator the way the configuration describes it.
func newSimulator(cfg config.SimulationConfig) (*service.DebtSimulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := service.NewPaymentPolicy(
		cfg.DefaultPayment.Policy,
		cfg.DefaultPayment.Fraction,
		cfg.DefaultPayment.TermMonths,
	)
	if err != nil {
		return nil, fmt.Errorf("building payment policy: %w", err)
	}
	return service.NewDebtSimulator(policy, cfg.MaxMonths), nil
}
