package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/repository"
)

func newMigrateCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the PostgreSQL schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return errors.New("no database configured (set DATABASE_URL or database.url)")
			}

			pool, err := repository.NewPool(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := repository.Migrate(cmd.Context(), pool)
			if err != nil {
				return err
			}
			for _, file := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", file)
			}
			return nil
		},
	}
}
