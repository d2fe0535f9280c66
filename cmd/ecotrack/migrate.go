package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ecotrack/backend/internal/config"
	"github.com/ecotrack/backend/internal/container"
	"github.com/ecotrack/backend/internal/repository"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(os.Stdout, cfg.Logging)

			db, err := container.OpenDB(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repository.Migrate(db); err != nil {
				return err
			}
			logger.Info("database migrations applied", "database", cfg.Database.Name)
			return nil
		},
	}
}
