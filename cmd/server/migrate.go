package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"provenance/internal/platform/config"
	"provenance/internal/platform/logger"
	"provenance/internal/platform/migration"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the postgres schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return runMigration(migration.RunUp)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every applied migration",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return runMigration(migration.RunDown)
			},
		},
	)
	return cmd
}

func runMigration(run func(dsn string, log *slog.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Storage.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required for migrations")
	}
	return run(cfg.Storage.DatabaseURL, logger.New(cfg.Log.Level, cfg.Log.Format))
}
