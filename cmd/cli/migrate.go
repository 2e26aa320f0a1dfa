package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amirasaad/stealthmoney/infra/initializer"
	infra_repository "github.com/amirasaad/stealthmoney/infra/repository/payout"
	"github.com/amirasaad/stealthmoney/pkg/config"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newMigrateCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the payouts schema",
	}
	cmd.AddCommand(
		migrateCmd(flags, "up", "Apply pending migrations", infra_repository.Migrate),
		migrateCmd(flags, "status", "Show applied migrations", infra_repository.MigrationStatus),
	)
	return cmd
}

func migrateCmd(flags *rootFlags, use, short string, run func(ctx context.Context, db *gorm.DB) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			slog.SetDefault(newLogger(cmd.ErrOrStderr(), flags.debug))
			cfg, err := config.Load(flags.envFile)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if cfg.DB == nil || cfg.DB.Url == "" {
				return errors.New("DATABASE_URL is required")
			}
			db, err := initializer.NewDBConnection(cfg.DB, cfg.Env)
			if err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close() //nolint:errcheck
			return run(cmd.Context(), db)
		},
	}
}
