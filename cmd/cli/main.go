// Command stealthctl validates bank identifiers and drives payouts against
// the configured provider.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/amirasaad/stealthmoney/infra/initializer"
	"github.com/amirasaad/stealthmoney/pkg/app"
	"github.com/amirasaad/stealthmoney/pkg/config"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	envFile string
	debug   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags rootFlags
	root := &cobra.Command{
		Use:          "stealthctl",
		Short:        "Stealth Money payout tooling",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "environment file to load")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newValidateCmd(),
		newPayoutCmd(&flags),
		newMigrateCmd(&flags),
	)
	return root
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

// loadApp reads the configuration and builds the application services.
func loadApp(cmd *cobra.Command, flags *rootFlags) (*app.App, func(), error) {
	logger := newLogger(cmd.ErrOrStderr(), flags.debug)
	slog.SetDefault(logger)

	cfg, err := config.Load(flags.envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	deps, err := initializer.InitializeDependencies(cfg, initializer.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := deps.Close(); err != nil {
			logger.Warn("failed to release dependencies", "error", err)
		}
	}
	return app.New(deps, cfg), cleanup, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
