package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirasaad/stealthmoney/infra/initializer"
	"github.com/amirasaad/stealthmoney/pkg/app"
	"github.com/amirasaad/stealthmoney/pkg/config"
	"github.com/amirasaad/stealthmoney/webapi"
	log "github.com/charmbracelet/log"
)

// @title Stealth Money API
// @version 1.0.0
// @description Payouts from a stablecoin wallet to European bank accounts.
// @host localhost:3000
// @BasePath /
//
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description "Enter your Bearer token in the format: `Bearer {token}`"
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

const shutdownTimeout = 15 * time.Second

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			slog.Error("Error releasing dependencies", "error", err)
		}
	}()

	fiberApp, err := webapi.SetupApp(app.New(deps, cfg))
	if err != nil {
		return fmt.Errorf("failed to set up http app: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	slog.Info("Starting server",
		"env", cfg.Env,
		"address", addr,
		"scheme", cfg.Server.Scheme,
		"provider", cfg.Payout.Provider,
	)

	errCh := make(chan error, 1)
	go func() { errCh <- fiberApp.Listen(addr) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("Received signal, shutting down...", "signal", sig.String())
	}

	if err := fiberApp.ShutdownWithTimeout(shutdownTimeout); err != nil && !errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
