package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var (
	ErrUnknownProvider = errors.New("unknown payout provider")
	ErrUnknownDriver   = errors.New("unknown event bus driver")
)

var (
	providers = []string{"simulated", "circle", "stripe"}
	drivers   = []string{"memory", "redis", "kafka"}
)

func Load(envFilePath ...string) (*App, error) {
	logger := slog.Default()
	logger.Info("Loading environment variables")

	if len(envFilePath) == 0 {
		logger.Debug("No environment file specified, trying default .env")
		if err := godotenv.Load(); err != nil {
			logger.Warn("No .env file found in current directory")
		}
		return loadFromEnv()
	}

	for _, path := range envFilePath {
		foundPath, err := findEnvFile(path)
		if err != nil {
			logger.Debug("Environment file not found", "path", path, "error", err)
			continue
		}
		logger.Info("Loading environment from file", "path", foundPath)
		if err := godotenv.Load(foundPath); err != nil {
			logger.Error("Failed to load environment file", "path", foundPath, "error", err)
			continue
		}
		return loadFromEnv()
	}

	logger.Info("No valid environment files found, using default .env")
	if err := godotenv.Load(); err != nil {
		logger.Warn("No .env file found in current directory")
	}
	return loadFromEnv()
}

func loadFromEnv() (*App, error) {
	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Default().Info("App config loaded",
		"env", cfg.Env,
		"payout_provider", cfg.Payout.Provider,
		"payout_currency", cfg.Payout.SupportedCurrency,
		"retry_max_attempts", cfg.Retry.MaxAttempts,
		"retry_base_delay", cfg.Retry.BaseDelay,
		"retry_max_delay", cfg.Retry.MaxDelay,
		"eventbus_driver", cfg.EventBus.Driver,
		"rate_limit_max_requests", cfg.RateLimit.MaxRequests,
		"rate_limit_window", cfg.RateLimit.Window,
		"db", maskValue(cfg.DB.Url),
		"redis", maskValue(cfg.Redis.URL),
		"circle_api_key", maskValue(cfg.Circle.ApiKey),
		"stripe_api_key", maskValue(cfg.Stripe.ApiKey),
		"jwt_enabled", cfg.Auth.Jwt.Key != "",
	)
	return &cfg, nil
}

// Validate normalises enum-like settings and rejects unknown values.
func (c *App) Validate() error {
	c.Payout.Provider = strings.ToLower(strings.TrimSpace(c.Payout.Provider))
	if !slices.Contains(providers, c.Payout.Provider) {
		return fmt.Errorf("%w: %q (want one of %s)", ErrUnknownProvider,
			c.Payout.Provider, strings.Join(providers, ", "))
	}
	c.EventBus.Driver = strings.ToLower(strings.TrimSpace(c.EventBus.Driver))
	if !slices.Contains(drivers, c.EventBus.Driver) {
		return fmt.Errorf("%w: %q (want one of %s)", ErrUnknownDriver,
			c.EventBus.Driver, strings.Join(drivers, ", "))
	}
	c.Payout.SupportedCurrency = strings.ToUpper(strings.TrimSpace(c.Payout.SupportedCurrency))
	if c.Retry.MaxAttempts < 1 {
		c.Retry.MaxAttempts = 1
	}
	return nil
}

func maskValue(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}
