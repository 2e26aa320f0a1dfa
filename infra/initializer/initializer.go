package initializer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	infra_cache "github.com/amirasaad/stealthmoney/infra/cache"
	"github.com/amirasaad/stealthmoney/infra/metrics"
	infra_repository "github.com/amirasaad/stealthmoney/infra/repository/payout"
	"github.com/amirasaad/stealthmoney/pkg/app"
	"github.com/amirasaad/stealthmoney/pkg/cache"
	"github.com/amirasaad/stealthmoney/pkg/config"
	repo "github.com/amirasaad/stealthmoney/pkg/repository/payout"
)

// closers collects shutdown hooks in the order they were opened.
type closers []func() error

func (c closers) close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type options struct {
	logger *slog.Logger
}

// Option customises InitializeDependencies.
type Option func(*options)

// WithLogger uses logger instead of the configured charmbracelet handler.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// InitializeDependencies builds the provider, storage, cache, metrics and
// event bus selected by cfg.
func InitializeDependencies(cfg *config.App, opts ...Option) (deps *app.Deps, err error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = setupLogger(cfg.Log)
	}
	deps = &app.Deps{Logger: logger}

	var cs closers
	defer func() {
		if err != nil {
			_ = cs.close()
		}
	}()

	m := metrics.New()
	deps.Recorder = m
	deps.Observer = m.Observer()
	deps.MetricsHTTP = m.Handler()

	deps.PayoutProvider, deps.Webhook, err = newPayoutProvider(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize payout provider: %w", err)
	}
	logger.Info("✅ Payout provider initialized", "provider", deps.PayoutProvider.Name())

	deps.Repository, err = initRepository(cfg, logger, &cs)
	if err != nil {
		return nil, err
	}

	deps.Cache = initCache(cfg, logger, &cs)

	bus, closeBus, err := initEventBus(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize event bus: %w", err)
	}
	cs = append(cs, closeBus)
	deps.EventBus = bus
	logger.Info("✅ Event bus initialized", "driver", cfg.EventBus.Driver)

	deps.Close = cs.close
	return deps, nil
}

func initRepository(cfg *config.App, logger *slog.Logger, cs *closers) (repo.Repository, error) {
	if cfg.DB == nil || cfg.DB.Url == "" {
		logger.Warn("DATABASE_URL not set, payouts are kept in memory")
		return infra_repository.NewMemory(), nil
	}
	db, err := NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	*cs = append(*cs, sqlDB.Close)

	if err := infra_repository.Migrate(context.Background(), db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info("✅ Database ready")
	return infra_repository.New(db), nil
}

// initCache prefers Redis and falls back to memory when it is unset or down.
func initCache(cfg *config.App, logger *slog.Logger, cs *closers) cache.PayoutCache {
	if cfg.Redis != nil && cfg.Redis.URL != "" {
		client, err := newRedisClient(cfg.Redis)
		if err == nil {
			rc := infra_cache.NewRedisCache(client, cfg.Redis.KeyPrefix, logger)
			*cs = append(*cs, rc.Close)
			logger.Info("✅ Redis cache initialized")
			return rc
		}
		logger.Warn("Redis cache unavailable, using memory", "error", err)
	}
	mc := infra_cache.NewMemoryCache()
	*cs = append(*cs, func() error { mc.Close(); return nil })
	return mc
}
