package app

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/amirasaad/stealthmoney/pkg/cache"
	"github.com/amirasaad/stealthmoney/pkg/config"
	"github.com/amirasaad/stealthmoney/pkg/eventbus"
	"github.com/amirasaad/stealthmoney/pkg/payout"
	"github.com/amirasaad/stealthmoney/pkg/provider"
	repo "github.com/amirasaad/stealthmoney/pkg/repository/payout"
	"github.com/amirasaad/stealthmoney/pkg/retry"
	payoutsvc "github.com/amirasaad/stealthmoney/pkg/service/payout"
)

// Deps holds the infrastructure the services are built from.
type Deps struct {
	PayoutProvider provider.Payout
	// Webhook is nil when the provider pushes no status updates.
	Webhook     provider.Webhook
	Repository  repo.Repository
	Cache       cache.PayoutCache
	EventBus    eventbus.Bus
	Recorder    payoutsvc.Recorder
	Observer    retry.Observer
	MetricsHTTP http.Handler
	Logger      *slog.Logger
	// Close releases connections opened for the dependencies.
	Close func() error
}

type App struct {
	Deps          *Deps
	Config        *config.App
	Retry         *retry.Executor
	PayoutService *payoutsvc.Service
}

func New(deps *Deps, cfg *config.App) *App {
	a := &App{
		Deps:   deps,
		Config: cfg,
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	retryOpts := []retry.Option{retry.WithLogger(deps.Logger.With("component", "retry"))}
	if deps.Observer != nil {
		retryOpts = append(retryOpts, retry.WithObserver(deps.Observer))
	}
	a.Retry = retry.New(retry.Config{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
	}, retryOpts...)

	opts := []payoutsvc.Option{
		payoutsvc.WithLogger(deps.Logger),
		payoutsvc.WithPolicy(policyFor(cfg.Payout)),
		payoutsvc.WithEventBus(deps.EventBus),
		payoutsvc.WithRecorder(deps.Recorder),
	}
	if deps.Cache != nil {
		opts = append(opts, payoutsvc.WithCache(deps.Cache))
	}
	if cfg.Redis != nil && cfg.Redis.StatusTTL > 0 {
		opts = append(opts, payoutsvc.WithStatusTTL(cfg.Redis.StatusTTL))
	}
	a.PayoutService = payoutsvc.New(deps.PayoutProvider, deps.Repository, a.Retry, opts...)

	if deps.EventBus != nil {
		a.setupEventBus()
	}
	return a
}

// policyFor allows SEPA destinations for the configured currency.
func policyFor(cfg *config.Payout) payout.Policy {
	if cfg == nil || cfg.SupportedCurrency == "" {
		return payout.DefaultPolicy
	}
	currency := strings.ToUpper(cfg.SupportedCurrency)
	return payout.Policy{
		Currency:  currency,
		Countries: map[string][]string{currency: payout.SEPACountries},
	}
}
