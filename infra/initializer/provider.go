package initializer

import (
	"fmt"
	"log/slog"

	"github.com/amirasaad/stealthmoney/infra/provider/circle"
	"github.com/amirasaad/stealthmoney/infra/provider/simulated"
	"github.com/amirasaad/stealthmoney/infra/provider/stripepayout"
	"github.com/amirasaad/stealthmoney/pkg/config"
	"github.com/amirasaad/stealthmoney/pkg/provider"
)

// newPayoutProvider builds the provider named by PAYOUT_PROVIDER. The
// webhook is nil for providers without push notifications.
func newPayoutProvider(cfg *config.App, logger *slog.Logger) (provider.Payout, provider.Webhook, error) {
	switch cfg.Payout.Provider {
	case simulated.Name:
		return simulated.New(
			simulated.WithSettleDelay(cfg.Payout.SettleDelay),
			simulated.WithLogger(logger),
		), nil, nil
	case circle.Name:
		if cfg.Circle.ApiKey == "" {
			return nil, nil, fmt.Errorf("circle provider: CIRCLE_API_KEY is required")
		}
		return circle.New(cfg.Circle, logger), nil, nil
	case stripepayout.Name:
		if cfg.Stripe.ApiKey == "" {
			return nil, nil, fmt.Errorf("stripe provider: STRIPE_API_KEY is required")
		}
		p := stripepayout.New(cfg.Stripe, logger)
		return p, p, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownProvider, cfg.Payout.Provider)
}
