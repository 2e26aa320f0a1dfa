package app

import (
	"github.com/amirasaad/stealthmoney/pkg/domain/events"
	"github.com/amirasaad/stealthmoney/pkg/handler/payout"
)

// setupEventBus registers the payout lifecycle handlers.
func (a *App) setupEventBus() {
	bus := a.Deps.EventBus
	logger := a.Deps.Logger.With("component", "events")

	bus.Register(events.EventTypePayoutCreated, payout.HandleCreated(logger))
	bus.Register(events.EventTypePayoutFailed, payout.HandleFailed(logger))
	bus.Register(events.EventTypePayoutStatusChanged, payout.HandleStatusChanged(logger))
}
