// Package payout holds the event bus handlers for payout lifecycle events.
package payout

import (
	"context"
	"log/slog"

	"github.com/amirasaad/stealthmoney/pkg/domain/events"
	"github.com/amirasaad/stealthmoney/pkg/eventbus"
	"github.com/amirasaad/stealthmoney/pkg/payout"
)

// HandleCreated records accepted payouts in the audit log.
func HandleCreated(logger *slog.Logger) eventbus.HandlerFunc {
	return func(ctx context.Context, e events.Event) error {
		log := logger.With("handler", "payout.HandleCreated", "event_type", e.Type())
		pc, ok := e.(*events.PayoutCreated)
		if !ok {
			log.Error("Skipping unexpected event type", "event", e)
			return nil
		}
		log.Info("🟢 payout accepted",
			"payout_id", pc.PayoutID,
			"provider", pc.Provider,
			"status", pc.Status,
			"amount", pc.Amount,
			"currency", pc.Currency,
			"source_wallet_id", pc.SourceWalletID,
			"correlation_id", pc.CorrelationID,
		)
		return nil
	}
}

// HandleFailed records failed submissions. Failures that were still
// retryable when attempts ran out are raised to error level.
func HandleFailed(logger *slog.Logger) eventbus.HandlerFunc {
	return func(ctx context.Context, e events.Event) error {
		log := logger.With("handler", "payout.HandleFailed", "event_type", e.Type())
		pf, ok := e.(*events.PayoutFailed)
		if !ok {
			log.Error("Skipping unexpected event type", "event", e)
			return nil
		}
		log = log.With(
			"payout_id", pf.PayoutID,
			"code", pf.Code,
			"retryable", pf.Retryable,
			"attempted", pf.Attempted,
			"idempotency_key", pf.IdempotencyKey,
		)
		if pf.Attempted && pf.Retryable {
			log.Error("❌ payout failed after exhausting retries", "reason", pf.Reason)
			return nil
		}
		log.Warn("⚠️ payout rejected", "reason", pf.Reason)
		return nil
	}
}

// HandleStatusChanged records status transitions. A completed payout that
// later fails was returned by the destination bank.
func HandleStatusChanged(logger *slog.Logger) eventbus.HandlerFunc {
	return func(ctx context.Context, e events.Event) error {
		log := logger.With("handler", "payout.HandleStatusChanged", "event_type", e.Type())
		sc, ok := e.(*events.PayoutStatusChanged)
		if !ok {
			log.Error("Skipping unexpected event type", "event", e)
			return nil
		}
		log = log.With("payout_id", sc.PayoutID, "from", sc.From, "to", sc.To)
		if sc.From == payout.StatusComplete && sc.To == payout.StatusFailed {
			log.Error("❌ payout returned by bank", "reason", sc.Reason)
			return nil
		}
		log.Info("🔄 payout status changed", "reason", sc.Reason)
		return nil
	}
}
