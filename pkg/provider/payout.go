// Package provider declares the capability boundary between the payout
// service and the platforms that actually move money.
package provider

import (
	"context"
	"errors"

	"github.com/amirasaad/stealthmoney/pkg/payout"
)

var (
	// ErrPayoutNotFound is returned when a provider has no payout with the id.
	ErrPayoutNotFound = errors.New("payout not found")
	// ErrWebhookSignature is returned when a webhook fails verification.
	ErrWebhookSignature = errors.New("webhook signature verification failed")
	// ErrUnhandledWebhook is returned for webhook events that carry no payout status.
	ErrUnhandledWebhook = errors.New("unhandled webhook event")
)

// Payout creates payouts and reports their status. Failures are returned
// raw (or as *payout.Failure); classification happens upstream.
type Payout interface {
	Name() string
	CreatePayout(ctx context.Context, req *payout.Request) (*payout.Result, error)
	GetPayout(ctx context.Context, id string) (*payout.StatusReport, error)
}

// Webhook verifies and decodes provider callbacks into status reports.
type Webhook interface {
	ParseWebhook(payload []byte, signature string) (*payout.StatusReport, error)
}
