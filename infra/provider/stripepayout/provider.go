// Package stripepayout sends payouts from the platform Stripe balance to a
// bank account and decodes Stripe payout webhooks.
package stripepayout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/stealthmoney/pkg/config"
	"github.com/amirasaad/stealthmoney/pkg/payout"
	"github.com/amirasaad/stealthmoney/pkg/provider"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const Name = "stripe"

// Provider implements provider.Payout and provider.Webhook using Stripe.
type Provider struct {
	client *stripe.Client
	cfg    *config.Stripe
	logger *slog.Logger
}

// Option customises a Provider.
type Option func(*options)

type options struct {
	backends *stripe.Backends
}

// WithBackends points the Stripe client at custom backends.
func WithBackends(b *stripe.Backends) Option {
	return func(o *options) { o.backends = b }
}

// New creates a Stripe payout provider.
func New(cfg *config.Stripe, logger *slog.Logger, opts ...Option) *Provider {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = slog.Default()
	}
	var clientOpts []stripe.ClientOption
	if o.backends != nil {
		clientOpts = append(clientOpts, stripe.WithBackends(o.backends))
	}
	return &Provider{
		client: stripe.NewClient(cfg.ApiKey, clientOpts...),
		cfg:    cfg,
		logger: logger.With("provider", Name),
	}
}

func (p *Provider) Name() string { return Name }

// CreatePayout creates a Stripe payout in minor units. The bank details
// travel as metadata; the funds go to the configured external account.
func (p *Provider) CreatePayout(ctx context.Context, req *payout.Request) (*payout.Result, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return nil, fmt.Errorf("stripe: invalid amount %q: %w", req.Amount, err)
	}
	minor := amount.Shift(2).Round(0).IntPart()

	params := &stripe.PayoutCreateParams{
		Amount:   stripe.Int64(minor),
		Currency: stripe.String(strings.ToLower(req.Currency)),
	}
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if p.cfg.PayoutDestination != "" {
		params.Destination = stripe.String(p.cfg.PayoutDestination)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	params.AddMetadata("source_wallet_id", req.SourceWalletID)
	params.AddMetadata("holder_name", req.Destination.HolderName)
	params.AddMetadata("iban_last4", last4(payout.NormalizeIBAN(req.Destination.IBAN)))
	params.AddMetadata("bic", payout.NormalizeBIC(req.Destination.BIC))

	po, err := p.client.V1Payouts.Create(ctx, params)
	if err != nil {
		p.logger.Error("failed to create payout", "error", err, "amount", minor, "currency", req.Currency)
		return nil, decodeError(err)
	}
	p.logger.Info("payout created", "payout_id", po.ID, "status", po.Status)

	res := toResult(po)
	res.SourceWalletID = req.SourceWalletID
	return res, nil
}

// GetPayout retrieves a Stripe payout.
func (p *Provider) GetPayout(ctx context.Context, id string) (*payout.StatusReport, error) {
	po, err := p.client.V1Payouts.Retrieve(ctx, id, nil)
	if err != nil {
		return nil, decodeError(err)
	}
	return reportFor(po), nil
}

// ParseWebhook verifies the signature and decodes payout.* events.
func (p *Provider) ParseWebhook(payload []byte, signature string) (*payout.StatusReport, error) {
	if p.cfg.SigningSecret == "" {
		return nil, fmt.Errorf("%w: signing secret not configured", provider.ErrWebhookSignature)
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.cfg.SigningSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrWebhookSignature, err)
	}

	switch event.Type {
	case "payout.paid", "payout.failed", "payout.canceled", "payout.updated":
	default:
		return nil, fmt.Errorf("%w: %s", provider.ErrUnhandledWebhook, event.Type)
	}
	if event.Data == nil {
		return nil, fmt.Errorf("stripe webhook %s: missing data", event.ID)
	}

	var po stripe.Payout
	if err := json.Unmarshal(event.Data.Raw, &po); err != nil {
		return nil, fmt.Errorf("stripe webhook %s: decode payout: %w", event.ID, err)
	}
	p.logger.Info("webhook received", "type", event.Type, "event_id", event.ID, "payout_id", po.ID)
	return reportFor(&po), nil
}

// decodeError maps *stripe.Error onto payout.Failure. Request errors (400,
// 422) without a code expose their message to the content rules.
func decodeError(err error) error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return &payout.Failure{Message: err.Error(), Err: err}
	}
	code := string(se.Code)
	if se.DeclineCode != "" {
		code = string(se.DeclineCode)
	}
	f := &payout.Failure{
		Response: &payout.FailureResponse{
			Status: se.HTTPStatusCode,
			Data:   &payout.FailureData{Code: code, Message: se.Msg},
		},
		Err: err,
	}
	if code == "" && (se.HTTPStatusCode == 400 || se.HTTPStatusCode == 422) {
		f.Message = se.Msg
	}
	if se.HTTPStatusCode == 404 {
		f.Err = fmt.Errorf("%w: %w", provider.ErrPayoutNotFound, err)
		return f
	}
	// Stripe rejects bad parameters with codes the classifier does not
	// know (amount_too_small, parameter_invalid_integer, ...). Retrying
	// them cannot succeed.
	if se.Type == stripe.ErrorTypeInvalidRequest &&
		(se.HTTPStatusCode == 400 || se.HTTPStatusCode == 422) &&
		payout.Classify(f, "stripe").Code == payout.CodeUnknown {
		return payout.NewError(payout.CodeValidation, "stripe rejected the request: "+se.Msg,
			payout.WithCause(f),
			payout.WithDetails(map[string]any{
				"provider": Name,
				"status":   se.HTTPStatusCode,
				"apiCode":  code,
			}))
	}
	return f
}

func toResult(po *stripe.Payout) *payout.Result {
	created := time.Unix(po.Created, 0).UTC()
	res := &payout.Result{
		ID:        po.ID,
		Status:    statusFor(po.Status),
		Amount:    decimal.New(po.Amount, -2).StringFixed(2),
		Currency:  strings.ToUpper(string(po.Currency)),
		Provider:  Name,
		CreatedAt: created,
		UpdatedAt: created,
	}
	if po.ArrivalDate > 0 {
		eta := time.Unix(po.ArrivalDate, 0).UTC()
		res.EstimatedArrival = &eta
	}
	if po.Metadata != nil {
		res.SourceWalletID = po.Metadata["source_wallet_id"]
	}
	return res
}

func reportFor(po *stripe.Payout) *payout.StatusReport {
	report := toResult(po).Report()
	report.UpdatedAt = time.Now().UTC()
	if po.FailureMessage != "" {
		report.Reason = po.FailureMessage
	} else if po.FailureCode != "" {
		report.Reason = string(po.FailureCode)
	}
	return report
}

func statusFor(s stripe.PayoutStatus) payout.Status {
	switch s {
	case stripe.PayoutStatusPaid:
		return payout.StatusComplete
	case stripe.PayoutStatusFailed, stripe.PayoutStatusCanceled:
		return payout.StatusFailed
	default:
		return payout.StatusPending
	}
}

func last4(s string) string {
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}

var (
	_ provider.Payout  = (*Provider)(nil)
	_ provider.Webhook = (*Provider)(nil)
)
