// Package simulated is an in-process payout provider for local development,
// demos and tests. Payouts stay pending until a settle delay elapses and
// then complete. Failures can be scripted.
package simulated

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/amirasaad/stealthmoney/pkg/payout"
	"github.com/amirasaad/stealthmoney/pkg/provider"
	"github.com/google/uuid"
)

const Name = "simulated"

type record struct {
	result *payout.Result
	failed string
}

// Provider simulates a payout platform.
type Provider struct {
	mu          sync.Mutex
	payouts     map[string]*record
	byKey       map[string]string
	failures    []error
	settleDelay time.Duration
	now         func() time.Time
	logger      *slog.Logger
}

// Option customises a Provider.
type Option func(*Provider)

// WithSettleDelay sets how long a payout stays pending.
func WithSettleDelay(d time.Duration) Option {
	return func(p *Provider) { p.settleDelay = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) { p.logger = logger }
}

// WithFailures queues errors returned by the next CreatePayout calls, in order.
func WithFailures(errs ...error) Option {
	return func(p *Provider) { p.failures = append(p.failures, errs...) }
}

// New creates a simulated provider. The default settle delay is 5s.
func New(opts ...Option) *Provider {
	p := &Provider{
		payouts:     make(map[string]*record),
		byKey:       make(map[string]string),
		settleDelay: 5 * time.Second,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("provider", Name)
	return p
}

func (p *Provider) Name() string { return Name }

// FailNext queues errors for the next CreatePayout calls.
func (p *Provider) FailNext(errs ...error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures = append(p.failures, errs...)
}

// MarkFailed moves a pending payout to failed with the given reason.
func (p *Provider) MarkFailed(id, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.payouts[id]
	if !ok {
		return fmt.Errorf("%w: %s", provider.ErrPayoutNotFound, id)
	}
	rec.failed = reason
	return nil
}

// CreatePayout accepts the payout as pending. Requests repeating an
// idempotency key get the original payout back.
func (p *Provider) CreatePayout(ctx context.Context, req *payout.Request) (*payout.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.failures) > 0 {
		err := p.failures[0]
		p.failures = p.failures[1:]
		p.logger.Info("returning scripted failure", "error", err)
		return nil, err
	}

	if req.IdempotencyKey != "" {
		if id, ok := p.byKey[req.IdempotencyKey]; ok {
			res := *p.payouts[id].result
			return &res, nil
		}
	}

	now := p.now().UTC()
	arrival := now.Add(p.settleDelay)
	res := &payout.Result{
		ID:               "payout-" + uuid.NewString(),
		Status:           payout.StatusPending,
		Amount:           req.Amount,
		Currency:         req.Currency,
		Fee:              "0.00",
		SourceWalletID:   req.SourceWalletID,
		TrackingRef:      "SIM" + uuid.NewString()[:8],
		Provider:         Name,
		CreatedAt:        now,
		UpdatedAt:        now,
		EstimatedArrival: &arrival,
	}
	p.payouts[res.ID] = &record{result: res}
	if req.IdempotencyKey != "" {
		p.byKey[req.IdempotencyKey] = res.ID
	}
	p.logger.Info("payout accepted", "payout_id", res.ID, "amount", req.Amount, "currency", req.Currency)

	out := *res
	return &out, nil
}

// GetPayout reports pending until the settle delay elapsed, then complete.
func (p *Provider) GetPayout(ctx context.Context, id string) (*payout.StatusReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	rec, ok := p.payouts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", provider.ErrPayoutNotFound, id)
	}
	res := rec.result
	if res.Status == payout.StatusPending {
		switch {
		case rec.failed != "":
			res.Status = payout.StatusFailed
			res.UpdatedAt = p.now().UTC()
		case !p.now().Before(res.CreatedAt.Add(p.settleDelay)):
			res.Status = payout.StatusComplete
			res.UpdatedAt = res.CreatedAt.Add(p.settleDelay)
		}
	}
	report := res.Report()
	report.Reason = rec.failed
	return report, nil
}

var _ provider.Payout = (*Provider)(nil)
