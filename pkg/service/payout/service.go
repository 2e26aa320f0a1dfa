// Package payout orchestrates payouts: validation, deduplication, the
// retried provider call, persistence, status caching and lifecycle events.
package payout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/stealthmoney/pkg/cache"
	"github.com/amirasaad/stealthmoney/pkg/domain/events"
	"github.com/amirasaad/stealthmoney/pkg/eventbus"
	"github.com/amirasaad/stealthmoney/pkg/payout"
	"github.com/amirasaad/stealthmoney/pkg/provider"
	repo "github.com/amirasaad/stealthmoney/pkg/repository/payout"
	"github.com/amirasaad/stealthmoney/pkg/retry"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ErrNotFound is returned for payout ids this service never stored.
var ErrNotFound = errors.New("payout not found")

const (
	opCreate = "createPayout"
	opStatus = "getPayout"
)

// Recorder receives business counters.
type Recorder interface {
	PayoutCreated(provider string, status payout.Status)
	PayoutRejected(code payout.Code)
}

type noopRecorder struct{}

func (noopRecorder) PayoutCreated(string, payout.Status) {}
func (noopRecorder) PayoutRejected(payout.Code)          {}

// Service provides the payout operations.
type Service struct {
	provider provider.Payout
	repo     repo.Repository
	exec     *retry.Executor
	cache    cache.PayoutCache
	bus      eventbus.Bus
	recorder Recorder
	policy   payout.Policy
	logger   *slog.Logger

	statusTTL time.Duration
	keyTTL    time.Duration
	now       func() time.Time

	inflight singleflight.Group
}

// Option customises a Service.
type Option func(*Service)

// WithCache caches status reports and idempotency keys.
func WithCache(c cache.PayoutCache) Option {
	return func(s *Service) { s.cache = c }
}

// WithEventBus publishes lifecycle events on bus.
func WithEventBus(bus eventbus.Bus) Option {
	return func(s *Service) { s.bus = bus }
}

// WithRecorder reports created and rejected payouts.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithPolicy replaces payout.DefaultPolicy.
func WithPolicy(p payout.Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStatusTTL sets how long non-terminal statuses stay cached.
func WithStatusTTL(d time.Duration) Option {
	return func(s *Service) { s.statusTTL = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a payout service.
func New(p provider.Payout, r repo.Repository, exec *retry.Executor, opts ...Option) *Service {
	s := &Service{
		provider:  p,
		repo:      r,
		exec:      exec,
		recorder:  noopRecorder{},
		policy:    payout.DefaultPolicy,
		logger:    slog.Default(),
		statusTTL: time.Minute,
		keyTTL:    24 * time.Hour,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("service", "payout", "provider", p.Name())
	return s
}

// Provider returns the name of the configured provider.
func (s *Service) Provider() string {
	return s.provider.Name()
}

// CreatePayout validates req, sends it to the provider with retries and
// records the outcome. Validation failures never reach the provider.
// Requests sharing an idempotency key yield the same payout.
func (s *Service) CreatePayout(ctx context.Context, req *payout.Request) (*payout.Result, error) {
	if err := s.policy.Validate(req); err != nil {
		typed := payout.Classify(err, opCreate)
		s.recorder.PayoutRejected(typed.Code)
		s.logger.Info("payout rejected", "code", typed.Code, "reason", typed.Message)
		key := ""
		if req != nil {
			key = req.IdempotencyKey
		}
		s.emit(ctx, &events.PayoutFailed{
			FlowEvent: events.NewFlowEvent("", events.WithIdempotencyKey(key)),
			Code:      typed.Code,
			Reason:    typed.Message,
			Retryable: typed.Retryable,
		})
		return nil, typed
	}

	r := *req
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	if r.IdempotencyKey == "" {
		r.IdempotencyKey = uuid.NewString()
	}

	// The flight outlives any single caller: once the provider has been
	// asked to pay, the outcome is recorded even if the first caller went
	// away. Each caller still stops waiting on its own ctx.
	ch := s.inflight.DoChan(r.IdempotencyKey, func() (any, error) {
		return s.create(context.WithoutCancel(ctx), &r)
	})
	var out singleflight.Result
	select {
	case out = <-ch:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if out.Err != nil {
		return nil, out.Err
	}
	res := *out.Val.(*payout.Result)
	if out.Shared {
		s.logger.Debug("joined in-flight payout", "idempotency_key", r.IdempotencyKey, "payout_id", res.ID)
	}
	return &res, nil
}

func (s *Service) create(ctx context.Context, req *payout.Request) (*payout.Result, error) {
	log := s.logger.With("idempotency_key", req.IdempotencyKey)

	if existing := s.remembered(ctx, req.IdempotencyKey); existing != nil {
		log.Info("duplicate payout submission", "payout_id", existing.ID)
		return existing, nil
	}

	res, err := retry.DoValue(ctx, s.exec, opCreate, func(ctx context.Context) (*payout.Result, error) {
		res, err := s.provider.CreatePayout(ctx, req)
		if err != nil {
			return nil, payout.Classify(err, opCreate)
		}
		return res, nil
	})
	if err != nil {
		typed := payout.Classify(err, opCreate)
		s.recordFailure(ctx, req, typed)
		return nil, typed
	}

	if res.Provider == "" {
		res.Provider = s.provider.Name()
	}
	if res.SourceWalletID == "" {
		res.SourceWalletID = req.SourceWalletID
	}
	rec := newRecord(req, res)
	if err := s.repo.Create(ctx, rec); err != nil {
		log.Warn("failed to persist payout", "payout_id", res.ID, "error", err)
	}
	s.cacheStatus(ctx, rec.Report())
	if s.cache != nil {
		if err := s.cache.SetKey(ctx, req.IdempotencyKey, res.ID, s.keyTTL); err != nil {
			log.Warn("failed to remember idempotency key", "error", err)
		}
	}

	s.recorder.PayoutCreated(res.Provider, res.Status)
	log.Info("payout created", "payout_id", res.ID, "status", res.Status, "amount", res.Amount, "currency", res.Currency)
	s.emit(ctx, &events.PayoutCreated{
		FlowEvent:      events.NewFlowEvent(res.ID, events.WithIdempotencyKey(req.IdempotencyKey)),
		Provider:       res.Provider,
		Status:         res.Status,
		Amount:         res.Amount,
		Currency:       res.Currency,
		SourceWalletID: res.SourceWalletID,
		TrackingRef:    res.TrackingRef,
	})
	return res, nil
}

// remembered returns the payout already created for key, if any.
func (s *Service) remembered(ctx context.Context, key string) *payout.Result {
	if s.cache != nil {
		id, err := s.cache.GetKey(ctx, key)
		if err != nil {
			s.logger.Warn("idempotency cache lookup failed", "error", err)
		}
		if id != "" {
			if rec, err := s.repo.Get(ctx, id); err == nil {
				return toResult(rec)
			}
		}
	}
	rec, err := s.repo.GetByIdempotencyKey(ctx, key)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			s.logger.Warn("idempotency lookup failed", "error", err)
		}
		return nil
	}
	return toResult(rec)
}

func (s *Service) recordFailure(ctx context.Context, req *payout.Request, typed *payout.Error) {
	now := s.now().UTC()
	rec := newRecord(req, &payout.Result{
		ID:        "failed-" + uuid.NewString(),
		Status:    payout.StatusFailed,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Provider:  s.provider.Name(),
		CreatedAt: now,
		UpdatedAt: now,
	})
	rec.FailureCode = string(typed.Code)
	rec.FailureReason = typed.Message
	if err := s.repo.Create(ctx, rec); err != nil {
		s.logger.Warn("failed to persist failed payout", "error", err)
	}

	s.logger.Error("payout failed", "code", typed.Code, "retryable", typed.Retryable, "error", typed)
	s.emit(ctx, &events.PayoutFailed{
		FlowEvent: events.NewFlowEvent(rec.ID, events.WithIdempotencyKey(req.IdempotencyKey)),
		Provider:  s.provider.Name(),
		Code:      typed.Code,
		Reason:    typed.Message,
		Retryable: typed.Retryable,
		Attempted: true,
	})
}

// GetStatus returns the current status of a stored payout, refreshing
// non-terminal ones from the provider.
func (s *Service) GetStatus(ctx context.Context, id string) (*payout.StatusReport, error) {
	if s.cache != nil {
		if report, err := s.cache.Get(ctx, id); err == nil && report != nil {
			return report, nil
		}
	}

	rec, err := s.repo.Get(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get payout %s: %w", id, err)
	}

	if rec.Status.IsTerminal() || rec.Provider != s.provider.Name() {
		report := rec.Report()
		s.cacheStatus(ctx, report)
		return report, nil
	}

	report, err := s.FetchStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = rec.CreatedAt
	}
	if err := s.transition(ctx, rec, report); err != nil {
		s.logger.Warn("failed to record status change", "payout_id", id, "error", err)
	}
	s.cacheStatus(ctx, report)
	return report, nil
}

// FetchStatus asks the provider directly, with retries, bypassing the
// repository and cache. Used for payouts created outside this service.
// A payout unknown to the provider yields ErrNotFound without retrying.
func (s *Service) FetchStatus(ctx context.Context, id string) (*payout.StatusReport, error) {
	missing := false
	report, err := retry.DoValue(ctx, s.exec, opStatus, func(ctx context.Context) (*payout.StatusReport, error) {
		report, err := s.provider.GetPayout(ctx, id)
		if errors.Is(err, provider.ErrPayoutNotFound) {
			missing = true
			return nil, payout.NewValidationError("Payout not found", payout.WithCause(err))
		}
		if err != nil {
			return nil, payout.Classify(err, opStatus)
		}
		return report, nil
	})
	if missing {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return report, err
}

// HandleProviderEvent applies a status pushed by the provider. Reports for
// unknown payouts return ErrNotFound; stale transitions are ignored.
func (s *Service) HandleProviderEvent(ctx context.Context, report *payout.StatusReport) error {
	rec, err := s.repo.Get(ctx, report.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, report.ID)
	}
	if err != nil {
		return fmt.Errorf("get payout %s: %w", report.ID, err)
	}
	if !allowed(rec.Status, report.Status) {
		s.logger.Info("ignoring stale status", "payout_id", rec.ID, "from", rec.Status, "to", report.Status)
		return nil
	}
	if err := s.transition(ctx, rec, report); err != nil {
		return err
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = rec.CreatedAt
	}
	s.cacheStatus(ctx, report)
	return nil
}

// ListByWallet returns the latest payouts of a source wallet.
func (s *Service) ListByWallet(ctx context.Context, walletID string, limit int) ([]*payout.Result, error) {
	recs, err := s.repo.ListByWallet(ctx, walletID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*payout.Result, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toResult(rec))
	}
	return out, nil
}

// allowed reports whether a payout may move from one status to another.
// A completed payout can still be returned by the bank.
func allowed(from, to payout.Status) bool {
	switch from {
	case to, payout.StatusFailed:
		return false
	case payout.StatusComplete:
		return to == payout.StatusFailed
	}
	return true
}

func (s *Service) transition(ctx context.Context, rec *repo.Record, report *payout.StatusReport) error {
	if rec.Status == report.Status {
		return nil
	}
	if err := s.repo.UpdateStatus(ctx, rec.ID, report.Status, report.Reason); err != nil {
		return fmt.Errorf("update payout %s: %w", rec.ID, err)
	}
	s.logger.Info("payout status changed", "payout_id", rec.ID, "from", rec.Status, "to", report.Status)
	s.emit(ctx, &events.PayoutStatusChanged{
		FlowEvent: events.NewFlowEvent(rec.ID, events.WithIdempotencyKey(rec.IdempotencyKey)),
		From:      rec.Status,
		To:        report.Status,
		Reason:    report.Reason,
	})
	return nil
}

func (s *Service) cacheStatus(ctx context.Context, report *payout.StatusReport) {
	if s.cache == nil {
		return
	}
	ttl := s.statusTTL
	if report.Status.IsTerminal() {
		ttl = s.keyTTL
	}
	if err := s.cache.Set(ctx, report, ttl); err != nil {
		s.logger.Warn("failed to cache payout status", "payout_id", report.ID, "error", err)
	}
}

func (s *Service) emit(ctx context.Context, e events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Emit(ctx, e); err != nil {
		s.logger.Warn("failed to emit event", "type", e.Type(), "error", err)
	}
}
