// Package retry re-invokes an operation on retryable payout failures using
// exponential backoff with jitter, up to a bounded number of attempts.
package retry

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/amirasaad/stealthmoney/pkg/payout"
)

// Config bounds the retry loop.
type Config struct {
	// MaxAttempts is the total number of invocations, first one included.
	MaxAttempts int
	// BaseDelay is the wait before the second attempt, doubled afterwards.
	BaseDelay time.Duration
	// MaxDelay caps every wait.
	MaxDelay time.Duration
	// Jitter is the upper bound of the random delay added to each wait.
	// Zero means BaseDelay.
	Jitter time.Duration
}

// DefaultConfig is used for zero fields.
var DefaultConfig = Config{
	MaxAttempts: 3,
	BaseDelay:   time.Second,
	MaxDelay:    30 * time.Second,
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultConfig.MaxAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultConfig.BaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultConfig.MaxDelay
	}
	if c.Jitter <= 0 {
		c.Jitter = c.BaseDelay
	}
	return c
}

// Operation is a unit of work without a result.
type Operation func(ctx context.Context) error

// OperationValue is a unit of work returning a value.
type OperationValue[T any] func(ctx context.Context) (T, error)

// Executor runs operations under a retry Config.
type Executor struct {
	cfg      Config
	logger   *slog.Logger
	observer Observer
}

// Option customises an Executor.
type Option func(*Executor)

// WithLogger sets the logger used for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithObserver registers lifecycle callbacks.
func WithObserver(o Observer) Option {
	return func(e *Executor) {
		if o != nil {
			e.observer = o
		}
	}
}

// New creates an Executor. Zero config fields take DefaultConfig values.
func New(cfg Config, opts ...Option) *Executor {
	e := &Executor{
		cfg:      cfg.withDefaults(),
		logger:   slog.Default(),
		observer: NoopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the effective configuration.
func (e *Executor) Config() Config {
	return e.cfg
}

// Do runs op until it succeeds, fails with a non-retryable error, or runs
// out of attempts. See DoValue.
func (e *Executor) Do(ctx context.Context, label string, op Operation) error {
	_, err := DoValue(ctx, e, label, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// DoValue runs op sequentially. A typed payout error is retried only when
// it is retryable; any other error is treated as transient. The returned
// error is always a *payout.Error.
//
// Between attempts it waits min(base*2^(attempt-1) + jitter, max). The
// wait honours ctx; an in-flight attempt only sees ctx through op.
func DoValue[T any](ctx context.Context, e *Executor, label string, op OperationValue[T]) (T, error) {
	var zero T
	log := e.logger.With("operation", label)

	for attempt := 1; ; attempt++ {
		e.observer.OnAttempt(label, attempt)

		val, err := op(ctx)
		if err == nil {
			if attempt > 1 {
				log.Info("operation succeeded after retry", "attempts", attempt)
			}
			e.observer.OnSuccess(label, attempt)
			return val, nil
		}

		retryable := true
		if typed, ok := payout.AsError(err); ok {
			retryable = typed.Retryable
		}

		if !retryable || attempt >= e.cfg.MaxAttempts {
			final := payout.Classify(err, label)
			log.Warn("operation failed",
				"attempts", attempt,
				"code", final.Code,
				"retryable", final.Retryable,
				"error", err,
			)
			e.observer.OnFailure(label, attempt, final)
			return zero, final
		}

		delay := e.Delay(attempt)
		hint := payout.Classify(err, label)
		log.Warn("attempt failed, retrying",
			"attempt", attempt,
			"max_attempts", e.cfg.MaxAttempts,
			"delay", delay,
			"code", hint.Code,
			"retry_after", hint.RetryAfterSeconds(),
			"error", err,
		)
		e.observer.OnRetry(label, attempt, delay, hint)

		if werr := sleepWithContext(ctx, delay); werr != nil {
			log.Warn("retry wait aborted", "attempt", attempt, "error", werr)
			e.observer.OnFailure(label, attempt, hint)
			return zero, hint
		}
	}
}

// Delay is the wait after the given failed attempt (1-based).
func (e *Executor) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	shift := min(attempt-1, 30)
	backoff := e.cfg.BaseDelay << shift
	if backoff <= 0 || backoff > e.cfg.MaxDelay {
		backoff = e.cfg.MaxDelay
	}
	jitter := time.Duration(rand.Int64N(int64(e.cfg.Jitter)))
	return min(backoff+jitter, e.cfg.MaxDelay)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
