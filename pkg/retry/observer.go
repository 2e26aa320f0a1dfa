package retry

import (
	"time"

	"github.com/amirasaad/stealthmoney/pkg/payout"
)

// Observer receives retry lifecycle callbacks. Implementations must be
// safe for concurrent use; one Executor serves many independent calls.
type Observer interface {
	OnAttempt(label string, attempt int)
	OnRetry(label string, attempt int, delay time.Duration, err *payout.Error)
	OnSuccess(label string, attempts int)
	OnFailure(label string, attempts int, err *payout.Error)
}

// NoopObserver ignores every callback.
type NoopObserver struct{}

func (NoopObserver) OnAttempt(string, int) {}
func (NoopObserver) OnRetry(string, int, time.Duration, *payout.Error) {}
func (NoopObserver) OnSuccess(string, int) {}
func (NoopObserver) OnFailure(string, int, *payout.Error) {}

// Observers fans callbacks out to several observers in order.
type Observers []Observer

func (o Observers) OnAttempt(label string, attempt int) {
	for _, obs := range o {
		obs.OnAttempt(label, attempt)
	}
}

func (o Observers) OnRetry(label string, attempt int, delay time.Duration, err *payout.Error) {
	for _, obs := range o {
		obs.OnRetry(label, attempt, delay, err)
	}
}

func (o Observers) OnSuccess(label string, attempts int) {
	for _, obs := range o {
		obs.OnSuccess(label, attempts)
	}
}

func (o Observers) OnFailure(label string, attempts int, err *payout.Error) {
	for _, obs := range o {
		obs.OnFailure(label, attempts, err)
	}
}
