package cache

import (
	"context"
	"time"

	"github.com/amirasaad/stealthmoney/pkg/payout"
)

// StatusCache caches payout status reports. Get returns nil, nil on a miss.
type StatusCache interface {
	Get(ctx context.Context, id string) (*payout.StatusReport, error)
	Set(ctx context.Context, report *payout.StatusReport, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// KeyCache remembers which payout an idempotency key produced.
// GetKey returns "", nil on a miss.
type KeyCache interface {
	GetKey(ctx context.Context, key string) (string, error)
	SetKey(ctx context.Context, key, payoutID string, ttl time.Duration) error
}

// PayoutCache combines both caches.
type PayoutCache interface {
	StatusCache
	KeyCache
}
