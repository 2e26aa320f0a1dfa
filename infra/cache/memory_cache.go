package cache

import (
	"context"
	"sync"
	"time"

	"github.com/amirasaad/stealthmoney/pkg/cache"
	"github.com/amirasaad/stealthmoney/pkg/payout"
)

// MemoryCache implements cache.PayoutCache using in-memory storage
type MemoryCache struct {
	statuses map[string]*entry[payout.StatusReport]
	keys     map[string]*entry[string]
	mu       sync.RWMutex
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e *entry[T]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// NewMemoryCache creates a new in-memory cache and starts its janitor.
func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{
		statuses: make(map[string]*entry[payout.StatusReport]),
		keys:     make(map[string]*entry[string]),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go c.cleanup(5 * time.Minute)
	return c
}

func (c *MemoryCache) Get(_ context.Context, id string) (*payout.StatusReport, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.statuses[id]
	if !ok || e.expired(c.now()) {
		return nil, nil
	}
	report := e.value
	return &report, nil
}

func (c *MemoryCache) Set(_ context.Context, report *payout.StatusReport, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[report.ID] = &entry[payout.StatusReport]{value: *report, expiresAt: c.deadline(ttl)}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.statuses, id)
	return nil
}

func (c *MemoryCache) GetKey(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.keys[key]
	if !ok || e.expired(c.now()) {
		return "", nil
	}
	return e.value, nil
}

func (c *MemoryCache) SetKey(_ context.Context, key, payoutID string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys[key] = &entry[string]{value: payoutID, expiresAt: c.deadline(ttl)}
	return nil
}

// Close stops the janitor goroutine.
func (c *MemoryCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

// deadline of zero means no expiry.
func (c *MemoryCache) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(ttl)
}

// cleanup removes expired entries from cache
func (c *MemoryCache) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.purge()
		}
	}
}

func (c *MemoryCache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.statuses {
		if e.expired(now) {
			delete(c.statuses, k)
		}
	}
	for k, e := range c.keys {
		if e.expired(now) {
			delete(c.keys, k)
		}
	}
}

var _ cache.PayoutCache = (*MemoryCache)(nil)
