package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/amirasaad/stealthmoney/pkg/cache"
	"github.com/amirasaad/stealthmoney/pkg/payout"
	"github.com/redis/go-redis/v9"
)

// RedisCache implements cache.PayoutCache using Redis.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
}

// NewRedisCache wraps an existing client. Keys are namespaced by prefix.
func NewRedisCache(client redis.UniversalClient, prefix string, logger *slog.Logger) *RedisCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{client: client, prefix: prefix, logger: logger.With("component", "redis_cache")}
}

// NewRedisCacheFromURL parses url and connects.
func NewRedisCacheFromURL(url, prefix string, logger *slog.Logger) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return NewRedisCache(redis.NewClient(opt), prefix, logger), nil
}

func (r *RedisCache) statusKey(id string) string {
	return r.prefix + "payout:status:" + id
}

func (r *RedisCache) idemKey(key string) string {
	return r.prefix + "payout:idem:" + key
}

func (r *RedisCache) Get(ctx context.Context, id string) (*payout.StatusReport, error) {
	val, err := r.client.Get(ctx, r.statusKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.logger.Debug("Redis cache miss", "payout_id", id)
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Redis cache get error", "payout_id", id, "error", err)
		return nil, err
	}
	var report payout.StatusReport
	if err := json.Unmarshal(val, &report); err != nil {
		r.logger.Error("Redis cache unmarshal error", "payout_id", id, "error", err)
		return nil, err
	}
	r.logger.Debug("Redis cache hit", "payout_id", id, "status", report.Status)
	return &report, nil
}

func (r *RedisCache) Set(ctx context.Context, report *payout.StatusReport, ttl time.Duration) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.statusKey(report.ID), data, ttl).Err(); err != nil {
		r.logger.Error("Redis cache set error", "payout_id", report.ID, "error", err)
		return err
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.statusKey(id)).Err()
}

func (r *RedisCache) GetKey(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.idemKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

// SetKey keeps the first payout recorded for key.
func (r *RedisCache) SetKey(ctx context.Context, key, payoutID string, ttl time.Duration) error {
	return r.client.SetNX(ctx, r.idemKey(key), payoutID, ttl).Err()
}

// Close closes the underlying client.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

var _ cache.PayoutCache = (*RedisCache)(nil)
