// Package ratelimit counts sensitive reads (drill-down, export, bulk-read)
// per (user_id, action) in a short-TTL store, so a caller can be refused
// once they cross a configured ceiling within a rolling window.
package ratelimit

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const defaultWindow = 24 * time.Hour

// counterStore is the subset of *redis.Client the limiter needs. Narrowed
// to three calls so tests can supply an in-memory fake instead of a live
// redis server.
type counterStore interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// Limiter enforces a per-(user_id, action) ceiling over a rolling window
// backed by redis INCR/EXPIRE, the same primitive the teacher's own
// infrastructure/ratelimit package builds request throttling on top of,
// generalized here from a local token bucket to a shared counter so the
// ceiling holds across every kernel process instance.
type Limiter struct {
	store  counterStore
	window time.Duration
}

// NewRedisLimiter builds a Limiter backed by a live redis client.
func NewRedisLimiter(client *redis.Client, window time.Duration) *Limiter {
	if window <= 0 {
		window = defaultWindow
	}
	return &Limiter{store: client, window: window}
}

func New(store counterStore, window time.Duration) *Limiter {
	if window <= 0 {
		window = defaultWindow
	}
	return &Limiter{store: store, window: window}
}

// Allow increments the counter for (userID, action) and reports whether
// the caller is still under max for the current window. The window
// starts on the first increment after the key last expired.
func (l *Limiter) Allow(ctx context.Context, userID, action string, max int64) (count int64, allowed bool, err error) {
	key := counterKey(userID, action)

	count, err = l.store.Incr(ctx, key).Result()
	if err != nil {
		return 0, false, err
	}
	if count == 1 {
		if err := l.store.Expire(ctx, key, l.window).Err(); err != nil {
			return count, false, err
		}
	}
	return count, count <= max, nil
}

func counterKey(userID, action string) string {
	return "ratelimit:" + userID + ":" + action
}
