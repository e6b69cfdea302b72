package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

// fakeStore is an in-memory counterStore double, standing in for a live
// redis server the way the teacher's own tests stand in sqlmock for a
// live postgres connection.
type fakeStore struct {
	mu     sync.Mutex
	counts map[string]int64
	ttls   map[string]time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{counts: make(map[string]int64), ttls: make(map[string]time.Duration)}
}

func (f *fakeStore) Incr(ctx context.Context, key string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(f.counts[key])
	return cmd
}

func (f *fakeStore) Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttls[key] = ttl
	cmd := redis.NewBoolCmd(ctx)
	cmd.SetVal(true)
	return cmd
}

func (f *fakeStore) TTL(ctx context.Context, key string) *redis.DurationCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := redis.NewDurationCmd(ctx, time.Second)
	cmd.SetVal(f.ttls[key])
	return cmd
}

func TestAllow_PermitsUnderCeiling(t *testing.T) {
	store := newFakeStore()
	limiter := New(store, time.Hour)

	for i := 0; i < 3; i++ {
		count, allowed, err := limiter.Allow(context.Background(), "user-1", "export", 5)
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !allowed {
			t.Fatalf("expected call %d to be allowed, count=%d", i, count)
		}
	}
}

func TestAllow_RefusesOverCeiling(t *testing.T) {
	store := newFakeStore()
	limiter := New(store, time.Hour)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, allowed, err := limiter.Allow(ctx, "user-1", "bulk_read", 5); err != nil || !allowed {
			t.Fatalf("call %d: allowed=%v err=%v", i, allowed, err)
		}
	}

	count, allowed, err := limiter.Allow(ctx, "user-1", "bulk_read", 5)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if allowed {
		t.Fatalf("expected call 6 (count=%d) to be refused", count)
	}
}

func TestAllow_SeparatesCountersByUserAndAction(t *testing.T) {
	store := newFakeStore()
	limiter := New(store, time.Hour)
	ctx := context.Background()

	limiter.Allow(ctx, "user-1", "export", 1)
	count, allowed, err := limiter.Allow(ctx, "user-2", "export", 1)
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if count != 1 || !allowed {
		t.Fatalf("expected user-2's counter to start fresh, got count=%d allowed=%v", count, allowed)
	}
}

func TestAllow_SetsExpiryOnlyOnFirstIncrement(t *testing.T) {
	store := newFakeStore()
	limiter := New(store, 24*time.Hour)
	ctx := context.Background()

	limiter.Allow(ctx, "user-1", "drill_down", 10)
	limiter.Allow(ctx, "user-1", "drill_down", 10)

	if got := store.ttls[counterKey("user-1", "drill_down")]; got != 24*time.Hour {
		t.Fatalf("ttl = %v, want 24h", got)
	}
	if len(store.ttls) != 1 {
		t.Fatalf("expected Expire to be called exactly once, got %d calls worth of state", len(store.ttls))
	}
}
