package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// --- In-memory lockout store ---

type memLockoutStore struct {
	mu       sync.Mutex
	counters map[string]int64
	ttls     map[string]time.Duration

	expireCalls int
	failAll     bool
}

func newMemLockoutStore() *memLockoutStore {
	return &memLockoutStore{
		counters: make(map[string]int64),
		ttls:     make(map[string]time.Duration),
	}
}

func (s *memLockoutStore) Get(_ context.Context, key string) *redis.StringCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return redis.NewStringResult("", fmt.Errorf("connection refused"))
	}
	count, ok := s.counters[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(strconv.FormatInt(count, 10), nil)
}

func (s *memLockoutStore) Incr(_ context.Context, key string) *redis.IntCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return redis.NewIntResult(0, fmt.Errorf("connection refused"))
	}
	s.counters[key]++
	return redis.NewIntResult(s.counters[key], nil)
}

func (s *memLockoutStore) ExpireNX(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireCalls++
	if s.failAll {
		return redis.NewBoolResult(false, fmt.Errorf("connection refused"))
	}
	if _, armed := s.ttls[key]; armed {
		return redis.NewBoolResult(false, nil)
	}
	s.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (s *memLockoutStore) Del(_ context.Context, keys ...string) *redis.IntCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll {
		return redis.NewIntResult(0, fmt.Errorf("connection refused"))
	}
	var n int64
	for _, key := range keys {
		if _, ok := s.counters[key]; ok {
			delete(s.counters, key)
			delete(s.ttls, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func newTestLockout(store lockoutStore, threshold int) *Lockout {
	return newLockoutWithStore(store, threshold, time.Minute, newTestLogger())
}

// --- Tests ---

func TestLockout_EngagesAfterThreshold(t *testing.T) {
	store := newMemLockoutStore()
	lockout := newTestLockout(store, 3)
	ctx := context.Background()

	assert.False(t, lockout.Locked(ctx, "user@example.com"))

	lockout.RecordFailure(ctx, "user@example.com")
	lockout.RecordFailure(ctx, "user@example.com")
	assert.False(t, lockout.Locked(ctx, "user@example.com"), "below threshold must not lock")

	lockout.RecordFailure(ctx, "user@example.com")
	assert.True(t, lockout.Locked(ctx, "user@example.com"))
}

func TestLockout_CountersAreScopedPerIdentifier(t *testing.T) {
	store := newMemLockoutStore()
	lockout := newTestLockout(store, 2)
	ctx := context.Background()

	lockout.RecordFailure(ctx, "first@example.com")
	lockout.RecordFailure(ctx, "first@example.com")

	assert.True(t, lockout.Locked(ctx, "first@example.com"))
	assert.False(t, lockout.Locked(ctx, "second@example.com"))
}

func TestLockout_ResetClearsCounter(t *testing.T) {
	store := newMemLockoutStore()
	lockout := newTestLockout(store, 2)
	ctx := context.Background()

	lockout.RecordFailure(ctx, "user@example.com")
	lockout.RecordFailure(ctx, "user@example.com")
	assert.True(t, lockout.Locked(ctx, "user@example.com"))

	lockout.Reset(ctx, "user@example.com")
	assert.False(t, lockout.Locked(ctx, "user@example.com"))
}

func TestLockout_WindowRearmedOnEveryFailure(t *testing.T) {
	store := newMemLockoutStore()
	lockout := newTestLockout(store, 5)
	ctx := context.Background()

	lockout.RecordFailure(ctx, "user@example.com")
	lockout.RecordFailure(ctx, "user@example.com")
	lockout.RecordFailure(ctx, "user@example.com")

	// The TTL is offered on every failure, not only the first, so a
	// counter whose initial expiry write failed still picks one up.
	assert.Equal(t, 3, store.expireCalls)
	assert.Contains(t, store.ttls, lockoutKey("user@example.com"))
}

func TestLockout_DegradesOpenOnStoreErrors(t *testing.T) {
	store := newMemLockoutStore()
	store.failAll = true
	lockout := newTestLockout(store, 1)
	ctx := context.Background()

	lockout.RecordFailure(ctx, "user@example.com")
	assert.False(t, lockout.Locked(ctx, "user@example.com"), "store errors must not lock anyone out")
}

func TestLockout_NilClientDisabled(t *testing.T) {
	lockout := NewLockout(nil, 1, time.Minute, newTestLogger())
	ctx := context.Background()

	lockout.RecordFailure(ctx, "user@example.com")
	lockout.RecordFailure(ctx, "user@example.com")
	assert.False(t, lockout.Locked(ctx, "user@example.com"))
}

func TestLockout_DefaultPolicy(t *testing.T) {
	lockout := NewLockout(nil, 0, 0, newTestLogger())
	assert.Equal(t, "5 failures per 15m0s", lockout.String())
}
