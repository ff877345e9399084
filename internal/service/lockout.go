package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lockout defaults. Five bad passwords for the same identifier inside the
// window lock further attempts out until the window expires.
const (
	defaultLockoutThreshold = 5
	defaultLockoutWindow    = 15 * time.Minute
)

// lockoutStore is the slice of the Redis API the lockout uses. go-redis
// clients satisfy it; tests substitute an in-memory store.
type lockoutStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	ExpireNX(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Lockout tracks failed login attempts per identifier in Redis. When Redis
// is down the lockout degrades open; losing brute-force throttling briefly
// is preferable to locking every user out.
type Lockout struct {
	store     lockoutStore
	threshold int
	window    time.Duration
	logger    *slog.Logger
}

// NewLockout creates a login lockout tracker. A nil client disables the
// lockout entirely.
func NewLockout(client *redis.Client, threshold int, window time.Duration, logger *slog.Logger) *Lockout {
	var store lockoutStore
	if client != nil {
		store = client
	}
	return newLockoutWithStore(store, threshold, window, logger)
}

func newLockoutWithStore(store lockoutStore, threshold int, window time.Duration, logger *slog.Logger) *Lockout {
	if threshold <= 0 {
		threshold = defaultLockoutThreshold
	}
	if window <= 0 {
		window = defaultLockoutWindow
	}
	return &Lockout{
		store:     store,
		threshold: threshold,
		window:    window,
		logger:    logger,
	}
}

func lockoutKey(identifier string) string {
	return "lms:login_failures:" + identifier
}

// Locked reports whether the identifier has exceeded the failure threshold.
func (l *Lockout) Locked(ctx context.Context, identifier string) bool {
	if l.store == nil {
		return false
	}
	count, err := l.store.Get(ctx, lockoutKey(identifier)).Int()
	if err != nil {
		if err != redis.Nil {
			l.logger.Warn("lockout check failed, allowing attempt", slog.String("error", err.Error()))
		}
		return false
	}
	return count >= l.threshold
}

// RecordFailure increments the failure counter. The window TTL is re-armed
// on every failure when absent, so a counter whose first expiry write was
// lost to a crash or Redis error can never linger without a TTL.
func (l *Lockout) RecordFailure(ctx context.Context, identifier string) {
	if l.store == nil {
		return
	}
	key := lockoutKey(identifier)
	count, err := l.store.Incr(ctx, key).Result()
	if err != nil {
		l.logger.Warn("lockout increment failed", slog.String("error", err.Error()))
		return
	}
	if err := l.store.ExpireNX(ctx, key, l.window).Err(); err != nil {
		l.logger.Warn("lockout expiry failed", slog.String("error", err.Error()))
	}
	if count == int64(l.threshold) {
		l.logger.Info("login lockout engaged", slog.String("identifier", identifier))
	}
}

// Reset clears the failure counter after a successful login.
func (l *Lockout) Reset(ctx context.Context, identifier string) {
	if l.store == nil {
		return
	}
	if err := l.store.Del(ctx, lockoutKey(identifier)).Err(); err != nil {
		l.logger.Warn("lockout reset failed", slog.String("error", err.Error()))
	}
}

// String describes the lockout policy, for startup logging.
func (l *Lockout) String() string {
	return fmt.Sprintf("%d failures per %s", l.threshold, l.window)
}
