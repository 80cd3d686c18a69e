package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rotzhost/rotzcoder/internal/cache"
)

// Throttle counts failed logins per email+IP in Redis and blocks the
// pair once the limit is hit, until the window expires. A nil Throttle
// disables throttling, which keeps Redis optional in development.
type Throttle struct {
	cache  *cache.Cache
	max    int
	window time.Duration
}

func NewThrottle(c *cache.Cache, max int, window time.Duration) *Throttle {
	return &Throttle{cache: c, max: max, window: window}
}

func throttleKey(email, ip string) string {
	return fmt.Sprintf("login:fail:%s:%s", email, ip)
}

func (t *Throttle) TooMany(ctx context.Context, email, ip string) bool {
	if t == nil {
		return false
	}
	n, err := t.cache.Counter(ctx, throttleKey(email, ip))
	if err != nil {
		slog.Warn("read login failures", "error", err)
		return false
	}
	return n >= int64(t.max)
}

func (t *Throttle) RecordFailure(ctx context.Context, email, ip string) {
	if t == nil {
		return
	}
	if _, err := t.cache.IncrementWithTTL(ctx, throttleKey(email, ip), t.window); err != nil {
		slog.Warn("record login failure", "error", err)
	}
}

func (t *Throttle) Reset(ctx context.Context, email, ip string) {
	if t == nil {
		return
	}
	if err := t.cache.Delete(ctx, throttleKey(email, ip)); err != nil {
		slog.Warn("reset login failures", "error", err)
	}
}
