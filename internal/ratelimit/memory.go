package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/forgeml/platform/internal/auth"
)

// MemoryLimiter is a single-process fixed-window limiter for local
// development and tests. Multi-instance deployments need the redis-backed
// limiter so all instances share one quota.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	windows map[string]*window

	now func() time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

var _ auth.RateLimiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter builds a limiter; a nil clock defaults to time.Now.
func NewMemoryLimiter(limit int, windowSize time.Duration, now func() time.Time) *MemoryLimiter {
	if now == nil {
		now = time.Now
	}
	return &MemoryLimiter{
		limit:   limit,
		window:  windowSize,
		windows: make(map[string]*window),
		now:     now,
	}
}

// Allow consumes one unit of the key's quota.
func (l *MemoryLimiter) Allow(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		l.windows[key] = &window{count: 1, resetAt: now.Add(l.window)}
		if l.limit < 1 {
			return auth.ErrRateLimited
		}
		return nil
	}
	w.count++
	if w.count > l.limit {
		return auth.ErrRateLimited
	}
	return nil
}
