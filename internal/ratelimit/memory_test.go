package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/forgeml/platform/internal/auth"
)

func TestMemoryLimiterWindow(t *testing.T) {
	now := time.Now()
	limiter := NewMemoryLimiter(3, time.Minute, func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := limiter.Allow(ctx, "login:10.0.0.1"); err != nil {
			t.Fatalf("attempt %d should pass: %v", i+1, err)
		}
	}
	if err := limiter.Allow(ctx, "login:10.0.0.1"); !errors.Is(err, auth.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	// Other keys have their own quota.
	if err := limiter.Allow(ctx, "login:10.0.0.2"); err != nil {
		t.Fatalf("other key should pass: %v", err)
	}

	// The window resets once it elapses.
	now = now.Add(time.Minute + time.Second)
	if err := limiter.Allow(ctx, "login:10.0.0.1"); err != nil {
		t.Fatalf("expected fresh window, got %v", err)
	}
}

func TestMemoryLimiterZeroLimit(t *testing.T) {
	limiter := NewMemoryLimiter(0, time.Minute, nil)
	if err := limiter.Allow(context.Background(), "key"); !errors.Is(err, auth.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}
