package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/forgeml/platform/internal/auth"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisLimiterWindow(t *testing.T) {
	mr, client := setupTestRedis(t)
	limiter := NewRedisLimiter(client, "login", 3, time.Minute, false)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := limiter.Allow(ctx, "10.0.0.1"); err != nil {
			t.Fatalf("attempt %d should pass: %v", i+1, err)
		}
	}
	if err := limiter.Allow(ctx, "10.0.0.1"); !errors.Is(err, auth.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if err := limiter.Allow(ctx, "10.0.0.2"); err != nil {
		t.Fatalf("other key should pass: %v", err)
	}

	mr.FastForward(2 * time.Minute)
	if err := limiter.Allow(ctx, "10.0.0.1"); err != nil {
		t.Fatalf("expected fresh window, got %v", err)
	}
}

func TestRedisLimiterSharedCounter(t *testing.T) {
	_, client := setupTestRedis(t)
	// Two limiter instances over the same store see one quota, as two service
	// replicas would.
	a := NewRedisLimiter(client, "login", 2, time.Minute, false)
	b := NewRedisLimiter(client, "login", 2, time.Minute, false)
	ctx := context.Background()

	if err := a.Allow(ctx, "10.0.0.1"); err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if err := b.Allow(ctx, "10.0.0.1"); err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if err := a.Allow(ctx, "10.0.0.1"); !errors.Is(err, auth.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestRedisLimiterFailureModes(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	closed := NewRedisLimiter(client, "login", 5, time.Minute, false)
	open := NewRedisLimiter(client, "register", 5, time.Minute, true)
	mr.Close()
	_ = client.Close()

	ctx := context.Background()
	if err := closed.Allow(ctx, "10.0.0.1"); !errors.Is(err, auth.ErrDependencyUnavailable) {
		t.Fatalf("fail-closed: expected ErrDependencyUnavailable, got %v", err)
	}
	if err := open.Allow(ctx, "10.0.0.1"); err != nil {
		t.Fatalf("fail-open: expected nil, got %v", err)
	}
}
