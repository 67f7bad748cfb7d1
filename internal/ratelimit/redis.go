// Package ratelimit provides fixed-window request limiters backed by a
// shared counter store, so every service instance sees the same quota.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/forgeml/platform/internal/auth"
)

// incrWindowScript increments the window counter and sets the expiry when
// the window opens, in one atomic server-side step.
var incrWindowScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// RedisLimiter allows up to limit calls per fixed window for each key.
//
// When the counter store is unreachable the limiter must not silently pick a
// side: failOpen=false (recommended for login) rejects with
// ErrDependencyUnavailable, failOpen=true (recommended for registration)
// admits the call so an outage does not block signups.
type RedisLimiter struct {
	rdb      *redis.Client
	name     string
	limit    int64
	window   time.Duration
	failOpen bool
}

var _ auth.RateLimiter = (*RedisLimiter)(nil)

// NewRedisLimiter builds a limiter named name (part of the counter key).
func NewRedisLimiter(rdb *redis.Client, name string, limit int, window time.Duration, failOpen bool) *RedisLimiter {
	return &RedisLimiter{
		rdb:      rdb,
		name:     name,
		limit:    int64(limit),
		window:   window,
		failOpen: failOpen,
	}
}

// Allow consumes one unit of the key's quota.
func (l *RedisLimiter) Allow(ctx context.Context, key string) error {
	counterKey := "ratelimit:" + l.name + ":" + key
	n, err := incrWindowScript.Run(ctx, l.rdb, []string{counterKey}, l.window.Milliseconds()).Int64()
	if err != nil {
		if l.failOpen {
			return nil
		}
		return fmt.Errorf("%w: rate limiter %s: %v", auth.ErrDependencyUnavailable, l.name, err)
	}
	if n > l.limit {
		return auth.ErrRateLimited
	}
	return nil
}
