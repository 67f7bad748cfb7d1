// Package session implements the auth session store and one-time-token
// store on Redis, with in-memory fallbacks for local development.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/forgeml/platform/internal/auth"
)

const (
	sessionKeyPrefix = "session:"
	userSetKeyPrefix = "usersessions:"
	onetimeKeyPrefix = "onetime:"

	defaultOpTimeout = 3 * time.Second
)

// revokeUserScript deletes every session key in the user's set plus the set
// itself in one atomic server-side step, so a token recorded concurrently is
// either fully revoked or fully alive, never half-tracked.
var revokeUserScript = redis.NewScript(`
local members = redis.call('SMEMBERS', KEYS[1])
for _, id in ipairs(members) do
    redis.call('DEL', ARGV[1] .. id)
end
redis.call('DEL', KEYS[1])
return #members
`)

// RedisStore implements auth.SessionStore and auth.OneTimeTokenStore.
type RedisStore struct {
	rdb       *redis.Client
	opTimeout time.Duration
}

var (
	_ auth.SessionStore      = (*RedisStore)(nil)
	_ auth.OneTimeTokenStore = (*RedisStore)(nil)
)

// NewRedisStore wraps an existing client. Every operation is bounded by
// opTimeout (default 3s) on top of whatever deadline the caller carries.
func NewRedisStore(rdb *redis.Client, opTimeout time.Duration) *RedisStore {
	if opTimeout <= 0 {
		opTimeout = defaultOpTimeout
	}
	return &RedisStore{rdb: rdb, opTimeout: opTimeout}
}

func (s *RedisStore) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.opTimeout)
}

func wrapErr(op string, err error) error {
	return fmt.Errorf("%w: session store %s: %v", auth.ErrDependencyUnavailable, op, err)
}

// Put records the session under session:<tokenID> with a TTL matching the
// token expiry and tracks the id in the user's session set for bulk revoke.
func (s *RedisStore) Put(ctx context.Context, rec auth.SessionRecord) error {
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("%w: session already expired", auth.ErrValidation)
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+rec.TokenID, payload, ttl)
	pipe.SAdd(ctx, userSetKeyPrefix+rec.UserID, rec.TokenID)
	// The set must outlive its longest-lived member; stale ids inside it are
	// harmless because revocation deletes keys that may already be gone.
	pipe.Expire(ctx, userSetKeyPrefix+rec.UserID, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return wrapErr("put", err)
	}
	return nil
}

// Get loads a session record; expired or deleted records surface ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, tokenID string) (*auth.SessionRecord, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	raw, err := s.rdb.Get(ctx, sessionKeyPrefix+tokenID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("get", err)
	}
	var rec auth.SessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal session record: %w", err)
	}
	return &rec, nil
}

// Delete revokes a single session. Unknown ids are a no-op.
func (s *RedisStore) Delete(ctx context.Context, tokenID string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rec, err := s.Get(ctx, tokenID)
	if errors.Is(err, auth.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, sessionKeyPrefix+tokenID)
	pipe.SRem(ctx, userSetKeyPrefix+rec.UserID, tokenID)
	if _, err := pipe.Exec(ctx); err != nil {
		return wrapErr("delete", err)
	}
	return nil
}

// RevokeUser drops every session of the user atomically.
func (s *RedisStore) RevokeUser(ctx context.Context, userID string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	err := revokeUserScript.Run(ctx, s.rdb,
		[]string{userSetKeyPrefix + userID},
		sessionKeyPrefix,
	).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return wrapErr("revoke user", err)
	}
	return nil
}

// Save stores a one-time token under onetime:<purpose>:<token>.
func (s *RedisStore) Save(ctx context.Context, purpose, token, userID string, ttl time.Duration) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	key := onetimeKeyPrefix + purpose + ":" + token
	if err := s.rdb.Set(ctx, key, userID, ttl).Err(); err != nil {
		return wrapErr("save token", err)
	}
	return nil
}

// Consume atomically reads and deletes a one-time token.
func (s *RedisStore) Consume(ctx context.Context, purpose, token string) (string, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	key := onetimeKeyPrefix + purpose + ":" + token
	userID, err := s.rdb.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", auth.ErrNotFound
	}
	if err != nil {
		return "", wrapErr("consume token", err)
	}
	return userID, nil
}
