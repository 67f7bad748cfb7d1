package auth

import (
	"context"
	"time"
)

// UserStore is the persistence boundary for user records. Implementations
// must enforce username/email uniqueness and surface ErrDuplicateUser on
// conflict, ErrNotFound on missing rows, and ErrDependencyUnavailable on
// timeouts.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, q ListUsersQuery) ([]User, int, error)
	Update(ctx context.Context, id string, upd UserUpdate) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetVerified(ctx context.Context, id string) error
	// Delete deactivates the account (soft delete); tokens already issued
	// stop working at the next store-backed check.
	Delete(ctx context.Context, id string) error
}

// RoleStore is the persistence boundary for roles and user-role assignment.
type RoleStore interface {
	Create(ctx context.Context, r *Role) error
	GetByID(ctx context.Context, id string) (*Role, error)
	GetByName(ctx context.Context, name string) (*Role, error)
	List(ctx context.Context) ([]Role, error)
	// RolesForUser resolves the roles assigned to a user, used to compute
	// the permission snapshot at token issuance.
	RolesForUser(ctx context.Context, userID string) ([]Role, error)
	Assign(ctx context.Context, userID, roleID string) error
}

// SessionStore tracks live refresh-token ids. It is backed by a key-value
// store with TTL; implementations must provide atomic writes so that no
// in-process locking is needed.
type SessionStore interface {
	// Put records a session until rec.ExpiresAt via the store TTL.
	Put(ctx context.Context, rec SessionRecord) error
	// Get returns ErrNotFound for unknown, expired or revoked token ids.
	Get(ctx context.Context, tokenID string) (*SessionRecord, error)
	// Delete is idempotent; deleting an absent record is not an error.
	Delete(ctx context.Context, tokenID string) error
	// RevokeUser removes every session of a user as one logical operation,
	// so a password change cannot miss a token issued mid-flight.
	RevokeUser(ctx context.Context, userID string) error
}

// OneTimeTokenStore holds single-use opaque tokens (email verification,
// password reset) with a TTL. Consume must atomically read and delete.
type OneTimeTokenStore interface {
	Save(ctx context.Context, purpose, token, userID string, ttl time.Duration) error
	// Consume returns the stored user id and deletes the token, or
	// ErrNotFound if it was never saved, already used, or expired.
	Consume(ctx context.Context, purpose, token string) (string, error)
}

// RateLimiter guards authentication endpoints. Allow returns nil when the
// call may proceed, ErrRateLimited when the window quota is exhausted, and
// ErrDependencyUnavailable when a fail-closed limiter cannot reach its
// counter store.
type RateLimiter interface {
	Allow(ctx context.Context, key string) error
}

// Mailer delivers transactional mail. Nil mailers are tolerated: the auth
// flows then skip delivery but still produce tokens.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}
