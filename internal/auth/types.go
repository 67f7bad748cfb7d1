package auth

import "time"

// User is an account in the platform. PasswordHash never leaves the auth
// core; API-facing callers serialize the exported view themselves.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name,omitempty"`
	IsActive     bool      `json:"is_active"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	RoleIDs      []string  `json:"role_ids,omitempty"`
}

// Role groups permissions. Permissions are plain "action:resource" strings;
// the wildcard "*" grants every action.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TokenKind distinguishes the two credentials the token service mints.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// Token is an issued credential plus the metadata callers need to store or
// return it.
type Token struct {
	Signed    string    `json:"token"`
	ID        string    `json:"jti"`
	UserID    string    `json:"user_id"`
	Kind      TokenKind `json:"kind"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenPair is returned by Authenticate.
type TokenPair struct {
	AccessToken  Token `json:"access_token"`
	RefreshToken Token `json:"refresh_token"`
}

// SessionRecord tracks a live refresh token in the session store. Records
// are written at issuance, deleted on logout or revocation, and expire via
// the store TTL together with the token itself.
type SessionRecord struct {
	TokenID   string    `json:"token_id"`
	UserID    string    `json:"user_id"`
	Kind      TokenKind `json:"kind"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserUpdate carries partial updates for admin UpdateUser. Nil fields are
// left untouched.
type UserUpdate struct {
	Username *string
	Email    *string
	FullName *string
	IsActive *bool
	RoleIDs  []string
}

// ListUsersQuery selects a page of users for the admin listing.
type ListUsersQuery struct {
	Offset int
	Limit  int
	Search string
}
