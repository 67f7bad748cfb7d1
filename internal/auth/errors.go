package auth

import "errors"

// Error taxonomy for the auth core. Every failure surfaced by this package
// wraps one of these sentinels so callers can branch with errors.Is and map
// each kind to a distinct outward signal without leaking internals.
var (
	// ErrValidation marks caller-fixable input problems: bad username or
	// email shape, password policy violations.
	ErrValidation = errors.New("auth: validation failed")

	// ErrDuplicateUser is returned when a username or email is already taken.
	ErrDuplicateUser = errors.New("auth: user already exists")

	// ErrDuplicateRole is returned when a role name is already taken.
	ErrDuplicateRole = errors.New("auth: role already exists")

	// ErrInvalidCredentials covers both unknown account and wrong password,
	// deliberately indistinguishable to prevent user enumeration.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	ErrExpiredToken     = errors.New("auth: token expired")
	ErrInvalidSignature = errors.New("auth: invalid token signature")
	ErrMalformedToken   = errors.New("auth: malformed token")

	// ErrRevokedToken is returned when a refresh token is structurally valid
	// but its session record is gone (logout or admin revocation).
	ErrRevokedToken = errors.New("auth: token revoked")

	// ErrUnauthenticated means the caller presented no usable identity;
	// ErrForbidden means the identity is valid but lacks the permission.
	ErrUnauthenticated = errors.New("auth: unauthenticated")
	ErrForbidden       = errors.New("auth: forbidden")

	// ErrRateLimited is temporary; callers should back off.
	ErrRateLimited = errors.New("auth: rate limit exceeded")

	// ErrDependencyUnavailable wraps timeouts and connectivity failures of
	// the user store, session store or counter store. Retryable by the
	// caller; this package never retries internally.
	ErrDependencyUnavailable = errors.New("auth: dependency unavailable")

	ErrNotFound = errors.New("auth: not found")

	// ErrMalformedHash indicates a corrupt password hash in storage, as
	// opposed to a plain verification mismatch.
	ErrMalformedHash = errors.New("auth: malformed password hash")
)
