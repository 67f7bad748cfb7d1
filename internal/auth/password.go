package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Bcrypt truncates silently beyond 72 bytes in older implementations and
// rejects longer input outright in current ones, so the hasher enforces the
// limit explicitly.
const maxPasswordBytes = 72

const defaultBcryptCost = 12

// PasswordHasher hashes and verifies credentials with bcrypt. Hashing is
// CPU-bound, so concurrency is capped with a semaphore to keep request
// workers responsive under a login storm.
type PasswordHasher struct {
	cost int
	sem  chan struct{}
}

// NewPasswordHasher returns a hasher with the given bcrypt cost and at most
// maxConcurrent hashing operations in flight. Zero values pick sane defaults
// (cost 12, concurrency 8).
func NewPasswordHasher(cost, maxConcurrent int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = defaultBcryptCost
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &PasswordHasher{
		cost: cost,
		sem:  make(chan struct{}, maxConcurrent),
	}
}

func (h *PasswordHasher) acquire(ctx context.Context) error {
	select {
	case h.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: hashing pool: %v", ErrDependencyUnavailable, ctx.Err())
	}
}

func (h *PasswordHasher) release() { <-h.sem }

// Hash returns a salted bcrypt hash of plaintext. Two calls with the same
// input produce different hashes; both verify against the original.
func (h *PasswordHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("%w: password is empty", ErrValidation)
	}
	if len(plaintext) > maxPasswordBytes {
		return "", fmt.Errorf("%w: password exceeds %d bytes", ErrValidation, maxPasswordBytes)
	}
	if err := h.acquire(ctx); err != nil {
		return "", err
	}
	defer h.release()

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches the stored hash. A mismatch is
// (false, nil); a hash that bcrypt cannot even parse surfaces
// ErrMalformedHash so corrupt storage is distinguishable from a wrong
// password.
func (h *PasswordHasher) Verify(ctx context.Context, plaintext, hash string) (bool, error) {
	if err := h.acquire(ctx); err != nil {
		return false, err
	}
	defer h.release()

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	case errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
}
