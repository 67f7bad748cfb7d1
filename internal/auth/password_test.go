package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashAndVerify(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost, 4)
	ctx := context.Background()

	first, err := h.Hash(ctx, "s3cret-password")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	second, err := h.Hash(ctx, "s3cret-password")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct salted hashes")
	}

	for _, hash := range []string{first, second} {
		ok, err := h.Verify(ctx, "s3cret-password", hash)
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if !ok {
			t.Fatalf("expected hash to verify")
		}
	}

	ok, err := h.Verify(ctx, "wrong-password", first)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatalf("wrong password must not verify")
	}
}

func TestPasswordHashRejectsInvalidInput(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost, 4)
	ctx := context.Background()

	if _, err := h.Hash(ctx, ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("empty password: expected ErrValidation, got %v", err)
	}
	long := strings.Repeat("x", maxPasswordBytes+1)
	if _, err := h.Hash(ctx, long); !errors.Is(err, ErrValidation) {
		t.Fatalf("long password: expected ErrValidation, got %v", err)
	}
}

func TestPasswordVerifyMalformedHash(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost, 4)

	_, err := h.Verify(context.Background(), "anything", "not-a-bcrypt-hash")
	if !errors.Is(err, ErrMalformedHash) {
		t.Fatalf("expected ErrMalformedHash, got %v", err)
	}
}

func TestPasswordHasherSaturatedPool(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost, 1)
	h.sem <- struct{}{} // occupy the only slot

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := h.Hash(ctx, "s3cret-password"); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
	if _, err := h.Verify(ctx, "s3cret-password", "whatever"); !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}
