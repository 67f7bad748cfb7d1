package auth

import (
	"errors"
	"testing"
)

func TestPasswordPolicy(t *testing.T) {
	policy := DefaultPasswordPolicy()

	if err := policy.Validate("abcdef12"); err != nil {
		t.Fatalf("valid password rejected: %v", err)
	}
	cases := map[string]string{
		"short":    "ab1",
		"noDigit":  "abcdefgh",
		"noLetter": "12345678",
	}
	for name, password := range cases {
		if err := policy.Validate(password); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", name, err)
		}
	}

	policy.RequireSpecial = true
	if err := policy.Validate("abcdef12"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected special character requirement to apply, got %v", err)
	}
	if err := policy.Validate("abcdef12!"); err != nil {
		t.Fatalf("valid password rejected: %v", err)
	}
}

func TestValidateUsername(t *testing.T) {
	for _, name := range []string{"alice", "bob.smith", "a_b-c", "xyz"} {
		if err := validateUsername(name); err != nil {
			t.Fatalf("username %q should be valid: %v", name, err)
		}
	}
	for _, name := range []string{"", "ab", "has space", "bad@char"} {
		if err := validateUsername(name); !errors.Is(err, ErrValidation) {
			t.Fatalf("username %q: expected ErrValidation, got %v", name, err)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	email, err := normalizeEmail("  Alice@Example.COM ")
	if err != nil {
		t.Fatalf("normalizeEmail: %v", err)
	}
	if email != "alice@example.com" {
		t.Fatalf("unexpected normalization: %s", email)
	}
	for _, bad := range []string{"", "not-an-email", "a@b", "a b@c.d"} {
		if _, err := normalizeEmail(bad); !errors.Is(err, ErrValidation) {
			t.Fatalf("email %q: expected ErrValidation, got %v", bad, err)
		}
	}
}
