package auth

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,50}$`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// PasswordPolicy is the configurable strength requirement applied on
// registration and password change.
type PasswordPolicy struct {
	MinLength      int
	RequireLetter  bool
	RequireDigit   bool
	RequireSpecial bool
}

// DefaultPasswordPolicy matches the platform baseline: 8+ characters with at
// least one letter and one digit.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{MinLength: 8, RequireLetter: true, RequireDigit: true}
}

// Validate checks password against the policy and the hasher's byte limit.
func (p PasswordPolicy) Validate(password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, p.MinLength)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: password exceeds %d bytes", ErrValidation, maxPasswordBytes)
	}
	var hasLetter, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	if p.RequireLetter && !hasLetter {
		return fmt.Errorf("%w: password must contain a letter", ErrValidation)
	}
	if p.RequireDigit && !hasDigit {
		return fmt.Errorf("%w: password must contain a digit", ErrValidation)
	}
	if p.RequireSpecial && !hasSpecial {
		return fmt.Errorf("%w: password must contain a special character", ErrValidation)
	}
	return nil
}

func validateUsername(username string) error {
	if !usernameRe.MatchString(username) {
		return fmt.Errorf("%w: username must be 3-50 characters of letters, digits, '_', '.' or '-'", ErrValidation)
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRe.MatchString(email) {
		return "", fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	return email, nil
}
