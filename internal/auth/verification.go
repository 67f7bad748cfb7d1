package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/forgeml/platform/internal/ids"
)

// Email verification and password reset ride on single-use opaque tokens in
// the one-time-token store; both flows are no-ops unless the service was
// built with WithVerificationMail.

const (
	purposeVerifyEmail   = "verify-email"
	purposePasswordReset = "password-reset"

	verifyTokenTTL = 24 * time.Hour
	resetTokenTTL  = time.Hour
)

var errMailNotConfigured = errors.New("auth: verification mail is not configured")

func (s *Service) sendVerification(ctx context.Context, user *User) error {
	token, err := ids.NewOpaqueToken()
	if err != nil {
		return fmt.Errorf("generate verification token: %w", err)
	}
	if err := s.onetime.Save(ctx, purposeVerifyEmail, token, user.ID, verifyTokenTTL); err != nil {
		return err
	}
	if s.mailer == nil {
		return nil
	}
	subject := "Verify your email"
	body := fmt.Sprintf("<p>Hi %s,</p><p>Your verification token is <code>%s</code>. It expires in 24 hours.</p>", user.Username, token)
	return s.mailer.Send(ctx, user.Email, subject, body)
}

// VerifyEmail consumes a verification token and marks the account verified.
// Verifying an already-verified account is not an error.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*User, error) {
	if s.onetime == nil {
		return nil, errMailNotConfigured
	}
	userID, err := s.onetime.Consume(ctx, purposeVerifyEmail, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid or expired verification token", ErrValidation)
		}
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.IsVerified {
		return user, nil
	}
	if err := s.users.SetVerified(ctx, userID); err != nil {
		return nil, err
	}
	user.IsVerified = true
	s.log.Info("email verified", zap.String("user_id", userID))
	return user, nil
}

// ResendVerification issues a fresh verification token for an unverified
// account.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	if s.onetime == nil {
		return errMailNotConfigured
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return fmt.Errorf("%w: email is already verified", ErrValidation)
	}
	return s.sendVerification(ctx, user)
}

// RequestPasswordReset mails a reset token when the email belongs to an
// account. It succeeds either way so the endpoint cannot be used to probe
// which addresses exist.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if s.onetime == nil {
		return errMailNotConfigured
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.log.Warn("password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, err := ids.NewOpaqueToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	if err := s.onetime.Save(ctx, purposePasswordReset, token, user.ID, resetTokenTTL); err != nil {
		return err
	}
	if s.mailer != nil {
		subject := "Password reset"
		body := fmt.Sprintf("<p>Your password reset token is <code>%s</code>. It expires in one hour.</p>", token)
		if err := s.mailer.Send(ctx, user.Email, subject, body); err != nil {
			return err
		}
	}
	s.log.Info("password reset requested", zap.String("user_id", user.ID))
	return nil
}

// ResetPassword consumes a reset token, enforces policy, persists the new
// hash and revokes every live refresh token for the user.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if s.onetime == nil {
		return errMailNotConfigured
	}
	if err := s.policy.Validate(newPassword); err != nil {
		return err
	}
	userID, err := s.onetime.Consume(ctx, purposePasswordReset, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: invalid or expired reset token", ErrValidation)
		}
		return err
	}
	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	if err := s.sessions.RevokeUser(ctx, userID); err != nil {
		return err
	}
	s.log.Info("password reset", zap.String("user_id", userID))
	return nil
}
