package auth

import (
	"context"
	"errors"
	"testing"
)

func TestVerifyEmailFlow(t *testing.T) {
	env := newTestEnvWithMail(t)
	ctx := context.Background()

	user := env.register(t, "alice", "alice@example.com", "correct1horse")
	if user.IsVerified {
		t.Fatalf("new accounts start unverified")
	}
	if env.mailer.count() != 1 {
		t.Fatalf("expected one verification mail, got %d", env.mailer.count())
	}

	token := env.onetime.lastToken("verify-email")
	if token == "" {
		t.Fatalf("no verification token saved")
	}

	verified, err := env.svc.VerifyEmail(ctx, token)
	if err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	if !verified.IsVerified || verified.ID != user.ID {
		t.Fatalf("unexpected verification result: %+v", verified)
	}

	// Single use.
	if _, err := env.svc.VerifyEmail(ctx, token); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation on reuse, got %v", err)
	}
	if err := env.svc.ResendVerification(ctx, "alice@example.com"); !errors.Is(err, ErrValidation) {
		t.Fatalf("resend for verified account: expected ErrValidation, got %v", err)
	}
}

func TestResendVerification(t *testing.T) {
	env := newTestEnvWithMail(t)
	ctx := context.Background()

	env.register(t, "alice", "alice@example.com", "correct1horse")
	first := env.onetime.lastToken("verify-email")

	if err := env.svc.ResendVerification(ctx, "alice@example.com"); err != nil {
		t.Fatalf("ResendVerification: %v", err)
	}
	second := env.onetime.lastToken("verify-email")
	if second == "" || second == first {
		t.Fatalf("expected a fresh token on resend")
	}
	if _, err := env.svc.VerifyEmail(ctx, second); err != nil {
		t.Fatalf("VerifyEmail with fresh token: %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnvWithMail(t)
	ctx := context.Background()

	env.register(t, "alice", "alice@example.com", "correct1horse")
	pair := env.login(t, "alice", "correct1horse")

	if err := env.svc.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	token := env.onetime.lastToken("password-reset")
	if token == "" {
		t.Fatalf("no reset token saved")
	}

	// Policy failures must not burn the token.
	if err := env.svc.ResetPassword(ctx, token, "weak"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err := env.svc.ResetPassword(ctx, token, "brand2newpass"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}

	if _, err := env.svc.RefreshAccessToken(ctx, pair.RefreshToken.Signed); !errors.Is(err, ErrRevokedToken) {
		t.Fatalf("reset must revoke live sessions, got %v", err)
	}
	if _, err := env.svc.Authenticate(ctx, AuthenticateRequest{
		Username: "alice", Password: "correct1horse",
	}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	env.login(t, "alice", "brand2newpass")

	// Single use.
	if err := env.svc.ResetPassword(ctx, token, "third3password"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation on reuse, got %v", err)
	}
}

func TestPasswordResetUnknownEmail(t *testing.T) {
	env := newTestEnvWithMail(t)

	// Succeeds without leaking whether the address exists, and sends nothing.
	if err := env.svc.RequestPasswordReset(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if env.mailer.count() != 0 {
		t.Fatalf("no mail expected for unknown addresses")
	}
}

func TestVerificationRequiresConfiguration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.svc.VerifyEmail(ctx, "whatever"); err == nil {
		t.Fatalf("expected error when mail is not configured")
	}
	if err := env.svc.RequestPasswordReset(ctx, "a@example.com"); err == nil {
		t.Fatalf("expected error when mail is not configured")
	}
}
