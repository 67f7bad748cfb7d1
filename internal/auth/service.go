package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/forgeml/platform/internal/obs"
)

// Service orchestrates the auth core: it owns no state of its own and talks
// to the user/role store, the session store and the rate-limit counter store
// through their interfaces. All operations are safe for concurrent use.
type Service struct {
	users    UserStore
	roles    RoleStore
	sessions SessionStore
	tokens   *TokenService
	hasher   *PasswordHasher

	loginLimiter    RateLimiter
	registerLimiter RateLimiter
	policy          PasswordPolicy

	onetime OneTimeTokenStore
	mailer  Mailer

	log *zap.Logger
}

// ServiceOption configures optional collaborators.
type ServiceOption func(*Service)

// WithLoginLimiter guards Authenticate. Recommended: fail-closed.
func WithLoginLimiter(l RateLimiter) ServiceOption {
	return func(s *Service) { s.loginLimiter = l }
}

// WithRegisterLimiter guards Register. Recommended: fail-open.
func WithRegisterLimiter(l RateLimiter) ServiceOption {
	return func(s *Service) { s.registerLimiter = l }
}

// WithPasswordPolicy overrides the default policy.
func WithPasswordPolicy(p PasswordPolicy) ServiceOption {
	return func(s *Service) { s.policy = p }
}

// WithVerificationMail enables email verification and password reset flows.
func WithVerificationMail(store OneTimeTokenStore, mailer Mailer) ServiceOption {
	return func(s *Service) {
		s.onetime = store
		s.mailer = mailer
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *zap.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// NewService wires the auth core together.
func NewService(users UserStore, roles RoleStore, sessions SessionStore, tokens *TokenService, hasher *PasswordHasher, opts ...ServiceOption) (*Service, error) {
	if users == nil || roles == nil || sessions == nil {
		return nil, errors.New("auth: user, role and session stores are required")
	}
	if tokens == nil || hasher == nil {
		return nil, errors.New("auth: token service and password hasher are required")
	}
	svc := &Service{
		users:    users,
		roles:    roles,
		sessions: sessions,
		tokens:   tokens,
		hasher:   hasher,
		policy:   DefaultPasswordPolicy(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// RegisterRequest is the self-registration input.
type RegisterRequest struct {
	Username string
	Email    string
	Password string
	FullName string
	// Source identifies the caller for rate limiting, typically a client IP.
	Source string
}

// Register creates an account with the default role and a hashed password,
// then kicks off email verification when a mailer is configured.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if s.registerLimiter != nil {
		if err := s.registerLimiter.Allow(ctx, limiterKey("register", req.Source)); err != nil {
			if errors.Is(err, ErrRateLimited) {
				obs.RateLimited("register")
			}
			return nil, err
		}
	}

	if err := validateUsername(req.Username); err != nil {
		return nil, err
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Validate(req.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, err
	}

	defaultRole, err := s.roles.GetByName(ctx, DefaultRoleName)
	if err != nil {
		return nil, fmt.Errorf("resolve default role: %w", err)
	}

	user := &User{
		Username:     req.Username,
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		IsActive:     true,
		RoleIDs:      []string{defaultRole.ID},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", user.ID), zap.String("username", user.Username))

	if s.onetime != nil {
		// Best effort: registration already succeeded, the token can be
		// re-sent via ResendVerification.
		if err := s.sendVerification(ctx, user); err != nil {
			s.log.Warn("verification mail failed", zap.String("user_id", user.ID), zap.Error(err))
		}
	}
	return user, nil
}

// AuthenticateRequest is the login input. Username accepts a username or an
// email address.
type AuthenticateRequest struct {
	Username string
	Password string
	Source   string
}

// Authenticate checks credentials, snapshots the user's permissions from the
// current role assignment, issues an access/refresh pair and records the
// refresh token id in the session store.
func (s *Service) Authenticate(ctx context.Context, req AuthenticateRequest) (*TokenPair, error) {
	if s.loginLimiter != nil {
		if err := s.loginLimiter.Allow(ctx, limiterKey("login", req.Source)); err != nil {
			if errors.Is(err, ErrRateLimited) {
				obs.RateLimited("login")
			}
			return nil, err
		}
	}

	user, err := s.lookupAccount(ctx, req.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			obs.AuthAttempt("failure")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(ctx, req.Password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok || !user.IsActive {
		obs.AuthAttempt("failure")
		return nil, ErrInvalidCredentials
	}

	perms, err := s.permissionSnapshot(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	pair, err := s.issuePair(ctx, user.ID, perms)
	if err != nil {
		return nil, err
	}

	obs.AuthAttempt("success")
	s.log.Info("user authenticated", zap.String("user_id", user.ID))
	return pair, nil
}

// RefreshAccessToken mints a new access token from a live refresh token. The
// refresh token itself is not rotated; it stays valid until its own expiry
// or explicit revocation. The permission snapshot is recomputed, so role
// changes take effect here.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (*Token, error) {
	verified, err := s.tokens.Verify(refreshToken)
	if err != nil {
		return nil, err
	}
	if verified.Kind != TokenKindRefresh {
		return nil, fmt.Errorf("%w: not a refresh token", ErrMalformedToken)
	}

	if _, err := s.sessions.Get(ctx, verified.TokenID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrRevokedToken
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, verified.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrRevokedToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrRevokedToken
	}

	perms, err := s.permissionSnapshot(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	access, err := s.tokens.IssueAccessToken(user.ID, perms)
	if err != nil {
		return nil, err
	}
	obs.TokenIssued(string(TokenKindAccess))
	return &access, nil
}

// Logout revokes the refresh token's session record. Logging out twice, or
// with an already-expired token, is not an error.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	verified, err := s.tokens.Verify(refreshToken)
	if err != nil {
		if errors.Is(err, ErrExpiredToken) {
			// Session record expires with the token; nothing to revoke.
			return nil
		}
		return err
	}
	if verified.Kind != TokenKindRefresh {
		return fmt.Errorf("%w: not a refresh token", ErrMalformedToken)
	}
	if err := s.sessions.Delete(ctx, verified.TokenID); err != nil {
		return err
	}
	s.log.Info("user logged out", zap.String("user_id", verified.UserID))
	return nil
}

// ChangePassword verifies the current password, enforces policy on the new
// one, persists the new hash and revokes every live refresh token for the
// user so other devices must log in again.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Verify(ctx, currentPassword, user.PasswordHash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}
	if currentPassword == newPassword {
		return fmt.Errorf("%w: new password must differ from the current one", ErrValidation)
	}
	if err := s.policy.Validate(newPassword); err != nil {
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
	s.log.Info("password changed", zap.String("user_id", userID))
	return nil
}

// AuthorizeRequest verifies an access token and checks the required
// permission against the snapshot carried in its claims. It returns the
// authenticated user id; ErrUnauthenticated and ErrForbidden are distinct so
// callers can emit distinct signals.
func (s *Service) AuthorizeRequest(ctx context.Context, accessToken, requiredPermission string) (string, error) {
	verified, err := s.tokens.Verify(accessToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if verified.Kind != TokenKindAccess {
		return "", fmt.Errorf("%w: not an access token", ErrUnauthenticated)
	}
	if !PermissionSetOf(verified.Permissions).Allows(requiredPermission) {
		return "", fmt.Errorf("%w: missing permission %q", ErrForbidden, requiredPermission)
	}
	return verified.UserID, nil
}

// lookupAccount finds a user by username, or by email when the identifier
// contains '@' (login forms accept either).
func (s *Service) lookupAccount(ctx context.Context, identifier string) (*User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrNotFound
	}
	if strings.Contains(identifier, "@") {
		return s.users.GetByEmail(ctx, strings.ToLower(identifier))
	}
	return s.users.GetByUsername(ctx, identifier)
}

// permissionSnapshot unions the permissions of the user's current roles.
func (s *Service) permissionSnapshot(ctx context.Context, userID string) (PermissionSet, error) {
	roles, err := s.roles.RolesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return NewPermissionSet(roles...), nil
}

// issuePair mints both tokens and records the refresh token id.
func (s *Service) issuePair(ctx context.Context, userID string, perms PermissionSet) (*TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(userID, perms)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefreshToken(userID)
	if err != nil {
		return nil, err
	}
	rec := SessionRecord{
		TokenID:   refresh.ID,
		UserID:    userID,
		Kind:      TokenKindRefresh,
		ExpiresAt: refresh.ExpiresAt,
	}
	if err := s.sessions.Put(ctx, rec); err != nil {
		return nil, err
	}
	obs.TokenIssued(string(TokenKindAccess))
	obs.TokenIssued(string(TokenKindRefresh))
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func limiterKey(endpoint, source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		source = "unknown"
	}
	return endpoint + ":" + source
}
