package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// Defaults per the platform security baseline: short-lived access
	// tokens, week-long refresh tokens.
	DefaultAccessTTL  = 30 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour

	defaultIssuer = "forgeml-userd"
)

// Claims is the JWT payload for both token kinds. Permissions are a snapshot
// taken at issuance and only present on access tokens.
type Claims struct {
	Kind        TokenKind `json:"kind"`
	Permissions []string  `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// VerifiedToken is the decoded, signature-checked view of a presented token.
type VerifiedToken struct {
	UserID      string
	Kind        TokenKind
	Permissions []string
	TokenID     string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// TokenService issues and verifies signed tokens. It is stateless beyond the
// signing secret and the clock, so verification is safe for unlimited
// concurrency.
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithIssuer overrides the iss claim.
func WithIssuer(issuer string) TokenOption {
	return func(s *TokenService) {
		if issuer = strings.TrimSpace(issuer); issuer != "" {
			s.issuer = issuer
		}
	}
}

// WithAccessTTL sets the access token lifetime.
func WithAccessTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) {
		if ttl > 0 {
			s.accessTTL = ttl
		}
	}
}

// WithRefreshTTL sets the refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) TokenOption {
	return func(s *TokenService) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewTokenService builds a token service signing with the given HS256 secret.
func NewTokenService(secret string, opts ...TokenOption) (*TokenService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	svc := &TokenService{
		secret:     []byte(secret),
		issuer:     defaultIssuer,
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// AccessTTL reports the configured access-token lifetime.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL reports the configured refresh-token lifetime.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// IssueAccessToken mints an access token for userID carrying the given
// permission snapshot.
func (s *TokenService) IssueAccessToken(userID string, perms PermissionSet) (Token, error) {
	return s.issue(userID, TokenKindAccess, perms.Strings(), s.accessTTL)
}

// IssueRefreshToken mints a refresh token for userID. Refresh tokens carry
// no permissions; the snapshot is recomputed when they mint access tokens.
func (s *TokenService) IssueRefreshToken(userID string) (Token, error) {
	return s.issue(userID, TokenKindRefresh, nil, s.refreshTTL)
}

func (s *TokenService) issue(userID string, kind TokenKind, perms []string, ttl time.Duration) (Token, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Token{}, fmt.Errorf("%w: user id is required", ErrValidation)
	}

	now := s.now().UTC()
	jti := uuid.NewString()
	claims := Claims{
		Kind:        kind,
		Permissions: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	return Token{
		Signed:    signed,
		ID:        jti,
		UserID:    userID,
		Kind:      kind,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// Verify checks signature, structure and expiry of a presented token.
// Expiry comparisons are second-granularity UTC, as encoded in the claims.
func (s *TokenService) Verify(tokenString string) (*VerifiedToken, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformedToken)
	}

	parser := jwt.NewParser(
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
		jwt.WithIssuer(s.issuer),
	)
	parsed, err := parser.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %v", ErrExpiredToken, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%w: invalid claims", ErrMalformedToken)
	}
	if strings.TrimSpace(claims.Subject) == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing subject or token id", ErrMalformedToken)
	}
	if claims.Kind != TokenKindAccess && claims.Kind != TokenKindRefresh {
		return nil, fmt.Errorf("%w: unknown token kind %q", ErrMalformedToken, claims.Kind)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: timestamps missing", ErrMalformedToken)
	}

	return &VerifiedToken{
		UserID:      claims.Subject,
		Kind:        claims.Kind,
		Permissions: claims.Permissions,
		TokenID:     claims.ID,
		IssuedAt:    claims.IssuedAt.Time,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}
