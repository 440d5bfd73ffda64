package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultAudience is the audience, and the role, the identity provider
// stamps on signed-in user sessions.
const DefaultAudience = "authenticated"

// DefaultLeeway absorbs clock skew between the identity provider and us.
const DefaultLeeway = 30 * time.Second

// JWTClaims is the identity provider's access token payload.
type JWTClaims struct {
	jwt.RegisteredClaims

	Email       string `json:"email,omitempty"`
	Role        string `json:"role,omitempty"`
	IsAnonymous bool   `json:"is_anonymous,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
}

// JWTConfig configures token verification.
type JWTConfig struct {
	// SigningKey is the provider's shared HS256 secret.
	SigningKey string

	// Issuer, when set, must match iss.
	Issuer string

	// Audience must match aud. Defaults to DefaultAudience.
	Audience string

	// Leeway defaults to DefaultLeeway; negative disables it.
	Leeway time.Duration

	// AllowAnonymous accepts sessions the provider marks is_anonymous.
	AllowAnonymous bool
}

// JWTService verifies access tokens and, for local tooling and tests, issues them.
type JWTService struct {
	key            []byte
	audience       string
	allowAnonymous bool
	parser         []jwt.ParserOption
	issuer         string
	now            func() time.Time
}

// NewJWTService creates a new JWT service.
func NewJWTService(cfg JWTConfig) *JWTService {
	if cfg.Audience == "" {
		cfg.Audience = DefaultAudience
	}
	switch {
	case cfg.Leeway == 0:
		cfg.Leeway = DefaultLeeway
	case cfg.Leeway < 0:
		cfg.Leeway = 0
	}

	s := &JWTService{
		key:            []byte(cfg.SigningKey),
		audience:       cfg.Audience,
		allowAnonymous: cfg.AllowAnonymous,
		issuer:         cfg.Issuer,
		now:            time.Now,
	}
	s.parser = []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	}
	if cfg.Issuer != "" {
		s.parser = append(s.parser, jwt.WithIssuer(cfg.Issuer))
	}
	return s
}

// IssueAccessToken signs a user session token shaped like the provider's.
// The API never hands these out.
func (s *JWTService) IssueAccessToken(id Identity, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(ttl)

	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   id.UserID,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
		Email:     id.Email,
		Role:      DefaultAudience,
		SessionID: id.SessionID,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing access token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateAccessToken verifies signature, audience, issuer and expiry, then
// requires a signed-in user: a subject, the authenticated role, and no
// anonymous session unless allowed.
func (s *JWTService) ValidateAccessToken(tokenString string) (*Identity, error) {
	claims := &JWTClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	}, s.parser...)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrAccessTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrInvalidAccessToken, err)
	}

	switch {
	case claims.Subject == "":
		return nil, fmt.Errorf("%w: %w", ErrInvalidAccessToken, ErrMissingSubject)
	case claims.Role != "" && claims.Role != DefaultAudience:
		return nil, fmt.Errorf("%w: %w %q", ErrInvalidAccessToken, ErrRoleNotAllowed, claims.Role)
	case claims.IsAnonymous && !s.allowAnonymous:
		return nil, fmt.Errorf("%w: %w", ErrInvalidAccessToken, ErrAnonymousSession)
	}

	return &Identity{UserID: claims.Subject, Email: claims.Email, SessionID: claims.SessionID}, nil
}
