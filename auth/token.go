package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/user/accounts-go/config"
)

// Token verification failures. The middleware maps these onto the wire-level
// token error responses.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenAbsent  = errors.New("token absent")
)

// Claims defines the JWT payload: the user identity plus registered claims.
type Claims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

// IssuedToken is a freshly signed token together with its expiry metadata.
type IssuedToken struct {
	Token     string
	ExpiresIn int64 // seconds until expiry
	ExpiresAt time.Time
}

// TokenService issues, verifies, invalidates, and refreshes bearer tokens.
// Validity is cryptographic (HS256 signature + exp claim); the denylist adds
// revocation on top for enforceable logout.
type TokenService struct {
	secret   []byte
	ttl      time.Duration
	issuer   string
	denylist Denylist
}

// NewTokenService creates a TokenService. Pass NewNoopDenylist() when no
// revocation store is configured.
func NewTokenService(cfg config.AuthConfig, denylist Denylist) *TokenService {
	return &TokenService{
		secret:   []byte(cfg.JWTSecret),
		ttl:      cfg.TokenTTL,
		issuer:   cfg.Issuer,
		denylist: denylist,
	}
}

// Issue creates a signed token with subject userID and the configured TTL.
func (s *TokenService) Issue(userID int) (*IssuedToken, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Subject:   fmt.Sprintf("%d", userID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &IssuedToken{
		Token:     tokenString,
		ExpiresIn: int64(s.ttl / time.Second),
		ExpiresAt: expiresAt,
	}, nil
}

// Verify checks signature and expiry of a raw token and returns its claims.
// It fails with ErrTokenAbsent for an empty token, ErrTokenExpired past the
// exp claim, and ErrTokenInvalid for any signature, format, or revocation
// problem.
func (s *TokenService) Verify(ctx context.Context, raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrTokenAbsent
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, ErrTokenInvalid
	}

	revoked, err := s.denylist.IsRevoked(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("denylist lookup failed: %w", err)
	}
	if revoked {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// Invalidate revokes a verified token for the remainder of its validity
// window. With the no-op denylist this does nothing and logout is purely
// client-side.
func (s *TokenService) Invalidate(ctx context.Context, raw string, claims *Claims) error {
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return nil // already expired, nothing to revoke
	}
	return s.denylist.Revoke(ctx, raw, remaining)
}

// Refresh validates the old token and issues a new token with a fresh TTL
// for the same subject. The old token remains valid until its natural
// expiry; only logout revokes.
func (s *TokenService) Refresh(ctx context.Context, raw string) (*IssuedToken, error) {
	claims, err := s.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return s.Issue(claims.UserID)
}
