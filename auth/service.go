package auth

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/user/accounts-go/apperror"
)

// AuthService composes the credential store and token service into the
// register/login/logout/refresh flows.
type AuthService struct {
	store  UserStore
	tokens *TokenService
}

// NewAuthService creates a new AuthService.
func NewAuthService(store UserStore, tokens *TokenService) *AuthService {
	return &AuthService{store: store, tokens: tokens}
}

// Register validates nothing itself (the handler runs DTO validation),
// hashes the password, creates the user, and issues a token for it.
// Email uniqueness is enforced by the store at write time.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*User, *IssuedToken, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		Name: req.Name,
		// Emails are stored lowercase so uniqueness is case-insensitive.
		Email:          strings.ToLower(req.Email),
		HashedPassword: string(hashedPassword),
	}

	created, err := s.store.Create(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	token, err := s.tokens.Issue(created.ID)
	if err != nil {
		return nil, nil, apperror.NewInternalError("failed to issue token", err)
	}
	return created, token, nil
}

// Login authenticates by email and password and issues a token. Lookup
// misses and hash mismatches both collapse into the same 401 so the
// response does not reveal which credential was wrong. The bcrypt compare
// is constant-time.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*User, *IssuedToken, error) {
	user, err := s.store.ByEmail(ctx, req.Email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil, apperror.NewAuthError("Unauthorized", nil)
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		return nil, nil, apperror.NewAuthError("Unauthorized", nil)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, nil, apperror.NewInternalError("failed to issue token", err)
	}
	return user, token, nil
}

// Logout invalidates the presented token for the rest of its validity
// window. With no denylist configured this is a no-op and the client simply
// discards the token.
func (s *AuthService) Logout(ctx context.Context, raw string, claims *Claims) error {
	if err := s.tokens.Invalidate(ctx, raw, claims); err != nil {
		return apperror.NewInternalError("failed to invalidate token", err)
	}
	return nil
}

// Refresh re-verifies the presented token and issues a new one with a
// fresh TTL for the same subject.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*IssuedToken, error) {
	token, err := s.tokens.Refresh(ctx, raw)
	if err != nil {
		return nil, tokenError(err)
	}
	return token, nil
}
