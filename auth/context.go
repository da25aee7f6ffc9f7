package auth

import (
	"context"
)

// contextKey is a custom type for context keys, preventing collisions with
// keys from other packages.
type contextKey string

const (
	actorContextKey contextKey = "auth_actor"
	tokenContextKey contextKey = "auth_token"
)

// tokenInfo bundles the raw bearer token with its verified claims, so the
// logout handler can revoke the exact token that authenticated the request.
type tokenInfo struct {
	raw    string
	claims *Claims
}

// NewContextWithActor returns a child context carrying the authenticated
// user resolved by the token middleware.
func NewContextWithActor(ctx context.Context, actor *User) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// ActorFromContext extracts the authenticated user from the context.
func ActorFromContext(ctx context.Context) (*User, bool) {
	actor, ok := ctx.Value(actorContextKey).(*User)
	return actor, ok
}

// NewContextWithToken returns a child context carrying the verified bearer
// token and its claims.
func NewContextWithToken(ctx context.Context, raw string, claims *Claims) context.Context {
	return context.WithValue(ctx, tokenContextKey, &tokenInfo{raw: raw, claims: claims})
}

// TokenFromContext extracts the raw bearer token and its claims from the
// context.
func TokenFromContext(ctx context.Context) (string, *Claims, bool) {
	info, ok := ctx.Value(tokenContextKey).(*tokenInfo)
	if !ok {
		return "", nil, false
	}
	return info.raw, info.claims, true
}
