package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

// Denylist is a store of invalidated tokens, consulted during verification
// so logout takes effect before natural expiry.
type Denylist interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// RedisDenylist stores revoked token digests in Redis, keyed by the SHA-256
// of the raw token so the tokens themselves never land in the store. Entries
// expire with the token, so the denylist never outgrows the set of live
// revocations.
type RedisDenylist struct {
	client *redis.Client
}

// NewRedisDenylist creates a Denylist backed by the given Redis client.
func NewRedisDenylist(client *redis.Client) *RedisDenylist {
	return &RedisDenylist{client: client}
}

func denylistKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "denylist:" + hex.EncodeToString(sum[:])
}

// Revoke marks a token unusable for ttl (its remaining validity).
func (d *RedisDenylist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	return d.client.Set(ctx, denylistKey(token), "revoked", ttl).Err()
}

// IsRevoked reports whether a token has been revoked.
func (d *RedisDenylist) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := d.client.Exists(ctx, denylistKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// noopDenylist is used when no Redis address is configured: tokens stay
// valid until natural expiry and logout is client-side token disposal.
type noopDenylist struct{}

// NewNoopDenylist returns a Denylist that never revokes anything.
func NewNoopDenylist() Denylist {
	return noopDenylist{}
}

func (noopDenylist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	return nil
}

func (noopDenylist) IsRevoked(ctx context.Context, token string) (bool, error) {
	return false, nil
}
