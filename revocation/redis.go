package revocation

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is the externally-backed Registry for multi-process deployments.
// Each entry is a key whose TTL equals the token's remaining validity, so
// Redis itself enforces the entry-lifetime invariant and Prune has
// nothing to sweep.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis builds a Redis-backed registry. An empty prefix defaults to
// "rvk".
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "rvk"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(hash [32]byte) string {
	return r.prefix + ":" + hex.EncodeToString(hash[:])
}

// Revoke stores the token hash with TTL equal to the token's remaining
// validity. SET NX keeps the call idempotent without extending an
// existing entry's lifetime.
func (r *Redis) Revoke(ctx context.Context, wire string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := r.client.SetNX(ctx, r.key(HashToken(wire)), "1", ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// IsRevoked reports key existence; expiry is handled by Redis TTLs.
func (r *Redis) IsRevoked(ctx context.Context, hash [32]byte) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(hash)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n > 0, nil
}

// Prune is a no-op: Redis evicts entries at their TTL.
func (r *Redis) Prune(context.Context) error {
	return nil
}
