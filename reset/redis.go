package reset

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is the externally-backed Store for multi-process deployments.
// Consume uses GETDEL, so the check and the mark are one server-side
// operation: of any number of racing consumers exactly one wins.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis builds a Redis-backed ticket store. An empty prefix defaults
// to "rst".
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "rst"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(hash [32]byte) string {
	return r.prefix + ":" + hex.EncodeToString(hash[:])
}

// Issue stores the token hash with the ticket TTL and returns the raw
// token once.
func (r *Redis) Issue(ctx context.Context, principalID string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("reset ttl must be positive")
	}
	raw, hash, err := newRawToken()
	if err != nil {
		return "", err
	}
	if err := r.client.Set(ctx, r.key(hash), principalID, ttl).Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return raw, nil
}

// Consume atomically fetches and deletes the ticket.
func (r *Redis) Consume(ctx context.Context, rawToken string) (string, error) {
	principalID, err := r.client.GetDel(ctx, r.key(hashRaw(rawToken))).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrTicketInvalidOrExpired
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return principalID, nil
}

// Prune is a no-op: Redis evicts tickets at their TTL.
func (r *Redis) Prune(context.Context) error {
	return nil
}
