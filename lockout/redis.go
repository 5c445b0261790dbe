package lockout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is the externally-backed Manager for multi-process deployments.
// The attempt counter is a rolling-window INCR key and the lock is a
// separate key whose TTL is the lockout duration, so the lazy unlock
// transition is enforced by Redis expiry.
type Redis struct {
	client redis.UniversalClient
	cfg    Config
	prefix string
}

// NewRedis builds a Redis-backed manager. An empty prefix defaults to
// "lko".
func NewRedis(client redis.UniversalClient, cfg Config, prefix string) (*Redis, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = "lko"
	}
	return &Redis{client: client, cfg: cfg, prefix: prefix}, nil
}

func (r *Redis) attemptsKey(principalID string) string {
	return r.prefix + ":att:" + principalID
}

func (r *Redis) lockKey(principalID string) string {
	return r.prefix + ":lck:" + principalID
}

// Check reports the principal's state. The lock key stores lockedUntil as
// a unix timestamp and expires on its own, which is the Locked→Unlocked
// transition.
func (r *Redis) Check(ctx context.Context, principalID string) (Status, error) {
	val, err := r.client.Get(ctx, r.lockKey(principalID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Status{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err == nil {
		until, parseErr := strconv.ParseInt(val, 10, 64)
		if parseErr != nil {
			return Status{}, fmt.Errorf("%w: corrupt lock value %q", ErrUnavailable, val)
		}
		lockedUntil := time.Unix(until, 0)
		if remaining := time.Until(lockedUntil); remaining > 0 {
			return Status{Locked: true, LockedUntil: lockedUntil, Remaining: remaining}, nil
		}
		// Value outlived its TTL boundary by a tick; treat as unlocked.
	}

	attempts, err := r.client.Get(ctx, r.attemptsKey(principalID)).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Status{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	left := r.cfg.Threshold - attempts
	if left < 0 {
		left = 0
	}
	return Status{AttemptsLeft: left}, nil
}

// RecordFailure increments the rolling-window counter. INCR is atomic on
// the server, so no two concurrent failures can both observe attempts-1.
// The caller that reaches the threshold installs the lock key; SETNX
// keeps racing callers from extending it.
func (r *Redis) RecordFailure(ctx context.Context, principalID string) (Status, error) {
	attKey := r.attemptsKey(principalID)

	count, err := r.client.Incr(ctx, attKey).Result()
	if err != nil {
		return Status{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count == 1 {
		// Rolling window: the counter resets on its own if failures stop.
		if err := r.client.Expire(ctx, attKey, r.cfg.Duration).Err(); err != nil {
			return Status{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	if count >= int64(r.cfg.Threshold) {
		lockedUntil := time.Now().Add(r.cfg.Duration)
		set, err := r.client.SetNX(ctx, r.lockKey(principalID), strconv.FormatInt(lockedUntil.Unix(), 10), r.cfg.Duration).Result()
		if err != nil {
			return Status{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if set {
			// The counter's job is done for this window.
			if err := r.client.Del(ctx, attKey).Err(); err != nil {
				return Status{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
		}
		return r.Check(ctx, principalID)
	}

	left := r.cfg.Threshold - int(count)
	if left < 0 {
		left = 0
	}
	return Status{AttemptsLeft: left}, nil
}

// RecordSuccess clears both the counter and any lock.
func (r *Redis) RecordSuccess(ctx context.Context, principalID string) error {
	if err := r.client.Del(ctx, r.attemptsKey(principalID), r.lockKey(principalID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
