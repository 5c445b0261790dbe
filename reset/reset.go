package reset

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"
)

var (
	// ErrTicketInvalidOrExpired covers every consume failure: the ticket
	// is unknown, already used, or past its expiry. Callers get one
	// indistinguishable answer so the store leaks nothing about which.
	ErrTicketInvalidOrExpired = errors.New("reset ticket invalid or expired")
	// ErrUnavailable indicates the ticket backend is unreachable.
	ErrUnavailable = errors.New("reset backend unavailable")
)

const rawTokenBytes = 32

// Store issues and consumes single-use, time-bounded password-reset
// tickets. Issue returns the raw token exactly once; only its SHA-256
// survives in the store. Consume is a single combined check-and-mark:
// once it succeeds for a token, every later call fails, even if the
// password change that follows never happens.
type Store interface {
	Issue(ctx context.Context, principalID string, ttl time.Duration) (string, error)
	Consume(ctx context.Context, rawToken string) (string, error)
	// Prune drops expired tickets for deployments that need bounded
	// memory regardless of access patterns.
	Prune(ctx context.Context) error
}

// newRawToken returns a fresh opaque token and its storage hash.
func newRawToken() (string, [32]byte, error) {
	buf := make([]byte, rawTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", [32]byte{}, err
	}
	raw := base64.RawURLEncoding.EncodeToString(buf)
	return raw, sha256.Sum256([]byte(raw)), nil
}

func hashRaw(rawToken string) [32]byte {
	return sha256.Sum256([]byte(rawToken))
}
