package revocation

import (
	"context"
	"crypto/sha256"
	"errors"
	"time"
)

// ErrUnavailable indicates the revocation backend is unreachable. It is
// never downgraded to a credential failure: callers must surface it as an
// infrastructure fault.
var ErrUnavailable = errors.New("revocation backend unavailable")

// HashToken returns the stable registry key for a token's wire form.
func HashToken(wire string) [32]byte {
	return sha256.Sum256([]byte(wire))
}

// Registry tracks tokens that were explicitly invalidated before their
// natural expiry. An entry lives at most until the token's own expiry,
// which bounds registry size: after that point the verifier's expiry
// check rejects the token regardless of registry state.
//
// Revoke is idempotent. Once revoked, a token stays revoked for the rest
// of its validity window; pruning removes only entries whose expiry has
// already passed.
type Registry interface {
	// Revoke inserts the token's hash keyed to its own expiry. Revoking
	// an already-expired token is a no-op.
	Revoke(ctx context.Context, wire string, expiresAt time.Time) error
	// IsRevoked reports membership. Implementations may lazily drop
	// expired entries encountered during the lookup.
	IsRevoked(ctx context.Context, hash [32]byte) (bool, error)
	// Prune removes every entry whose expiry has passed. Lazy cleanup is
	// the default discipline; Prune exists for deployments that need
	// bounded memory regardless of access patterns.
	Prune(ctx context.Context) error
}
