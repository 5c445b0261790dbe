package authcore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/croplink/authcore/internal/audit"
	"github.com/croplink/authcore/internal/metrics"
	"github.com/croplink/authcore/lockout"
	"github.com/croplink/authcore/password"
	"github.com/croplink/authcore/reset"
	"github.com/croplink/authcore/revocation"
	"github.com/croplink/authcore/token"
	"github.com/croplink/authcore/totp"
)

// Engine is the authentication core exposed to route handlers. It is
// safe for concurrent use after Build. None of its operations spawn
// background work; expiry of locks, revocations, and tickets is
// evaluated lazily at access time, with Prune available for deployments
// that need bounded memory regardless of traffic.
type Engine struct {
	cfg    Config
	store  PrincipalStore
	sender Sender

	policy *password.Policy
	hasher *password.Hasher
	issuer *token.Issuer

	revocations revocation.Registry
	lockouts    lockout.Manager
	tickets     reset.Store
	totp        *totp.Service

	metrics *metrics.Metrics
	audit   *audit.Dispatcher
	clock   func() time.Time

	// mfaMu serializes backup-code consumption and regeneration. The
	// principal is re-read from the store inside the critical section so
	// the reload, mark-used flip, and persisting Save cannot interleave
	// across callers holding stale copies.
	mfaMu sync.Mutex
}

// Authenticate verifies a credential pair (plus a one-time code when the
// principal has MFA enabled) and mints an access/refresh token pair.
//
// The lockout check runs before the credential comparison: a locked
// principal is rejected even when presenting the correct secret. Every
// failed comparison feeds the lockout manager; success resets it.
func (e *Engine) Authenticate(ctx context.Context, key, secret, mfaCode string) (TokenPair, error) {
	p, err := e.findPrincipal(ctx, key)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			e.metrics.Inc(metrics.LoginFailure)
			e.emit(ctx, audit.EventLoginFailure, "", false, err)
		}
		return TokenPair{}, err
	}

	if err := e.checkLockout(ctx, p.ID); err != nil {
		return TokenPair{}, err
	}

	match, err := e.hasher.Verify(secret, p.Hash)
	if err != nil {
		// A hash that no longer decodes is store corruption, not a
		// credential result.
		return TokenPair{}, fmt.Errorf("%w: %v", ErrPrincipalStoreUnavailable, err)
	}
	if !match {
		return TokenPair{}, e.failAttempt(ctx, p.ID, ErrInvalidCredentials)
	}

	if p.MFAEnabled {
		if mfaCode == "" {
			e.metrics.Inc(metrics.MFARequired)
			e.emit(ctx, audit.EventMFARequired, p.ID, false, nil)
			return TokenPair{}, ErrMFARequired
		}
		if !e.totp.VerifyCode(p.MFASecret, mfaCode) {
			e.metrics.Inc(metrics.MFAFailure)
			e.emit(ctx, audit.EventMFAFailure, p.ID, false, ErrMFAInvalid)
			return TokenPair{}, e.failAttempt(ctx, p.ID, ErrMFAInvalid)
		}
		e.metrics.Inc(metrics.MFASuccess)
	}

	return e.finishLogin(ctx, p, secret)
}

// Refresh exchanges a valid refresh token for a fresh access token. The
// refresh token stays valid; hosts wanting rotation revoke it via
// Logout after a successful exchange.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := e.issuer.Verify(ctx, refreshToken, token.KindRefresh)
	if err != nil {
		e.metrics.Inc(metrics.RefreshFailure)
		e.emit(ctx, audit.EventRefreshFailure, "", false, err)
		return "", err
	}

	access, err := e.issuer.Issue(claims.Subject, claims.Role, token.KindAccess, e.cfg.Token.AccessTTL)
	if err != nil {
		return "", err
	}

	e.metrics.Inc(metrics.RefreshSuccess)
	e.emit(ctx, audit.EventRefreshSuccess, claims.Subject, true, nil)
	return access, nil
}

// Logout revokes a token for the remainder of its validity window.
// Either kind may be presented; revocation is idempotent.
func (e *Engine) Logout(ctx context.Context, wire string) error {
	claims, err := e.issuer.Peek(wire)
	if err != nil {
		return err
	}
	if claims.ExpiresAt == nil {
		return ErrTokenMalformed
	}

	if err := e.revocations.Revoke(ctx, wire, claims.ExpiresAt.Time); err != nil {
		return err
	}

	e.metrics.Inc(metrics.TokenRevoked)
	e.emit(ctx, audit.EventLogout, claims.Subject, true, nil)
	return nil
}

// ValidateAccess verifies an access token and returns the principal id
// and role for the request context.
func (e *Engine) ValidateAccess(ctx context.Context, wire string) (string, Role, error) {
	claims, err := e.issuer.Verify(ctx, wire, token.KindAccess)
	if err != nil {
		return "", 0, err
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	return claims.Subject, role, nil
}

// Prune sweeps naturally expired entries out of the revocation registry
// and the reset-ticket store. Lazy, access-time cleanup is the default;
// Prune exists for deployments that need bounded memory regardless of
// access patterns.
func (e *Engine) Prune(ctx context.Context) error {
	if err := e.revocations.Prune(ctx); err != nil {
		return err
	}
	if err := e.tickets.Prune(ctx); err != nil {
		return err
	}
	e.metrics.Inc(metrics.PruneRuns)
	return nil
}

// MetricsSnapshot returns a point-in-time copy of the engine's counters.
func (e *Engine) MetricsSnapshot() metrics.Snapshot {
	return e.metrics.Snapshot()
}

// Close flushes and stops the audit dispatcher. The engine must not be
// used afterwards.
func (e *Engine) Close() {
	e.audit.Close()
}

// findPrincipal resolves a credential key, folding "not found" and
// "inactive" into ErrInvalidCredentials while letting store faults
// through untouched.
func (e *Engine) findPrincipal(ctx context.Context, key string) (*Principal, error) {
	p, err := e.store.FindByCredentialKey(ctx, key)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", ErrPrincipalStoreUnavailable, err)
	}
	if p == nil || !p.Active {
		return nil, ErrInvalidCredentials
	}
	return p, nil
}

// checkLockout reports a LockedError when the principal is locked.
func (e *Engine) checkLockout(ctx context.Context, principalID string) error {
	st, err := e.lockouts.Check(ctx, principalID)
	if err != nil {
		return err
	}
	if st.Locked {
		e.metrics.Inc(metrics.LoginLocked)
		e.emit(ctx, audit.EventLoginLocked, principalID, false, ErrAccountLocked)
		return &LockedError{LockedUntil: st.LockedUntil, Remaining: st.Remaining}
	}
	return nil
}

// failAttempt records a failed attempt and returns either cause or, when
// this attempt reached the threshold, the LockedError that superseded it.
func (e *Engine) failAttempt(ctx context.Context, principalID string, cause error) error {
	e.metrics.Inc(metrics.LoginFailure)
	e.emit(ctx, audit.EventLoginFailure, principalID, false, cause)

	st, err := e.lockouts.RecordFailure(ctx, principalID)
	if err != nil {
		return err
	}
	if st.Locked {
		e.metrics.Inc(metrics.LoginLocked)
		e.emit(ctx, audit.EventLoginLocked, principalID, false, ErrAccountLocked)
		return &LockedError{LockedUntil: st.LockedUntil, Remaining: st.Remaining}
	}
	return cause
}

// finishLogin resets lockout state, opportunistically upgrades the
// stored hash, and mints the token pair.
func (e *Engine) finishLogin(ctx context.Context, p *Principal, secret string) (TokenPair, error) {
	if err := e.lockouts.RecordSuccess(ctx, p.ID); err != nil {
		return TokenPair{}, err
	}

	if e.cfg.Password.UpgradeOnLogin {
		if upgrade, err := e.hasher.NeedsRehash(p.Hash); err == nil && upgrade {
			if newHash, err := e.hasher.Hash(secret); err == nil {
				p.Hash = newHash
				// Best effort: a failed upgrade save must not fail the login.
				_ = e.store.Save(ctx, p)
			}
		}
	}

	pair, err := e.issueTokens(p)
	if err != nil {
		return TokenPair{}, err
	}

	e.metrics.Inc(metrics.LoginSuccess)
	e.emit(ctx, audit.EventLoginSuccess, p.ID, true, nil)
	return pair, nil
}

func (e *Engine) issueTokens(p *Principal) (TokenPair, error) {
	access, err := e.issuer.Issue(p.ID, p.Role.String(), token.KindAccess, e.cfg.Token.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := e.issuer.Issue(p.ID, p.Role.String(), token.KindRefresh, e.cfg.Token.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (e *Engine) emit(ctx context.Context, eventType, principalID string, success bool, cause error) {
	if e.audit == nil {
		return
	}
	ev := audit.Event{
		Timestamp:   e.clock(),
		EventType:   eventType,
		PrincipalID: principalID,
		Success:     success,
	}
	if cause != nil {
		ev.Error = cause.Error()
	}
	e.audit.Emit(ctx, ev)
}
