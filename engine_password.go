package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/croplink/authcore/internal/audit"
	"github.com/croplink/authcore/internal/metrics"
)

// ChangePassword rotates a principal's credential after verifying the
// current one. The lockout manager guards the current-secret comparison
// exactly as it guards Authenticate, so a stolen session cannot be used
// to brute-force the credential through this path.
func (e *Engine) ChangePassword(ctx context.Context, principalID, current, next string) error {
	p, err := e.loadPrincipal(ctx, principalID)
	if err != nil {
		return err
	}

	if err := e.checkLockout(ctx, p.ID); err != nil {
		return err
	}

	match, err := e.hasher.Verify(current, p.Hash)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPrincipalStoreUnavailable, err)
	}
	if !match {
		return e.failAttempt(ctx, p.ID, ErrInvalidCredentials)
	}
	if err := e.lockouts.RecordSuccess(ctx, p.ID); err != nil {
		return err
	}

	if err := e.vetNewPassword(ctx, p, next); err != nil {
		return err
	}
	if err := e.applyPasswordChange(ctx, p, next); err != nil {
		return err
	}

	e.metrics.Inc(metrics.PasswordChanged)
	e.emit(ctx, audit.EventPasswordChanged, p.ID, true, nil)
	return nil
}

// RequestReset issues a reset ticket and hands it to the configured
// sender. An unknown or inactive credential key returns nil without
// side effects so the call is not a principal-enumeration oracle; only
// store, ticket-store, and sender faults surface.
func (e *Engine) RequestReset(ctx context.Context, key string) error {
	p, err := e.store.FindByCredentialKey(ctx, key)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrPrincipalStoreUnavailable, err)
	}
	if p == nil || !p.Active {
		return nil
	}

	raw, err := e.tickets.Issue(ctx, p.ID, e.cfg.Reset.TTL)
	if err != nil {
		return err
	}

	if err := e.sender.SendResetTicket(ctx, p, raw); err != nil {
		return fmt.Errorf("%w: %v", ErrSenderUnavailable, err)
	}

	e.metrics.Inc(metrics.ResetRequested)
	e.emit(ctx, audit.EventResetRequested, p.ID, true, nil)
	return nil
}

// ConfirmReset consumes a reset ticket and installs the new credential.
// The ticket is spent on the first call whatever happens afterwards: a
// policy rejection after consumption does not revive it, the principal
// must request a fresh one. A confirmed reset also clears any lockout,
// since possession of the ticket proves control of the recovery channel.
func (e *Engine) ConfirmReset(ctx context.Context, rawTicket, newPassword string) error {
	principalID, err := e.tickets.Consume(ctx, rawTicket)
	if err != nil {
		if errors.Is(err, ErrResetTicketInvalid) {
			e.metrics.Inc(metrics.ResetFailed)
			e.emit(ctx, audit.EventResetFailure, "", false, err)
		}
		return err
	}

	p, err := e.store.FindByID(ctx, principalID)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			// Principal deleted between issue and confirm.
			return ErrResetTicketInvalid
		}
		return fmt.Errorf("%w: %v", ErrPrincipalStoreUnavailable, err)
	}

	if err := e.vetNewPassword(ctx, p, newPassword); err != nil {
		return err
	}
	if err := e.applyPasswordChange(ctx, p, newPassword); err != nil {
		return err
	}
	if err := e.lockouts.RecordSuccess(ctx, p.ID); err != nil {
		return err
	}

	e.metrics.Inc(metrics.ResetConfirmed)
	e.emit(ctx, audit.EventResetConfirmed, p.ID, true, nil)
	return nil
}

// vetNewPassword runs the candidate through the policy and the reuse
// check against the current hash plus retained history.
func (e *Engine) vetNewPassword(ctx context.Context, p *Principal, candidate string) error {
	if violations := e.policy.Validate(candidate); len(violations) > 0 {
		e.metrics.Inc(metrics.PasswordPolicyRejected)
		e.emit(ctx, audit.EventPasswordRejected, p.ID, false, ErrPasswordPolicy)
		return &PolicyError{Violations: violations}
	}

	same, err := e.hasher.Verify(candidate, p.Hash)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPrincipalStoreUnavailable, err)
	}
	if same || e.hasher.CheckHistory(candidate, p.PriorHashes) {
		e.metrics.Inc(metrics.PasswordReuseRejected)
		e.emit(ctx, audit.EventPasswordRejected, p.ID, false, ErrPasswordReused)
		return ErrPasswordReused
	}
	return nil
}

// applyPasswordChange hashes the new credential, rotates the old hash
// into history, and persists the record.
func (e *Engine) applyPasswordChange(ctx context.Context, p *Principal, newPassword string) error {
	newHash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	oldHash := p.Hash
	p.PushHistory(oldHash)
	p.Hash = newHash
	p.PasswordChangedAt = e.clock()

	if err := e.store.AppendCredentialHistory(ctx, p, oldHash); err != nil {
		return fmt.Errorf("%w: %v", ErrPrincipalStoreUnavailable, err)
	}
	if err := e.store.Save(ctx, p); err != nil {
		return fmt.Errorf("%w: %v", ErrPrincipalStoreUnavailable, err)
	}
	return nil
}

// loadPrincipal resolves an id, reporting ErrPrincipalNotFound for
// missing or inactive records and wrapping backend faults.
func (e *Engine) loadPrincipal(ctx context.Context, id string) (*Principal, error) {
	p, err := e.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPrincipalStoreUnavailable, err)
	}
	if p == nil || !p.Active {
		return nil, ErrPrincipalNotFound
	}
	return p, nil
}

func (e *Engine) savePrincipal(ctx context.Context, p *Principal) error {
	if err := e.store.Save(ctx, p); err != nil {
		return fmt.Errorf("%w: %v", ErrPrincipalStoreUnavailable, err)
	}
	return nil
}
