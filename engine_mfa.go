package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/croplink/authcore/internal/audit"
	"github.com/croplink/authcore/internal/metrics"
	"github.com/croplink/authcore/totp"
)

// EnrollMFA provisions a TOTP secret and backup codes for a principal.
// The secret is stored but MFA stays dormant until VerifyAndEnableMFA
// proves the principal's authenticator produces valid codes. Returns
// ErrMFAAlreadyEnabled while MFA is active; re-running while dormant
// replaces the pending secret and codes.
func (e *Engine) EnrollMFA(ctx context.Context, principalID string) (*MFAEnrollment, error) {
	p, err := e.loadPrincipal(ctx, principalID)
	if err != nil {
		return nil, err
	}
	if p.MFAEnabled {
		return nil, ErrMFAAlreadyEnabled
	}

	enrollment, records, err := e.totp.Enroll(p.CredentialKey)
	if err != nil {
		return nil, err
	}

	p.MFASecret = enrollment.Secret
	p.BackupCodes = records
	if err := e.savePrincipal(ctx, p); err != nil {
		return nil, err
	}

	e.emit(ctx, audit.EventMFAEnrolled, p.ID, true, nil)
	return &MFAEnrollment{
		Secret:          enrollment.Secret,
		ProvisioningURI: enrollment.ProvisioningURI,
		BackupCodes:     enrollment.BackupCodes,
	}, nil
}

// VerifyAndEnableMFA activates a dormant enrollment once the principal
// proves possession of the provisioned secret with a current code.
func (e *Engine) VerifyAndEnableMFA(ctx context.Context, principalID, code string) error {
	p, err := e.loadPrincipal(ctx, principalID)
	if err != nil {
		return err
	}
	if p.MFASecret == "" {
		return ErrMFANotEnrolled
	}
	if p.MFAEnabled {
		return ErrMFAAlreadyEnabled
	}
	if !e.totp.VerifyCode(p.MFASecret, code) {
		e.metrics.Inc(metrics.MFAFailure)
		e.emit(ctx, audit.EventMFAFailure, p.ID, false, ErrMFAInvalid)
		return ErrMFAInvalid
	}

	p.MFAEnabled = true
	if err := e.savePrincipal(ctx, p); err != nil {
		return err
	}

	e.metrics.Inc(metrics.MFAEnabled)
	e.emit(ctx, audit.EventMFAEnabled, p.ID, true, nil)
	return nil
}

// DisableMFA turns MFA off after re-verifying the credential, so a
// hijacked session cannot silently strip the second factor. The stored
// secret and backup codes are discarded.
func (e *Engine) DisableMFA(ctx context.Context, principalID, secret string) error {
	p, err := e.loadPrincipal(ctx, principalID)
	if err != nil {
		return err
	}
	if !p.MFAEnabled {
		return ErrMFANotEnrolled
	}

	match, err := e.hasher.Verify(secret, p.Hash)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPrincipalStoreUnavailable, err)
	}
	if !match {
		return ErrInvalidCredentials
	}

	p.MFAEnabled = false
	p.MFASecret = ""
	p.BackupCodes = nil
	if err := e.savePrincipal(ctx, p); err != nil {
		return err
	}

	e.metrics.Inc(metrics.MFADisabled)
	e.emit(ctx, audit.EventMFADisabled, p.ID, true, nil)
	return nil
}

// AuthenticateWithBackupCode is the recovery login for a principal who
// lost the authenticator: credential plus one unused backup code. The
// code is spent on success and the remaining count is returned so hosts
// can warn when the pool runs low.
func (e *Engine) AuthenticateWithBackupCode(ctx context.Context, key, secret, backupCode string) (TokenPair, int, error) {
	p, err := e.findPrincipal(ctx, key)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			e.metrics.Inc(metrics.LoginFailure)
			e.emit(ctx, audit.EventLoginFailure, "", false, err)
		}
		return TokenPair{}, 0, err
	}
	if !p.MFAEnabled {
		return TokenPair{}, 0, ErrMFANotEnrolled
	}

	if err := e.checkLockout(ctx, p.ID); err != nil {
		return TokenPair{}, 0, err
	}

	match, err := e.hasher.Verify(secret, p.Hash)
	if err != nil {
		return TokenPair{}, 0, fmt.Errorf("%w: %v", ErrPrincipalStoreUnavailable, err)
	}
	if !match {
		return TokenPair{}, 0, e.failAttempt(ctx, p.ID, ErrInvalidCredentials)
	}

	// Re-read the record inside the critical section: the copy loaded
	// above may be stale, and two callers consuming against private
	// copies would each accept the same code.
	e.mfaMu.Lock()
	fresh, loadErr := e.loadPrincipal(ctx, p.ID)
	consumed := false
	if loadErr == nil {
		consumed = totp.ConsumeBackupCode(fresh.BackupCodes, backupCode)
		if consumed {
			loadErr = e.savePrincipal(ctx, fresh)
		}
	}
	e.mfaMu.Unlock()
	if loadErr != nil {
		if errors.Is(loadErr, ErrPrincipalNotFound) {
			return TokenPair{}, 0, ErrInvalidCredentials
		}
		return TokenPair{}, 0, loadErr
	}
	if !consumed {
		e.metrics.Inc(metrics.BackupCodeFailed)
		return TokenPair{}, 0, e.failAttempt(ctx, p.ID, ErrBackupCodeInvalid)
	}
	p = fresh

	remaining := totp.RemainingBackupCodes(p.BackupCodes)
	e.metrics.Inc(metrics.BackupCodeUsed)
	e.emit(ctx, audit.EventBackupCodeUsed, p.ID, true, nil)

	pair, err := e.finishLogin(ctx, p, secret)
	if err != nil {
		return TokenPair{}, 0, err
	}
	return pair, remaining, nil
}

// RegenerateBackupCodes replaces the principal's backup-code set,
// invalidating every unused code from the previous one. Requires MFA to
// be enabled and a valid current TOTP code.
func (e *Engine) RegenerateBackupCodes(ctx context.Context, principalID, code string) ([]string, error) {
	p, err := e.loadPrincipal(ctx, principalID)
	if err != nil {
		return nil, err
	}
	if !p.MFAEnabled {
		return nil, ErrMFANotEnrolled
	}
	if !e.totp.VerifyCode(p.MFASecret, code) {
		e.metrics.Inc(metrics.MFAFailure)
		e.emit(ctx, audit.EventMFAFailure, p.ID, false, ErrMFAInvalid)
		return nil, ErrMFAInvalid
	}

	codes, records, err := totp.GenerateBackupCodes(e.cfg.MFA.BackupCodeCount, e.cfg.MFA.BackupCodeLength)
	if err != nil {
		return nil, err
	}

	e.mfaMu.Lock()
	fresh, err := e.loadPrincipal(ctx, p.ID)
	if err == nil {
		fresh.BackupCodes = records
		err = e.savePrincipal(ctx, fresh)
	}
	e.mfaMu.Unlock()
	if err != nil {
		return nil, err
	}

	e.metrics.Inc(metrics.BackupCodesRegenerated)
	e.emit(ctx, audit.EventBackupRegenerated, p.ID, true, nil)
	return codes, nil
}
