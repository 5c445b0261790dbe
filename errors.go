package authcore

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/croplink/authcore/reset"
	"github.com/croplink/authcore/token"
)

var (
	// ErrInvalidCredentials covers an unknown credential key, an inactive
	// account, and a wrong secret. The three are deliberately
	// indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked is the sentinel matched by errors.Is for a
	// *LockedError.
	ErrAccountLocked = errors.New("account locked")
	// ErrMFARequired indicates the principal has MFA enabled and the
	// request carried no one-time code.
	ErrMFARequired = errors.New("mfa code required")
	// ErrMFAInvalid indicates the supplied one-time code did not verify.
	ErrMFAInvalid = errors.New("invalid mfa code")
	// ErrMFANotEnrolled indicates an MFA operation on a principal with no
	// provisioned secret.
	ErrMFANotEnrolled = errors.New("mfa not enrolled")
	// ErrMFAAlreadyEnabled indicates an enrollment attempt while MFA is
	// active; it must be disabled first.
	ErrMFAAlreadyEnabled = errors.New("mfa already enabled")
	// ErrBackupCodeInvalid indicates the supplied backup code is unknown
	// or already consumed.
	ErrBackupCodeInvalid = errors.New("invalid backup code")
	// ErrPasswordPolicy is the sentinel matched by errors.Is for a
	// *PolicyError.
	ErrPasswordPolicy = errors.New("password policy violation")
	// ErrPasswordReused indicates the new password matches a retained
	// prior credential.
	ErrPasswordReused = errors.New("password was used before")
	// ErrPrincipalNotFound is returned by PrincipalStore implementations
	// when no record matches. The engine maps it to ErrInvalidCredentials
	// on authentication paths.
	ErrPrincipalNotFound = errors.New("principal not found")
	// ErrPrincipalStoreUnavailable wraps infrastructure faults from the
	// principal store. It is never downgraded to ErrInvalidCredentials:
	// a backend outage must not read as a wrong password.
	ErrPrincipalStoreUnavailable = errors.New("principal store unavailable")
	// ErrSenderUnavailable wraps delivery faults from the notification
	// sender.
	ErrSenderUnavailable = errors.New("notification sender unavailable")
)

// Token and reset-ticket failures surface under the sentinels of their
// packages; aliases keep the full taxonomy importable from the root.
var (
	// ErrTokenMalformed is an alias for token.ErrMalformed.
	ErrTokenMalformed = token.ErrMalformed
	// ErrTokenExpired is an alias for token.ErrExpired.
	ErrTokenExpired = token.ErrExpired
	// ErrTokenWrongKind is an alias for token.ErrWrongKind.
	ErrTokenWrongKind = token.ErrWrongKind
	// ErrTokenRevoked is an alias for token.ErrRevoked.
	ErrTokenRevoked = token.ErrRevoked
	// ErrResetTicketInvalid is an alias for reset.ErrTicketInvalidOrExpired.
	ErrResetTicketInvalid = reset.ErrTicketInvalidOrExpired
)

// LockedError reports a rejected operation on a locked principal. It
// carries the data callers need for distinct user messaging ("locked for
// N seconds"), and matches ErrAccountLocked under errors.Is.
type LockedError struct {
	LockedUntil time.Time
	Remaining   time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked for another %ds", int(e.Remaining.Seconds()))
}

func (e *LockedError) Unwrap() error { return ErrAccountLocked }

// PolicyError carries the complete list of composition violations for a
// rejected password. It matches ErrPasswordPolicy under errors.Is.
type PolicyError struct {
	Violations []string
}

func (e *PolicyError) Error() string {
	return "password policy violation: " + strings.Join(e.Violations, "; ")
}

func (e *PolicyError) Unwrap() error { return ErrPasswordPolicy }
