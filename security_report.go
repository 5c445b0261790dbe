package authcore

import (
	"context"
	"time"

	"github.com/croplink/authcore/revocation"
	"github.com/croplink/authcore/totp"
)

// SecurityReport is a read-only snapshot of the engine's active security
// parameters, assembled for operator review and startup logging. It
// carries no secrets.
type SecurityReport struct {
	SigningAlgorithm string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration

	Argon2 PasswordConfigReport

	PasswordMinLength int
	PasswordMaxLength int

	LockoutThreshold int
	LockoutDuration  time.Duration

	ResetTicketTTL time.Duration

	TOTPDigits      int
	TOTPPeriod      int
	TOTPWindow      int
	BackupCodeCount int

	SharedStateBackend string

	AuditEnabled   bool
	MetricsEnabled bool
}

// PasswordConfigReport is the Argon2id work-parameter slice of the
// report.
type PasswordConfigReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// SecurityReport snapshots the active configuration.
func (e *Engine) SecurityReport() SecurityReport {
	backend := "memory"
	if _, ok := e.revocations.(*revocation.Redis); ok {
		backend = "redis"
	}

	return SecurityReport{
		SigningAlgorithm: "HS256",
		AccessTTL:        e.cfg.Token.AccessTTL,
		RefreshTTL:       e.cfg.Token.RefreshTTL,
		Argon2: PasswordConfigReport{
			Memory:      e.cfg.Password.Memory,
			Time:        e.cfg.Password.Time,
			Parallelism: e.cfg.Password.Parallelism,
			SaltLength:  e.cfg.Password.SaltLength,
			KeyLength:   e.cfg.Password.KeyLength,
		},
		PasswordMinLength:  e.cfg.Password.MinLength,
		PasswordMaxLength:  e.cfg.Password.MaxLength,
		LockoutThreshold:   e.cfg.Lockout.Threshold,
		LockoutDuration:    e.cfg.Lockout.Duration,
		ResetTicketTTL:     e.cfg.Reset.TTL,
		TOTPDigits:         e.cfg.MFA.Digits,
		TOTPPeriod:         e.cfg.MFA.Period,
		TOTPWindow:         e.cfg.MFA.Window,
		BackupCodeCount:    e.cfg.MFA.BackupCodeCount,
		SharedStateBackend: backend,
		AuditEnabled:       e.cfg.Audit.Enabled,
		MetricsEnabled:     e.cfg.Metrics.Enabled,
	}
}

// PrincipalReport is a point-in-time view of one principal's security
// posture, assembled for account-settings pages and admin review.
type PrincipalReport struct {
	PrincipalID string
	Role        Role

	MFAEnabled         bool
	BackupCodesLeft    int
	PasswordAge        time.Duration
	PasswordChanged    time.Time
	Locked             bool
	LockedUntil        time.Time
	FailedAttemptsLeft int
}

// PrincipalReport assembles the posture view for one principal. The
// lockout read is the same Check used on login, so a report issued for a
// locked principal reflects the live lock.
func (e *Engine) PrincipalReport(ctx context.Context, principalID string) (*PrincipalReport, error) {
	p, err := e.loadPrincipal(ctx, principalID)
	if err != nil {
		return nil, err
	}

	st, err := e.lockouts.Check(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	r := &PrincipalReport{
		PrincipalID:        p.ID,
		Role:               p.Role,
		MFAEnabled:         p.MFAEnabled,
		BackupCodesLeft:    totp.RemainingBackupCodes(p.BackupCodes),
		PasswordChanged:    p.PasswordChangedAt,
		Locked:             st.Locked,
		LockedUntil:        st.LockedUntil,
		FailedAttemptsLeft: st.AttemptsLeft,
	}
	if !p.PasswordChangedAt.IsZero() {
		r.PasswordAge = e.clock().Sub(p.PasswordChangedAt)
	}
	return r, nil
}
