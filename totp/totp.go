package totp

import (
	"errors"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Config holds the time-step and enrollment parameters.
type Config struct {
	// Issuer names this system in the provisioning payload an
	// authenticator app scans.
	Issuer string
	Digits int
	// Period is the time-step length in seconds.
	Period int
	// Window is how many adjacent time steps on each side of the current
	// one a code is accepted for, tolerating clock drift between the
	// server and the authenticator device.
	Window           int
	SecretSize       int
	BackupCodeCount  int
	BackupCodeLength int
}

// Enrollment is returned once per Enroll call. The secret and backup
// codes appear here in the clear and are never retrievable again; only
// backup-code hashes persist.
type Enrollment struct {
	// Secret is the base32-encoded shared secret for manual transcription.
	Secret string
	// ProvisioningURI is the otpauth:// payload rendered as a scannable
	// code, binding secret, issuer, and principal label.
	ProvisioningURI string
	// BackupCodes are the single-use fallback codes in the clear.
	BackupCodes []string
}

// Service generates enrollments and verifies time-step codes. Immutable
// after construction and safe for concurrent use.
type Service struct {
	cfg Config
	now func() time.Time
}

// NewService validates cfg and returns a Service. A nil now defaults to
// time.Now.
func NewService(cfg Config, now func() time.Time) (*Service, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("totp issuer required")
	}
	if cfg.Digits != 6 && cfg.Digits != 8 {
		return nil, errors.New("totp digits must be 6 or 8")
	}
	if cfg.Period <= 0 {
		return nil, errors.New("totp period must be positive")
	}
	if cfg.Window < 0 {
		return nil, errors.New("totp window must not be negative")
	}
	if cfg.SecretSize <= 0 {
		cfg.SecretSize = 20
	}
	if cfg.BackupCodeCount <= 0 {
		cfg.BackupCodeCount = 10
	}
	if cfg.BackupCodeLength < 8 {
		cfg.BackupCodeLength = 10
	}
	if now == nil {
		now = time.Now
	}
	return &Service{cfg: cfg, now: now}, nil
}

// Enroll generates a fresh secret and provisioning payload for the given
// principal label, plus a set of single-use backup codes. The returned
// records hold only the code hashes; the caller persists those and hands
// the Enrollment (with plaintexts) to the principal exactly once.
func (s *Service) Enroll(label string) (*Enrollment, []BackupCode, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.cfg.Issuer,
		AccountName: label,
		Period:      uint(s.cfg.Period),
		SecretSize:  uint(s.cfg.SecretSize),
		Digits:      otp.Digits(s.cfg.Digits),
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, nil, err
	}

	codes, records, err := GenerateBackupCodes(s.cfg.BackupCodeCount, s.cfg.BackupCodeLength)
	if err != nil {
		return nil, nil, err
	}

	return &Enrollment{
		Secret:          key.Secret(),
		ProvisioningURI: key.URL(),
		BackupCodes:     codes,
	}, records, nil
}

// VerifyCode reports whether code matches the time-step code for the
// current step or any of the Window adjacent steps on either side.
// Wrong-length or non-numeric input is rejected before any computation.
func (s *Service) VerifyCode(secret, code string) bool {
	if len(code) != s.cfg.Digits || !isDigits(code) {
		return false
	}
	ok, err := totp.ValidateCustom(code, secret, s.now(), totp.ValidateOpts{
		Period:    uint(s.cfg.Period),
		Skew:      uint(s.cfg.Window),
		Digits:    otp.Digits(s.cfg.Digits),
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false
	}
	return ok
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
