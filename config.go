package authcore

import (
	"errors"
	"time"
)

// Config is the full configuration surface of the engine. Every knob the
// core consumes is settable here; DefaultConfig carries the documented
// defaults.
type Config struct {
	Token    TokenConfig
	Password PasswordConfig
	Lockout  LockoutConfig
	Reset    ResetConfig
	MFA      MFAConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// TokenConfig configures the token issuer.
type TokenConfig struct {
	// Secret is the symmetric signing key; at least 32 bytes.
	Secret []byte
	// Issuer is the iss claim stamped into every token.
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// PasswordConfig configures policy bounds and Argon2id work parameters.
type PasswordConfig struct {
	MinLength int
	MaxLength int
	// ExtraWeak extends the built-in weak-password deny list.
	ExtraWeak []string

	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	// UpgradeOnLogin re-hashes a verified credential whose stored hash
	// was produced with weaker parameters than the current configuration.
	UpgradeOnLogin bool
}

// LockoutConfig configures the failed-attempt state machine.
type LockoutConfig struct {
	Threshold int
	Duration  time.Duration
}

// ResetConfig configures password-reset tickets.
type ResetConfig struct {
	TTL time.Duration
}

// MFAConfig configures TOTP enrollment and verification.
type MFAConfig struct {
	// Issuer names this system in provisioning payloads.
	Issuer string
	Digits int
	// Period is the TOTP time-step length in seconds.
	Period int
	// Window is the accepted drift in time steps on each side of now.
	Window           int
	BackupCodeCount  int
	BackupCodeLength int
}

// AuditConfig configures the audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking when the buffer is
	// full.
	DropIfFull bool
}

// MetricsConfig configures the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the documented defaults: 15m/168h token TTLs,
// 5-attempt lockout for 900 seconds, 1-hour reset tickets, ±1-step TOTP
// window with 10 backup codes, 12..128 password length. The token secret
// has no default and must be supplied.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			Issuer:     "authcore",
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 168 * time.Hour,
		},
		Password: PasswordConfig{
			MinLength:      12,
			MaxLength:      128,
			Memory:         64 * 1024,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		Lockout: LockoutConfig{
			Threshold: 5,
			Duration:  900 * time.Second,
		},
		Reset: ResetConfig{
			TTL: time.Hour,
		},
		MFA: MFAConfig{
			Issuer:           "authcore",
			Digits:           6,
			Period:           30,
			Window:           1,
			BackupCodeCount:  10,
			BackupCodeLength: 10,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func (c *Config) validate() error {
	if len(c.Token.Secret) < 32 {
		return errors.New("config: token secret must be at least 32 bytes")
	}
	if c.Token.AccessTTL <= 0 || c.Token.RefreshTTL <= 0 {
		return errors.New("config: token TTLs must be positive")
	}
	if c.Token.RefreshTTL < c.Token.AccessTTL {
		return errors.New("config: refresh TTL must not be shorter than access TTL")
	}
	if c.Lockout.Threshold <= 0 || c.Lockout.Duration <= 0 {
		return errors.New("config: lockout threshold and duration must be positive")
	}
	if c.Reset.TTL <= 0 {
		return errors.New("config: reset ticket TTL must be positive")
	}
	if c.Password.MinLength <= 0 || c.Password.MaxLength < c.Password.MinLength {
		return errors.New("config: invalid password length bounds")
	}
	return nil
}
