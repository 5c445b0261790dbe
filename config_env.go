package authcore

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig mirrors the knobs settable through the environment. Variable
// names carry the AUTHCORE_ prefix, e.g. AUTHCORE_LOCKOUT_THRESHOLD.
type envConfig struct {
	TokenSecret string        `env:"TOKEN_SECRET"`
	TokenIssuer string        `env:"TOKEN_ISSUER" envDefault:"authcore"`
	AccessTTL   time.Duration `env:"ACCESS_TTL" envDefault:"15m"`
	RefreshTTL  time.Duration `env:"REFRESH_TTL" envDefault:"168h"`

	LockoutThreshold int           `env:"LOCKOUT_THRESHOLD" envDefault:"5"`
	LockoutDuration  time.Duration `env:"LOCKOUT_DURATION" envDefault:"900s"`

	ResetTTL time.Duration `env:"RESET_TTL" envDefault:"1h"`

	MFAIssuer        string `env:"MFA_ISSUER" envDefault:"authcore"`
	TOTPWindow       int    `env:"TOTP_WINDOW" envDefault:"1"`
	BackupCodeCount  int    `env:"BACKUP_CODE_COUNT" envDefault:"10"`
	BackupCodeLength int    `env:"BACKUP_CODE_LENGTH" envDefault:"10"`

	PasswordMinLength int  `env:"PASSWORD_MIN_LENGTH" envDefault:"12"`
	PasswordMaxLength int  `env:"PASSWORD_MAX_LENGTH" envDefault:"128"`
	UpgradeOnLogin    bool `env:"PASSWORD_UPGRADE_ON_LOGIN" envDefault:"true"`

	AuditEnabled   bool `env:"AUDIT_ENABLED" envDefault:"true"`
	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`
}

// ConfigFromEnv builds a Config from AUTHCORE_-prefixed environment
// variables layered over DefaultConfig. Unset variables keep their
// defaults; the token secret, having none, stays empty until set and is
// rejected by Build.
func ConfigFromEnv() (Config, error) {
	parsed, err := env.ParseAsWithOptions[envConfig](env.Options{Prefix: "AUTHCORE_"})
	if err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	cfg.Token.Secret = []byte(parsed.TokenSecret)
	cfg.Token.Issuer = parsed.TokenIssuer
	cfg.Token.AccessTTL = parsed.AccessTTL
	cfg.Token.RefreshTTL = parsed.RefreshTTL
	cfg.Lockout.Threshold = parsed.LockoutThreshold
	cfg.Lockout.Duration = parsed.LockoutDuration
	cfg.Reset.TTL = parsed.ResetTTL
	cfg.MFA.Issuer = parsed.MFAIssuer
	cfg.MFA.Window = parsed.TOTPWindow
	cfg.MFA.BackupCodeCount = parsed.BackupCodeCount
	cfg.MFA.BackupCodeLength = parsed.BackupCodeLength
	cfg.Password.MinLength = parsed.PasswordMinLength
	cfg.Password.MaxLength = parsed.PasswordMaxLength
	cfg.Password.UpgradeOnLogin = parsed.UpgradeOnLogin
	cfg.Audit.Enabled = parsed.AuditEnabled
	cfg.Metrics.Enabled = parsed.MetricsEnabled

	return cfg, nil
}
