package authcore

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/croplink/authcore/internal/audit"
	"github.com/croplink/authcore/internal/metrics"
	"github.com/croplink/authcore/lockout"
	"github.com/croplink/authcore/password"
	"github.com/croplink/authcore/reset"
	"github.com/croplink/authcore/revocation"
	"github.com/croplink/authcore/token"
	"github.com/croplink/authcore/totp"
)

// Builder assembles an Engine. Construction is allocation-only until
// Build, which validates the configuration and wires the component
// stores. With a Redis client attached, the revocation registry, lockout
// table, and reset tickets are Redis-backed for multi-process
// deployments; otherwise in-memory implementations are used. Individual
// With*Store calls override either default.
type Builder struct {
	cfg    Config
	store  PrincipalStore
	sender Sender

	redis redis.UniversalClient
	clock func() time.Time
	sink  AuditSink

	revocations revocation.Registry
	lockouts    lockout.Manager
	tickets     reset.Store

	built bool
}

// New returns a Builder carrying DefaultConfig.
func New() *Builder {
	return &Builder{
		cfg:   DefaultConfig(),
		clock: time.Now,
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithPrincipalStore attaches the host's principal persistence. Required.
func (b *Builder) WithPrincipalStore(store PrincipalStore) *Builder {
	b.store = store
	return b
}

// WithSender attaches the reset-ticket delivery channel. Required for
// RequestReset.
func (b *Builder) WithSender(sender Sender) *Builder {
	b.sender = sender
	return b
}

// WithRedis backs the revocation registry, lockout table, and reset
// tickets with Redis.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithClock overrides the time source. Tests use this to simulate the
// passage of lockout and expiry windows.
func (b *Builder) WithClock(clock func() time.Time) *Builder {
	if clock != nil {
		b.clock = clock
	}
	return b
}

// WithAuditSink attaches the destination for audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// WithRevocationRegistry overrides the default registry implementation.
func (b *Builder) WithRevocationRegistry(r revocation.Registry) *Builder {
	b.revocations = r
	return b
}

// WithLockoutManager overrides the default lockout implementation.
func (b *Builder) WithLockoutManager(m lockout.Manager) *Builder {
	b.lockouts = m
	return b
}

// WithResetStore overrides the default reset-ticket implementation.
func (b *Builder) WithResetStore(s reset.Store) *Builder {
	b.tickets = s
	return b
}

// Build validates the configuration and produces a ready Engine. A
// Builder is single-use.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.store == nil {
		return nil, errors.New("principal store is required")
	}
	if err := b.cfg.validate(); err != nil {
		return nil, err
	}

	policy := password.NewPolicy(password.PolicyConfig{
		MinLength: b.cfg.Password.MinLength,
		MaxLength: b.cfg.Password.MaxLength,
		ExtraWeak: b.cfg.Password.ExtraWeak,
	})

	hasher, err := password.NewHasher(password.HasherConfig{
		Memory:      b.cfg.Password.Memory,
		Time:        b.cfg.Password.Time,
		Parallelism: b.cfg.Password.Parallelism,
		SaltLength:  b.cfg.Password.SaltLength,
		KeyLength:   b.cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	totpSvc, err := totp.NewService(totp.Config{
		Issuer:           b.cfg.MFA.Issuer,
		Digits:           b.cfg.MFA.Digits,
		Period:           b.cfg.MFA.Period,
		Window:           b.cfg.MFA.Window,
		BackupCodeCount:  b.cfg.MFA.BackupCodeCount,
		BackupCodeLength: b.cfg.MFA.BackupCodeLength,
	}, b.clock)
	if err != nil {
		return nil, err
	}

	revocations := b.revocations
	if revocations == nil {
		if b.redis != nil {
			revocations = revocation.NewRedis(b.redis, "")
		} else {
			revocations = revocation.NewMemory(b.clock)
		}
	}

	lockouts := b.lockouts
	if lockouts == nil {
		lcfg := lockout.Config{Threshold: b.cfg.Lockout.Threshold, Duration: b.cfg.Lockout.Duration}
		if b.redis != nil {
			lockouts, err = lockout.NewRedis(b.redis, lcfg, "")
		} else {
			lockouts, err = lockout.NewMemory(lcfg, b.clock)
		}
		if err != nil {
			return nil, err
		}
	}

	tickets := b.tickets
	if tickets == nil {
		if b.redis != nil {
			tickets = reset.NewRedis(b.redis, "")
		} else {
			tickets = reset.NewMemory(b.clock)
		}
	}

	issuer, err := token.NewIssuer(b.cfg.Token.Secret, b.cfg.Token.Issuer, revocations, b.clock)
	if err != nil {
		return nil, err
	}

	b.built = true
	return &Engine{
		cfg:         b.cfg,
		store:       b.store,
		sender:      b.sender,
		policy:      policy,
		hasher:      hasher,
		issuer:      issuer,
		revocations: revocations,
		lockouts:    lockouts,
		tickets:     tickets,
		totp:        totpSvc,
		metrics:     metrics.New(b.cfg.Metrics.Enabled),
		audit: audit.NewDispatcher(audit.Config{
			Enabled:    b.cfg.Audit.Enabled,
			BufferSize: b.cfg.Audit.BufferSize,
			DropIfFull: b.cfg.Audit.DropIfFull,
		}, b.sink),
		clock: b.clock,
	}, nil
}
