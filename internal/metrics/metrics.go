package metrics

import "sync/atomic"

// MetricID identifies one counter.
type MetricID int

const (
	LoginSuccess MetricID = iota
	LoginFailure
	LoginLocked
	MFARequired
	MFAFailure
	MFASuccess
	BackupCodeUsed
	BackupCodeFailed
	BackupCodesRegenerated
	RefreshSuccess
	RefreshFailure
	TokenRevoked
	ResetRequested
	ResetConfirmed
	ResetFailed
	PasswordChanged
	PasswordPolicyRejected
	PasswordReuseRejected
	MFAEnabled
	MFADisabled
	PruneRuns

	idCount
)

var names = [...]string{
	LoginSuccess:           "login_success",
	LoginFailure:           "login_failure",
	LoginLocked:            "login_locked",
	MFARequired:            "mfa_required",
	MFAFailure:             "mfa_failure",
	MFASuccess:             "mfa_success",
	BackupCodeUsed:         "backup_code_used",
	BackupCodeFailed:       "backup_code_failed",
	BackupCodesRegenerated: "backup_codes_regenerated",
	RefreshSuccess:         "refresh_success",
	RefreshFailure:         "refresh_failure",
	TokenRevoked:           "token_revoked",
	ResetRequested:         "reset_requested",
	ResetConfirmed:         "reset_confirmed",
	ResetFailed:            "reset_failed",
	PasswordChanged:        "password_changed",
	PasswordPolicyRejected: "password_policy_rejected",
	PasswordReuseRejected:  "password_reuse_rejected",
	MFAEnabled:             "mfa_enabled",
	MFADisabled:            "mfa_disabled",
	PruneRuns:              "prune_runs",
}

// String returns the stable export name of the counter.
func (id MetricID) String() string {
	if id < 0 || int(id) >= len(names) {
		return "unknown"
	}
	return names[id]
}

// Metrics is a fixed set of atomic counters. A nil *Metrics (metrics
// disabled) is valid; every operation is a no-op.
type Metrics struct {
	counters [idCount]atomic.Uint64
}

// New returns a live Metrics when enabled, nil otherwise.
func New(enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	return &Metrics{}
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id < 0 || id >= idCount {
		return
	}
	m.counters[id].Add(1)
}

// Get reads one counter.
func (m *Metrics) Get(id MetricID) uint64 {
	if m == nil || id < 0 || id >= idCount {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot is a point-in-time copy of all counters keyed by export name.
type Snapshot map[string]uint64

// Snapshot deep-copies the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	snap := make(Snapshot, int(idCount))
	if m == nil {
		return snap
	}
	for id := MetricID(0); id < idCount; id++ {
		snap[id.String()] = m.counters[id].Load()
	}
	return snap
}
