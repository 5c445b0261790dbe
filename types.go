package authcore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/croplink/authcore/internal/audit"
	"github.com/croplink/authcore/password"
	"github.com/croplink/authcore/totp"
)

// Role is the closed set of principal roles. Keeping this an enumeration
// instead of a free-form string removes case-mismatch comparisons at the
// type level; unknown strings are rejected by ParseRole at the boundary.
type Role uint8

const (
	// RoleAdmin administers the whole installation.
	RoleAdmin Role = iota + 1
	// RoleManager runs one or more farms.
	RoleManager
	// RoleAgronomist reads and annotates field and sensor data.
	RoleAgronomist
	// RoleWorker records day-to-day operations.
	RoleWorker
)

var roleNames = map[Role]string{
	RoleAdmin:      "admin",
	RoleManager:    "manager",
	RoleAgronomist: "agronomist",
	RoleWorker:     "worker",
}

// Valid reports whether r is a member of the closed set.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// ParseRole maps a stored or wire string onto the enumeration,
// case-insensitively.
func ParseRole(s string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	for role, name := range roleNames {
		if name == normalized {
			return role, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// Principal is the authentication view of a user record. The Principal
// Store owns persistence; the engine mutates credential fields
// (Hash, PasswordChangedAt, PriorHashes) and MFA fields (MFASecret,
// MFAEnabled, BackupCodes). Failed-attempt state lives in the lockout
// manager, not here, so its read-modify-write cycles stay atomic.
type Principal struct {
	ID            string
	CredentialKey string
	Hash          string
	Role          Role
	Active        bool

	MFASecret   string
	MFAEnabled  bool
	BackupCodes []totp.BackupCode

	PasswordChangedAt time.Time
	// PriorHashes is the bounded history of previous credential hashes,
	// most recent last.
	PriorHashes []string
}

// PushHistory appends oldHash and trims the history to the retention
// bound.
func (p *Principal) PushHistory(oldHash string) {
	p.PriorHashes = append(p.PriorHashes, oldHash)
	if len(p.PriorHashes) > password.HistoryLimit {
		p.PriorHashes = p.PriorHashes[len(p.PriorHashes)-password.HistoryLimit:]
	}
}

// PrincipalStore is the persistence interface the host application
// implements. Implementations return ErrPrincipalNotFound for missing
// records and wrap backend faults in their own errors; the engine never
// interprets a store fault as a credential result.
type PrincipalStore interface {
	FindByCredentialKey(ctx context.Context, key string) (*Principal, error)
	FindByID(ctx context.Context, id string) (*Principal, error)
	Save(ctx context.Context, p *Principal) error
	// AppendCredentialHistory records a rotated-out hash for stores that
	// keep history outside the principal record. Implementations backed
	// by Principal.PriorHashes alone may treat it as a no-op.
	AppendCredentialHistory(ctx context.Context, p *Principal, oldHash string) error
}

// Sender delivers reset tickets to principals. Delivery transport is the
// host's concern.
type Sender interface {
	SendResetTicket(ctx context.Context, p *Principal, rawTicket string) error
}

// TokenPair is the result of a successful authentication.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// MFAEnrollment is handed to the principal exactly once: the secret for
// manual transcription, the otpauth:// payload for a scannable code, and
// the plaintext backup codes. None of it is retrievable again.
type MFAEnrollment struct {
	Secret          string
	ProvisioningURI string
	BackupCodes     []string
}

// Audit types re-exported from internal/audit for host sinks.
type (
	// AuditEvent is a structured audit record emitted by the engine.
	AuditEvent = audit.Event
	// AuditSink receives AuditEvent values from the engine's dispatcher.
	AuditSink = audit.Sink
	// NoOpAuditSink silently discards all events.
	NoOpAuditSink = audit.NoOpSink
	// ChannelAuditSink is a buffered channel-based sink.
	ChannelAuditSink = audit.ChannelSink
	// JSONWriterAuditSink writes JSON-encoded events, one per line.
	JSONWriterAuditSink = audit.JSONWriterSink
)

// NewChannelAuditSink creates a ChannelAuditSink with the given buffer.
func NewChannelAuditSink(buffer int) *ChannelAuditSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterAuditSink creates a JSONWriterAuditSink writing to w.
func NewJSONWriterAuditSink(w interface{ Write([]byte) (int, error) }) *JSONWriterAuditSink {
	return audit.NewJSONWriterSink(w)
}
