package revocation

import (
	"context"
	"sync"
	"time"
)

// Memory is the single-process Registry. All mutations and lookups run
// under one coarse mutex; call volume is bounded by auth traffic, not
// overall request volume.
type Memory struct {
	mu      sync.Mutex
	entries map[[32]byte]time.Time
	now     func() time.Time
}

// NewMemory builds an in-memory registry. A nil now defaults to time.Now.
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{
		entries: make(map[[32]byte]time.Time),
		now:     now,
	}
}

// Revoke records the token hash until expiresAt. Idempotent; an entry is
// never created for a token that has already expired.
func (m *Memory) Revoke(_ context.Context, wire string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !expiresAt.After(m.now()) {
		return nil
	}
	hash := HashToken(wire)
	if _, exists := m.entries[hash]; exists {
		return nil
	}
	m.entries[hash] = expiresAt
	return nil
}

// IsRevoked reports membership, dropping the entry if its expiry has
// passed while it sat unaccessed.
func (m *Memory) IsRevoked(_ context.Context, hash [32]byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	expiresAt, exists := m.entries[hash]
	if !exists {
		return false, nil
	}
	if !expiresAt.After(m.now()) {
		delete(m.entries, hash)
		return false, nil
	}
	return true, nil
}

// Prune sweeps every naturally expired entry.
func (m *Memory) Prune(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for hash, expiresAt := range m.entries {
		if !expiresAt.After(now) {
			delete(m.entries, hash)
		}
	}
	return nil
}

// Len reports the current entry count. Exposed for tests and size
// monitoring.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
