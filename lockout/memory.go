package lockout

import (
	"context"
	"sync"
	"time"
)

type record struct {
	attempts    int
	lockedUntil time.Time
}

// Memory is the single-process Manager. One mutex guards the whole
// table; the read-modify-write sequences in RecordFailure and Check are
// single critical sections.
type Memory struct {
	mu      sync.Mutex
	cfg     Config
	records map[string]*record
	now     func() time.Time
}

// NewMemory builds an in-memory manager. A nil now defaults to time.Now.
func NewMemory(cfg Config, now func() time.Time) (*Memory, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	return &Memory{
		cfg:     cfg,
		records: make(map[string]*record),
		now:     now,
	}, nil
}

// Check reports the principal's state, applying the lazy Locked→Unlocked
// transition when the lock window has passed.
func (m *Memory) Check(_ context.Context, principalID string) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, exists := m.records[principalID]
	if !exists {
		return Status{AttemptsLeft: m.cfg.Threshold}, nil
	}

	now := m.now()
	if !rec.lockedUntil.IsZero() && !rec.lockedUntil.After(now) {
		delete(m.records, principalID)
		return Status{AttemptsLeft: m.cfg.Threshold}, nil
	}

	return m.statusLocked(rec, now), nil
}

// RecordFailure increments and, on reaching the threshold, locks.
func (m *Memory) RecordFailure(_ context.Context, principalID string) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	rec, exists := m.records[principalID]
	if exists && !rec.lockedUntil.IsZero() && !rec.lockedUntil.After(now) {
		// Lock window lapsed without an intervening Check; start fresh.
		exists = false
	}
	if !exists {
		rec = &record{}
		m.records[principalID] = rec
	}

	rec.attempts++
	if rec.attempts >= m.cfg.Threshold && rec.lockedUntil.IsZero() {
		rec.lockedUntil = now.Add(m.cfg.Duration)
	}

	return m.statusLocked(rec, now), nil
}

// RecordSuccess clears the principal's record in one step.
func (m *Memory) RecordSuccess(_ context.Context, principalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, principalID)
	return nil
}

func (m *Memory) statusLocked(rec *record, now time.Time) Status {
	if !rec.lockedUntil.IsZero() && rec.lockedUntil.After(now) {
		return Status{
			Locked:      true,
			LockedUntil: rec.lockedUntil,
			Remaining:   rec.lockedUntil.Sub(now),
		}
	}
	left := m.cfg.Threshold - rec.attempts
	if left < 0 {
		left = 0
	}
	return Status{AttemptsLeft: left}
}
