package reset

import (
	"context"
	"errors"
	"sync"
	"time"
)

type ticket struct {
	principalID string
	expiresAt   time.Time
	used        bool
}

// Memory is the single-process Store. Consume's lookup and used-flag flip
// share one critical section, closing the check/use race.
type Memory struct {
	mu      sync.Mutex
	tickets map[[32]byte]*ticket
	now     func() time.Time
}

// NewMemory builds an in-memory ticket store. A nil now defaults to
// time.Now.
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{
		tickets: make(map[[32]byte]*ticket),
		now:     now,
	}
}

// Issue creates a ticket for principalID and returns the raw token. The
// raw form is never retrievable again.
func (m *Memory) Issue(_ context.Context, principalID string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", errors.New("reset ttl must be positive")
	}
	raw, hash, err := newRawToken()
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets[hash] = &ticket{
		principalID: principalID,
		expiresAt:   m.now().Add(ttl),
	}
	return raw, nil
}

// Consume atomically validates and marks the ticket used. The used entry
// is retained until Prune so replays keep failing for the same reason.
func (m *Memory) Consume(_ context.Context, rawToken string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tk, exists := m.tickets[hashRaw(rawToken)]
	if !exists || tk.used || !tk.expiresAt.After(m.now()) {
		return "", ErrTicketInvalidOrExpired
	}
	tk.used = true
	return tk.principalID, nil
}

// Prune drops expired tickets, used or not.
func (m *Memory) Prune(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for hash, tk := range m.tickets {
		if !tk.expiresAt.After(now) {
			delete(m.tickets, hash)
		}
	}
	return nil
}

// Len reports the current ticket count. Exposed for tests and size
// monitoring.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickets)
}
