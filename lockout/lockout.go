package lockout

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable indicates the lockout backend is unreachable. Callers
// must treat it as an infrastructure fault, never as a credential result.
var ErrUnavailable = errors.New("lockout backend unavailable")

// Config holds the failed-attempt policy. Both fields are externally
// configurable; the engine's defaults are 5 attempts and 900 seconds.
type Config struct {
	Threshold int
	Duration  time.Duration
}

func (c Config) validate() error {
	if c.Threshold <= 0 {
		return errors.New("lockout threshold must be positive")
	}
	if c.Duration <= 0 {
		return errors.New("lockout duration must be positive")
	}
	return nil
}

// Status is the observable lockout state of a principal.
type Status struct {
	Locked      bool
	LockedUntil time.Time
	Remaining   time.Duration
	// AttemptsLeft is how many more failures are tolerated before the
	// principal locks. Zero while locked.
	AttemptsLeft int
}

// Manager is the per-principal failed-attempt state machine. A principal
// is Unlocked while attempts < threshold and Locked once attempts reach
// the threshold, until lockedUntil passes. The Locked→Unlocked transition
// on timeout is realized lazily inside Check; no background timer exists.
//
// Records are keyed by principal id alone. The lockout policy protects
// the account regardless of origin; per-source throttling belongs to the
// rate-limiting layer outside this core.
type Manager interface {
	// Check reports the current state, first applying the lazy unlock
	// transition if lockedUntil has passed (attempts reset to zero).
	// Callers run Check before comparing credentials so a locked
	// principal is rejected even with the correct secret.
	Check(ctx context.Context, principalID string) (Status, error)
	// RecordFailure atomically increments the attempt count and, when the
	// result reaches the threshold, enters Locked with
	// lockedUntil = now + duration. The increment-then-compare is a
	// single atomic unit per principal: two concurrent failures can never
	// both observe attempts-1.
	RecordFailure(ctx context.Context, principalID string) (Status, error)
	// RecordSuccess atomically resets attempts to zero and clears
	// lockedUntil.
	RecordSuccess(ctx context.Context, principalID string) error
}
