package lockout

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T, cfg Config) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	m, err := NewRedis(client, cfg, "lko")
	if err != nil {
		t.Fatalf("NewRedis failed: %v", err)
	}
	return m, mr
}

func TestRedis_ThresholdLocks(t *testing.T) {
	m, _ := newTestRedis(t, Config{Threshold: 3, Duration: time.Minute})
	ctx := context.Background()

	st, err := m.RecordFailure(ctx, "p-1")
	if err != nil || st.Locked || st.AttemptsLeft != 2 {
		t.Fatalf("first failure: %+v, %v", st, err)
	}
	st, err = m.RecordFailure(ctx, "p-1")
	if err != nil || st.Locked || st.AttemptsLeft != 1 {
		t.Fatalf("second failure: %+v, %v", st, err)
	}
	st, err = m.RecordFailure(ctx, "p-1")
	if err != nil {
		t.Fatalf("third failure: %v", err)
	}
	if !st.Locked || st.Remaining <= 0 {
		t.Fatalf("expected locked with remaining > 0, got %+v", st)
	}

	st, err = m.Check(ctx, "p-1")
	if err != nil || !st.Locked {
		t.Fatalf("Check after lock: %+v, %v", st, err)
	}
}

func TestRedis_LockExpiresViaTTL(t *testing.T) {
	m, mr := newTestRedis(t, Config{Threshold: 2, Duration: time.Minute})
	ctx := context.Background()

	_, _ = m.RecordFailure(ctx, "p-1")
	_, _ = m.RecordFailure(ctx, "p-1")

	mr.FastForward(2 * time.Minute)

	st, err := m.Check(ctx, "p-1")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if st.Locked || st.AttemptsLeft != 2 {
		t.Fatalf("expected clean state after TTL, got %+v", st)
	}
}

func TestRedis_CounterWindowRolls(t *testing.T) {
	m, mr := newTestRedis(t, Config{Threshold: 3, Duration: time.Minute})
	ctx := context.Background()

	_, _ = m.RecordFailure(ctx, "p-1")
	_, _ = m.RecordFailure(ctx, "p-1")

	// Failures stop; the counter expires with its window.
	mr.FastForward(2 * time.Minute)

	st, err := m.RecordFailure(ctx, "p-1")
	if err != nil {
		t.Fatalf("RecordFailure failed: %v", err)
	}
	if st.Locked || st.AttemptsLeft != 2 {
		t.Fatalf("expected fresh window, got %+v", st)
	}
}

func TestRedis_RecordSuccessClears(t *testing.T) {
	m, _ := newTestRedis(t, Config{Threshold: 3, Duration: time.Minute})
	ctx := context.Background()

	_, _ = m.RecordFailure(ctx, "p-1")
	_, _ = m.RecordFailure(ctx, "p-1")
	if err := m.RecordSuccess(ctx, "p-1"); err != nil {
		t.Fatalf("RecordSuccess failed: %v", err)
	}

	st, _ := m.Check(ctx, "p-1")
	if st.Locked || st.AttemptsLeft != 3 {
		t.Fatalf("expected clean record, got %+v", st)
	}
}

func TestRedis_UnavailableBackend(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	m, err := NewRedis(client, Config{Threshold: 3, Duration: time.Minute}, "")
	if err != nil {
		t.Fatalf("NewRedis failed: %v", err)
	}
	mr.Close()

	ctx := context.Background()
	if _, err := m.Check(ctx, "p-1"); err == nil {
		t.Fatal("expected unavailability error from Check")
	}
	if _, err := m.RecordFailure(ctx, "p-1"); err == nil {
		t.Fatal("expected unavailability error from RecordFailure")
	}
}
