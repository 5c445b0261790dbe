package metrics

import (
	"sync"
	"testing"
)

func TestMetrics_IncAndSnapshot(t *testing.T) {
	m := New(true)

	m.Inc(LoginSuccess)
	m.Inc(LoginSuccess)
	m.Inc(LoginFailure)

	if got := m.Get(LoginSuccess); got != 2 {
		t.Fatalf("LoginSuccess = %d, want 2", got)
	}

	snap := m.Snapshot()
	if snap["login_success"] != 2 || snap["login_failure"] != 1 {
		t.Fatalf("unexpected snapshot: %v", snap)
	}

	// Snapshot is a copy, not a view.
	m.Inc(LoginSuccess)
	if snap["login_success"] != 2 {
		t.Fatal("snapshot mutated after Inc")
	}
}

func TestMetrics_DisabledIsNoOp(t *testing.T) {
	m := New(false)

	m.Inc(LoginSuccess)
	if m.Get(LoginSuccess) != 0 {
		t.Fatal("disabled metrics recorded a value")
	}
	if len(m.Snapshot()) != 0 {
		t.Fatal("disabled snapshot should be empty")
	}
}

func TestMetrics_ConcurrentInc(t *testing.T) {
	m := New(true)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				m.Inc(RefreshSuccess)
			}
		}()
	}
	wg.Wait()

	if got := m.Get(RefreshSuccess); got != 8000 {
		t.Fatalf("RefreshSuccess = %d, want 8000", got)
	}
}

func TestMetricID_String(t *testing.T) {
	if LoginLocked.String() != "login_locked" {
		t.Fatalf("unexpected name %q", LoginLocked.String())
	}
	if MetricID(9999).String() != "unknown" {
		t.Fatal("out-of-range id must stringify as unknown")
	}
}
