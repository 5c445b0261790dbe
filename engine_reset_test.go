package authcore

import (
	"context"
	"errors"
	"testing"
)

const newSecret = "Vineyard#Row42x"

func TestRequestReset_UnknownKeyIsNotAnOracle(t *testing.T) {
	engine, _, sender, _ := newTestEngine(t)

	if err := engine.RequestReset(context.Background(), "nobody@croplink.example"); err != nil {
		t.Fatalf("got %v, want nil", err)
	}
	if len(sender.tickets) != 0 {
		t.Fatal("sender must not be called for unknown keys")
	}
}

func TestResetFlow(t *testing.T) {
	engine, _, sender, _ := newTestEngine(t)
	ctx := context.Background()

	if err := engine.RequestReset(ctx, seedKey); err != nil {
		t.Fatalf("RequestReset: %v", err)
	}
	raw := sender.last()
	if raw == "" {
		t.Fatal("no ticket delivered")
	}

	if err := engine.ConfirmReset(ctx, raw, newSecret); err != nil {
		t.Fatalf("ConfirmReset: %v", err)
	}

	if _, err := engine.Authenticate(ctx, seedKey, seedSecret, ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old secret after reset: got %v", err)
	}
	if _, err := engine.Authenticate(ctx, seedKey, newSecret, ""); err != nil {
		t.Fatalf("new secret after reset: %v", err)
	}

	// The ticket is spent.
	if err := engine.ConfirmReset(ctx, raw, "Another#Good1Pass"); !errors.Is(err, ErrResetTicketInvalid) {
		t.Fatalf("replayed ticket: got %v", err)
	}
}

func TestConfirmReset_GarbageTicket(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	err := engine.ConfirmReset(context.Background(), "not-a-ticket", newSecret)
	if !errors.Is(err, ErrResetTicketInvalid) {
		t.Fatalf("got %v", err)
	}
}

func TestConfirmReset_PolicyRejectionStillSpendsTicket(t *testing.T) {
	engine, _, sender, _ := newTestEngine(t)
	ctx := context.Background()

	if err := engine.RequestReset(ctx, seedKey); err != nil {
		t.Fatal(err)
	}
	raw := sender.last()

	err := engine.ConfirmReset(ctx, raw, "weak")
	var policyErr *PolicyError
	if !errors.As(err, &policyErr) {
		t.Fatalf("got %v, want PolicyError", err)
	}

	// The failed attempt consumed the ticket; a compliant retry needs a
	// fresh one.
	if err := engine.ConfirmReset(ctx, raw, newSecret); !errors.Is(err, ErrResetTicketInvalid) {
		t.Fatalf("got %v", err)
	}
}

func TestConfirmReset_ClearsLockout(t *testing.T) {
	engine, _, sender, _ := newTestEngine(t)
	ctx := context.Background()

	for i := 0; i < engine.cfg.Lockout.Threshold; i++ {
		engine.Authenticate(ctx, seedKey, "wrong-secret-xx", "")
	}
	if _, err := engine.Authenticate(ctx, seedKey, seedSecret, ""); !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("expected lock, got %v", err)
	}

	if err := engine.RequestReset(ctx, seedKey); err != nil {
		t.Fatal(err)
	}
	if err := engine.ConfirmReset(ctx, sender.last(), newSecret); err != nil {
		t.Fatalf("ConfirmReset: %v", err)
	}

	if _, err := engine.Authenticate(ctx, seedKey, newSecret, ""); err != nil {
		t.Fatalf("login after reset: %v", err)
	}
}

func TestRequestReset_SenderFault(t *testing.T) {
	engine, _, sender, _ := newTestEngine(t)
	sender.fault = errors.New("smtp down")

	err := engine.RequestReset(context.Background(), seedKey)
	if !errors.Is(err, ErrSenderUnavailable) {
		t.Fatalf("got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	engine, store, _, _ := newTestEngine(t)
	ctx := context.Background()

	if err := engine.ChangePassword(ctx, seedID, "wrong-current-x", newSecret); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong current: got %v", err)
	}

	if err := engine.ChangePassword(ctx, seedID, seedSecret, seedSecret); !errors.Is(err, ErrPasswordReused) {
		t.Fatalf("unchanged secret: got %v", err)
	}

	if err := engine.ChangePassword(ctx, seedID, seedSecret, newSecret); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if _, err := engine.Authenticate(ctx, seedKey, newSecret, ""); err != nil {
		t.Fatalf("login with new secret: %v", err)
	}

	// The rotated-out hash reaches both history surfaces.
	p, err := store.FindByID(ctx, seedID)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.PriorHashes) != 1 {
		t.Fatalf("prior hashes = %d, want 1", len(p.PriorHashes))
	}
	if len(store.history[seedID]) != 1 {
		t.Fatalf("history callback entries = %d, want 1", len(store.history[seedID]))
	}
}

func TestChangePassword_RejectsHistoricalReuse(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	if err := engine.ChangePassword(ctx, seedID, seedSecret, newSecret); err != nil {
		t.Fatal(err)
	}

	// The original secret is now in history.
	if err := engine.ChangePassword(ctx, seedID, newSecret, seedSecret); !errors.Is(err, ErrPasswordReused) {
		t.Fatalf("got %v", err)
	}
}

func TestChangePassword_PolicyViolationsAreComplete(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	err := engine.ChangePassword(context.Background(), seedID, seedSecret, "short")
	var policyErr *PolicyError
	if !errors.As(err, &policyErr) {
		t.Fatalf("got %v", err)
	}
	if len(policyErr.Violations) < 2 {
		t.Fatalf("violations = %v, want the full list", policyErr.Violations)
	}
}
