package reset

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedis(client, "rst"), mr
}

func TestRedis_IssueConsumeRoundTrip(t *testing.T) {
	store, _ := newTestRedis(t)
	ctx := context.Background()

	raw, err := store.Issue(ctx, "p-1", time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	principalID, err := store.Consume(ctx, raw)
	if err != nil || principalID != "p-1" {
		t.Fatalf("Consume = %q, %v; want p-1", principalID, err)
	}
}

func TestRedis_ConsumeAtMostOnce(t *testing.T) {
	store, _ := newTestRedis(t)
	ctx := context.Background()

	raw, err := store.Issue(ctx, "p-1", time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := store.Consume(ctx, raw); err != nil {
		t.Fatalf("first Consume failed: %v", err)
	}
	if _, err := store.Consume(ctx, raw); !errors.Is(err, ErrTicketInvalidOrExpired) {
		t.Fatalf("second Consume: expected ErrTicketInvalidOrExpired, got %v", err)
	}
}

func TestRedis_TicketExpiresViaTTL(t *testing.T) {
	store, mr := newTestRedis(t)
	ctx := context.Background()

	raw, err := store.Issue(ctx, "p-1", time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := store.Consume(ctx, raw); !errors.Is(err, ErrTicketInvalidOrExpired) {
		t.Fatalf("expected ErrTicketInvalidOrExpired, got %v", err)
	}
}

func TestRedis_UnavailableBackend(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedis(client, "")
	mr.Close()

	ctx := context.Background()
	if _, err := store.Issue(ctx, "p-1", time.Hour); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from Issue, got %v", err)
	}
	if _, err := store.Consume(ctx, "whatever"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from Consume, got %v", err)
	}
}
