package revocation

import (
	"context"
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

	return NewRedis(client, "rvk"), mr
}

func TestRedis_RevokeThenIsRevoked(t *testing.T) {
	reg, _ := newTestRedis(t)
	ctx := context.Background()

	if err := reg.Revoke(ctx, "tok-a", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	revoked, err := reg.IsRevoked(ctx, HashToken("tok-a"))
	if err != nil || !revoked {
		t.Fatalf("IsRevoked = %v, %v; want true", revoked, err)
	}

	revoked, err = reg.IsRevoked(ctx, HashToken("tok-b"))
	if err != nil || revoked {
		t.Fatalf("IsRevoked(other) = %v, %v; want false", revoked, err)
	}
}

func TestRedis_EntryExpiresWithToken(t *testing.T) {
	reg, mr := newTestRedis(t)
	ctx := context.Background()

	if err := reg.Revoke(ctx, "tok-a", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	revoked, err := reg.IsRevoked(ctx, HashToken("tok-a"))
	if err != nil || revoked {
		t.Fatalf("IsRevoked after TTL = %v, %v; want false", revoked, err)
	}
}

func TestRedis_RevokeIdempotent(t *testing.T) {
	reg, mr := newTestRedis(t)
	ctx := context.Background()

	if err := reg.Revoke(ctx, "tok-a", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	// Second revoke with a later expiry must not extend the entry.
	if err := reg.Revoke(ctx, "tok-a", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)
	revoked, _ := reg.IsRevoked(ctx, HashToken("tok-a"))
	if revoked {
		t.Fatal("entry lifetime was extended past the original expiry")
	}
}

func TestRedis_ExpiredTokenNotStored(t *testing.T) {
	reg, mr := newTestRedis(t)
	ctx := context.Background()

	if err := reg.Revoke(ctx, "stale", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if len(mr.Keys()) != 0 {
		t.Fatal("revoking an expired token must not create a key")
	}
}

func TestRedis_UnavailableBackend(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	reg := NewRedis(client, "")
	mr.Close()

	ctx := context.Background()
	if err := reg.Revoke(ctx, "tok-a", time.Now().Add(time.Hour)); err == nil {
		t.Fatal("expected unavailability error from Revoke")
	}
	if _, err := reg.IsRevoked(ctx, HashToken("tok-a")); err == nil {
		t.Fatal("expected unavailability error from IsRevoked")
	}
}
