package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestList(t *testing.T, maxTTL time.Duration) (*List, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewList(rdb, "gs", maxTTL), mr
}

func TestRevokeAndCheck(t *testing.T) {
	list, _ := newTestList(t, 15*time.Minute)
	ctx := context.Background()

	if err := list.Revoke(ctx, "jti-1", 5*time.Minute); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}

	revoked, err := list.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("is revoked failed: %v", err)
	}
	if !revoked {
		t.Fatal("jti-1 not revoked")
	}

	revoked, err = list.IsRevoked(ctx, "jti-other")
	if err != nil {
		t.Fatalf("is revoked failed: %v", err)
	}
	if revoked {
		t.Fatal("unknown jti reported revoked")
	}
}

func TestRevokeClampsToMaxTTL(t *testing.T) {
	list, mr := newTestList(t, 15*time.Minute)
	ctx := context.Background()

	if err := list.Revoke(ctx, "jti-1", 10*time.Hour); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}

	ttl := mr.TTL("gs:b:jti-1")
	if ttl > 15*time.Minute {
		t.Fatalf("entry TTL = %v, want clamped to 15m", ttl)
	}
	if ttl <= 0 {
		t.Fatalf("entry TTL = %v, want positive", ttl)
	}
}

func TestRevokeExpiredTokenIsNoOp(t *testing.T) {
	list, mr := newTestList(t, 15*time.Minute)
	ctx := context.Background()

	if err := list.Revoke(ctx, "jti-1", 0); err != nil {
		t.Fatalf("revoke with zero remaining failed: %v", err)
	}
	if err := list.Revoke(ctx, "jti-2", -time.Minute); err != nil {
		t.Fatalf("revoke with negative remaining failed: %v", err)
	}

	if mr.Exists("gs:b:jti-1") || mr.Exists("gs:b:jti-2") {
		t.Fatal("expired token produced a blacklist entry")
	}
}

func TestEntrySelfPrunes(t *testing.T) {
	list, mr := newTestList(t, 15*time.Minute)
	ctx := context.Background()

	if err := list.Revoke(ctx, "jti-1", time.Minute); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	revoked, err := list.IsRevoked(ctx, "jti-1")
	if err != nil {
		t.Fatalf("is revoked failed: %v", err)
	}
	if revoked {
		t.Fatal("entry survived past its TTL")
	}
}
