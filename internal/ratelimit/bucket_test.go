package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestTokenBucket_AllowsUpToCapacity(t *testing.T) {
	tb := NewTokenBucket(t.Context(), 1, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if !tb.Allow(ctx, "test-key") {
			t.Fatalf("request %d should be allowed (bucket not yet empty)", i+1)
		}
	}
	if tb.Allow(ctx, "test-key") {
		t.Fatal("4th request should be denied (bucket empty)")
	}
}

func TestTokenBucket_DifferentKeysAreIndependent(t *testing.T) {
	tb := NewTokenBucket(t.Context(), 1, 1)
	ctx := context.Background()

	if !tb.Allow(ctx, "ip-a") {
		t.Fatal("ip-a first request should be allowed")
	}
	if tb.Allow(ctx, "ip-a") {
		t.Fatal("ip-a second request should be denied")
	}
	if !tb.Allow(ctx, "ip-b") {
		t.Fatal("ip-b first request should be allowed (independent bucket)")
	}
}

func TestTokenBucket_Refills(t *testing.T) {
	tb := NewTokenBucket(t.Context(), 2, 1)
	ctx := context.Background()
	now := time.Now()
	tb.now = func() time.Time { return now }

	if !tb.Allow(ctx, "k") {
		t.Fatal("first request should be allowed")
	}
	if tb.Allow(ctx, "k") {
		t.Fatal("second request should be denied")
	}

	now = now.Add(600 * time.Millisecond)
	if !tb.Allow(ctx, "k") {
		t.Fatal("request after refill should be allowed")
	}
}

func TestTokenBucket_ZeroRateNeverRefills(t *testing.T) {
	tb := NewTokenBucket(t.Context(), 0, 2)
	ctx := context.Background()

	if !tb.Allow(ctx, "k") {
		t.Fatal("first request should be allowed")
	}
	if !tb.Allow(ctx, "k") {
		t.Fatal("second request should be allowed")
	}
	if tb.Allow(ctx, "k") {
		t.Fatal("third request should be denied (no refill)")
	}
}

func TestTokenBucket_EvictsIdleKeys(t *testing.T) {
	tb := NewTokenBucket(t.Context(), 1, 1)
	ctx := context.Background()
	now := time.Now()
	tb.now = func() time.Time { return now }

	tb.Allow(ctx, "old")
	now = now.Add(11 * time.Minute)
	tb.Allow(ctx, "fresh")

	tb.evictIdle(10 * time.Minute)
	if tb.Len() != 1 {
		t.Fatalf("expected 1 tracked key after eviction, got %d", tb.Len())
	}
}
