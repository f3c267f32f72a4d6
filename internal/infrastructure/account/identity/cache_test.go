package identity

import (
	"testing"
	"time"

	"github.com/riskibarqy/score-predictor/internal/domain/user"
)

func TestPrincipalCache_SetGet(t *testing.T) {
	t.Parallel()

	cache := newPrincipalCache(time.Minute, 10)
	cache.Set("k1", user.Principal{UserID: "u-1"})

	principal, ok := cache.Get("k1")
	if !ok || principal.UserID != "u-1" {
		t.Fatalf("expected cache hit for u-1, got %+v ok=%v", principal, ok)
	}
}

func TestPrincipalCache_Expired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	cache := newPrincipalCache(20*time.Millisecond, 10)
	cache.now = func() time.Time { return now }
	cache.Set("k1", user.Principal{UserID: "u-1"})

	now = now.Add(40 * time.Millisecond)
	if _, ok := cache.Get("k1"); ok {
		t.Fatalf("expected cache miss after expiry")
	}
}

func TestPrincipalCache_EvictsSoonestWhenFull(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	cache := newPrincipalCache(time.Minute, 2)
	cache.now = func() time.Time { return now }

	cache.Set("old", user.Principal{UserID: "u-old"})
	now = now.Add(time.Second)
	cache.Set("mid", user.Principal{UserID: "u-mid"})
	now = now.Add(time.Second)
	cache.Set("new", user.Principal{UserID: "u-new"})

	if _, ok := cache.Get("old"); ok {
		t.Fatalf("expected oldest entry to be evicted")
	}
	if _, ok := cache.Get("new"); !ok {
		t.Fatalf("expected newest entry to be kept")
	}
}
