package revocation

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewStore(rdb, ""), mr
}

func TestRevokePermanently(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "token-1")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if revoked {
		t.Fatal("fresh token reported revoked")
	}

	if err := store.RevokePermanently(ctx, "token-1"); err != nil {
		t.Fatalf("RevokePermanently failed: %v", err)
	}

	revoked, err = store.IsRevoked(ctx, "token-1")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if !revoked {
		t.Fatal("revoked token reported clean")
	}

	// Unrelated tokens stay unaffected.
	revoked, err = store.IsRevoked(ctx, "token-2")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if revoked {
		t.Fatal("unrelated token reported revoked")
	}
}

func TestRevokeWithExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.RevokeWithExpiry(ctx, "token-1", 10*time.Second); err != nil {
		t.Fatalf("RevokeWithExpiry failed: %v", err)
	}

	revoked, err := store.IsRevoked(ctx, "token-1")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if !revoked {
		t.Fatal("timed revocation not visible")
	}

	mr.FastForward(11 * time.Second)

	revoked, err = store.IsRevoked(ctx, "token-1")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if revoked {
		t.Fatal("timed revocation survived its TTL")
	}
}

func TestRevokeWithNonPositiveTTLIsPermanent(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.RevokeWithExpiry(ctx, "token-1", 0); err != nil {
		t.Fatalf("RevokeWithExpiry failed: %v", err)
	}

	mr.FastForward(24 * time.Hour)

	revoked, err := store.IsRevoked(ctx, "token-1")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if !revoked {
		t.Fatal("zero-ttl revocation expired")
	}
}

func TestUnrevoke(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.RevokePermanently(ctx, "token-1"); err != nil {
		t.Fatalf("RevokePermanently failed: %v", err)
	}
	if err := store.Unrevoke(ctx, "token-1"); err != nil {
		t.Fatalf("Unrevoke failed: %v", err)
	}

	revoked, err := store.IsRevoked(ctx, "token-1")
	if err != nil {
		t.Fatalf("IsRevoked failed: %v", err)
	}
	if revoked {
		t.Fatal("unrevoked token still reported revoked")
	}

	// Idempotent on missing records.
	if err := store.Unrevoke(ctx, "never-revoked"); err != nil {
		t.Fatalf("Unrevoke on missing record failed: %v", err)
	}
}

func TestStoreUnavailable(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	mr.Close()

	if err := store.RevokePermanently(ctx, "token-1"); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("RevokePermanently error = %v, want %v", err, ErrStoreUnavailable)
	}
	if _, err := store.IsRevoked(ctx, "token-1"); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("IsRevoked error = %v, want %v", err, ErrStoreUnavailable)
	}
	if err := store.Unrevoke(ctx, "token-1"); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Unrevoke error = %v, want %v", err, ErrStoreUnavailable)
	}
	if _, err := store.Ping(ctx); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Ping error = %v, want %v", err, ErrStoreUnavailable)
	}
}

func TestRawTokensNeverStored(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	const token = "eyJ.secret-bearing-token.sig"
	if err := store.RevokePermanently(ctx, token); err != nil {
		t.Fatalf("RevokePermanently failed: %v", err)
	}

	for _, key := range mr.Keys() {
		if strings.Contains(key, token) {
			t.Fatalf("raw token leaked into Redis key %q", key)
		}
	}
}
