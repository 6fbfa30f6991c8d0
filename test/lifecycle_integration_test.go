//go:build integration
// +build integration

package test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tokengate/tokengate/middleware"
)

// TestTokenLifecycle walks one session from issuance through validation,
// logout, and post-logout rejection across the real engine wiring.
func TestTokenLifecycle(t *testing.T) {
	engine, _ := newIntegrationEngine(t)
	ctx := context.Background()

	token, err := engine.IssueForTenant(ctx, "alice", "Acme")
	if err != nil {
		t.Fatalf("IssueForTenant failed: %v", err)
	}

	if !engine.Validate(ctx, token, "alice", "Acme") {
		t.Fatal("fresh token failed validation")
	}
	if engine.Validate(ctx, token, "alice", "Globex") {
		t.Fatal("token validated for the wrong tenant")
	}
	if engine.Validate(ctx, token, "bob", "Acme") {
		t.Fatal("token validated for the wrong subject")
	}

	if err := engine.Logout(ctx, token, "Acme"); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if engine.Validate(ctx, token, "alice", "Acme") {
		t.Fatal("token still validated after logout")
	}

	// A fresh session for the same subject is unaffected.
	second, err := engine.IssueForTenant(ctx, "alice", "Acme")
	if err != nil {
		t.Fatalf("IssueForTenant failed: %v", err)
	}
	if !engine.Validate(ctx, second, "alice", "Acme") {
		t.Fatal("fresh session rejected after an earlier logout")
	}
}

// TestRevocationEntryExpiry checks the blacklist entry disappears once the
// token it shadows could no longer validate anyway.
func TestRevocationEntryExpiry(t *testing.T) {
	engine, mr := newIntegrationEngine(t)
	ctx := context.Background()

	// Globex tokens live fifteen minutes.
	token, err := engine.IssueForTenant(ctx, "bob", "Globex")
	if err != nil {
		t.Fatalf("IssueForTenant failed: %v", err)
	}
	if err := engine.Logout(ctx, token, "Globex"); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if got := len(mr.Keys()); got != 1 {
		t.Fatalf("blacklist keys = %d, want 1", got)
	}

	mr.FastForward(16 * time.Minute)
	if got := len(mr.Keys()); got != 0 {
		t.Fatalf("blacklist keys after expiry = %d, want 0", got)
	}
}

// TestHTTPLogoutFlow drives the engine through the HTTP dispatcher the way a
// real deployment would: issue on a login path, use the token, log out, and
// confirm the token is dead.
func TestHTTPLogoutFlow(t *testing.T) {
	engine, _ := newIntegrationEngine(t)
	ctx := context.Background()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/Acme/profile/me", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.IdentityFromContext(r.Context()); !ok {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/auth/Acme/logout", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := httptest.NewServer(middleware.Dispatch(engine, nil)(mux))
	t.Cleanup(server.Close)

	token, err := engine.IssueForTenant(ctx, "alice", "Acme")
	if err != nil {
		t.Fatalf("IssueForTenant failed: %v", err)
	}

	get := func(path, token string) int {
		t.Helper()
		req, err := http.NewRequest(http.MethodGet, server.URL+path, nil)
		if err != nil {
			t.Fatalf("NewRequest failed: %v", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := server.Client().Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		return resp.StatusCode
	}

	if code := get("/api/auth/Acme/profile/me", token); code != http.StatusOK {
		t.Fatalf("authenticated request = %d, want 200", code)
	}
	if code := get("/api/auth/Acme/profile/me", ""); code != http.StatusForbidden {
		t.Fatalf("tokenless request = %d, want 403", code)
	}
	if code := get("/api/auth/Acme/logout", token); code != http.StatusOK {
		t.Fatalf("logout request = %d, want 200", code)
	}
	if code := get("/api/auth/Acme/profile/me", token); code != http.StatusForbidden {
		t.Fatalf("post-logout request = %d, want 403", code)
	}
}

// TestConcurrentValidation hammers Validate from many goroutines against one
// engine to surface data races under the race detector.
func TestConcurrentValidation(t *testing.T) {
	engine, _ := newIntegrationEngine(t)
	ctx := context.Background()

	token, err := engine.IssueForTenant(ctx, "alice", "Acme")
	if err != nil {
		t.Fatalf("IssueForTenant failed: %v", err)
	}

	const workers = 16
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				if !engine.Validate(ctx, token, "alice", "Acme") {
					errs <- context.Canceled
					return
				}
			}
			errs <- nil
		}()
	}
	for i := 0; i < workers; i++ {
		if err := <-errs; err != nil {
			t.Fatal("validation failed under concurrency")
		}
	}
}
