package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiterAllow(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewLimiter(Config{Requests: 2, Window: time.Minute})
	defer rl.Stop()
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("a") {
		t.Fatal("third request should be limited")
	}
	if !rl.Allow("b") {
		t.Fatal("clients are tracked separately")
	}

	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatal("new window should reset the budget")
	}

	now = now.Add(5 * time.Minute)
	if n := rl.cleanupStaleEntries(); n != 2 {
		t.Fatalf("cleanup removed %d", n)
	}
	if rl.ActiveClients() != 0 {
		t.Fatal("expected no clients")
	}
}

func TestLimiterMiddleware(t *testing.T) {
	rl := NewLimiter(Config{Requests: 1, Window: time.Minute})
	defer rl.Stop()
	h := rl.Middleware(func(*http.Request) string { return "ip" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("code = %d retry = %q", rec.Code, rec.Header().Get("Retry-After"))
	}
}
