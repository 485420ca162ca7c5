package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(limit int, period time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(limit, period)
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiterAllow(t *testing.T) {
	rl, clock := newTestLimiter(10, time.Minute)

	for i := 0; i < 10; i++ {
		if ok, _ := rl.Allow("203.0.113.7"); !ok {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}

	clock.advance(20 * time.Second)
	ok, wait := rl.Allow("203.0.113.7")
	if ok {
		t.Fatal("11th attempt should be denied")
	}
	if wait != 40*time.Second {
		t.Errorf("wait = %v, want 40s", wait)
	}

	if ok, _ := rl.Allow("198.51.100.2"); !ok {
		t.Error("other addresses have their own budget")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl, clock := newTestLimiter(2, time.Minute)

	rl.Allow("key")
	rl.Allow("key")
	if ok, _ := rl.Allow("key"); ok {
		t.Fatal("should be blocked within window")
	}

	clock.advance(time.Minute)
	if ok, _ := rl.Allow("key"); !ok {
		t.Error("should be allowed after window resets")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl, clock := newTestLimiter(5, time.Minute)

	rl.Allow("expired")
	clock.advance(2 * time.Minute)
	rl.Allow("active")

	rl.Cleanup()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.windows["expired"]; ok {
		t.Error("expired window should have been removed")
	}
	if _, ok := rl.windows["active"]; !ok {
		t.Error("active window should still exist")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl, clock := newTestLimiter(2, time.Minute)
	handler := RateLimit(rl, ClientIP(nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/auth/login", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := send(); rec.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
	}

	clock.advance(59*time.Second + 500*time.Millisecond)
	rec := send()
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("3rd request: status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if got := rec.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want %q", got, "1")
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}
}

func TestClientIPIgnoresHeadersFromUntrustedPeers(t *testing.T) {
	key := ClientIP(nil)

	req := httptest.NewRequest("POST", "/api/auth/login", nil)
	req.RemoteAddr = "203.0.113.9:4321"
	req.Header.Set("X-Forwarded-For", "198.51.100.1")
	req.Header.Set("X-Real-IP", "198.51.100.2")
	if got := key(req); got != "203.0.113.9" {
		t.Errorf("ClientIP = %q, want peer address", got)
	}
}

func TestClientIPBehindTrustedProxy(t *testing.T) {
	key := ClientIP([]netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")})

	req := httptest.NewRequest("POST", "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:4321"
	if got := key(req); got != "10.0.0.1" {
		t.Errorf("ClientIP = %q, want peer without headers", got)
	}

	req.Header.Set("X-Real-IP", "198.51.100.2")
	if got := key(req); got != "198.51.100.2" {
		t.Errorf("ClientIP = %q, want X-Real-IP", got)
	}

	// A client-supplied first hop is skipped; the proxy appended the real peer.
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 203.0.113.7, 10.0.0.5")
	if got := key(req); got != "203.0.113.7" {
		t.Errorf("ClientIP = %q, want last untrusted hop", got)
	}
}

func TestRotatedForwardedForSharesBudget(t *testing.T) {
	rl, _ := newTestLimiter(2, time.Minute)
	handler := RateLimit(rl, ClientIP(nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last int
	for _, fwd := range []string{"198.51.100.1", "198.51.100.2", "198.51.100.3"} {
		req := httptest.NewRequest("POST", "/api/auth/login", nil)
		req.RemoteAddr = "203.0.113.9:4321"
		req.Header.Set("X-Forwarded-For", fwd)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", last, http.StatusTooManyRequests)
	}
}
