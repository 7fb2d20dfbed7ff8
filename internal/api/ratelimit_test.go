package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestRateLimiterRefill(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := newRateLimiter(RateLimiterConfig{RequestsPerMinute: 60, BurstSize: 2}, clock.now)

	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatal("burst should allow two requests")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("third request should be denied")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("other IPs have their own bucket")
	}

	clock.advance(time.Second)
	if !rl.Allow("10.0.0.1") {
		t.Error("one token should refill after a second")
	}
	clock.advance(time.Hour)
	if got := rl.Remaining("10.0.0.1"); got != 2 {
		t.Errorf("Remaining() = %d, want capacity 2", got)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := newRateLimiter(RateLimiterConfig{RequestsPerMinute: 60, BurstSize: 5}, clock.now)
	rl.Allow("10.0.0.1")
	clock.advance(4 * time.Minute)
	rl.Allow("10.0.0.2")

	clock.advance(2 * time.Minute)
	if n := rl.cleanup(); n != 1 {
		t.Errorf("cleanup() removed %d, want 1", n)
	}
	if _, ok := rl.buckets["10.0.0.2"]; !ok {
		t.Error("recently used bucket was removed")
	}
}

func TestRateLimiterStopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 1, BurstSize: 1})
	rl.Stop()
	rl.Stop()
}

func TestRateLimiterMiddlewareHeaders(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := newRateLimiter(RateLimiterConfig{RequestsPerMinute: 30, BurstSize: 1}, clock.now)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("X-RateLimit-Limit") != "30" || rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("first = %d %v", rec.Code, rec.Header())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second = %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "3" {
		t.Errorf("Retry-After = %q, want 3", got)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{"remote addr", "192.0.2.7:5555", nil, "192.0.2.7"},
		{"forwarded first", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "203.0.113.9"},
		{"forwarded garbage", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "<script>"}, "10.0.0.1"},
		{"real ip", "10.0.0.1:1", map[string]string{"X-Real-IP": " 198.51.100.4 "}, "198.51.100.4"},
		{"ipv6", "[2001:db8::1]:443", nil, "2001:db8::1"},
		{"unparseable", "nonsense", nil, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
