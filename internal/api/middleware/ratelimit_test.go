package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func limitedHandler(rl *RateLimiter) http.Handler {
	return rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func hit(h http.Handler, remoteAddr string) int {
	req := httptest.NewRequest("GET", "/api/v1/providers", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	t.Parallel()

	// Refill is negligible at this rate, so only the burst matters.
	h := limitedHandler(NewRateLimiter(0.0001, 2))

	for i, want := range []int{204, 204, 429} {
		if got := hit(h, "203.0.113.9:1234"); got != want {
			t.Fatalf("request %d: status = %d, want %d", i+1, got, want)
		}
	}
}

func TestRateLimiterBucketsPerIPNotPerPort(t *testing.T) {
	t.Parallel()

	h := limitedHandler(NewRateLimiter(0.0001, 1))

	if got := hit(h, "203.0.113.7:1000"); got != http.StatusNoContent {
		t.Fatalf("first request: %d", got)
	}
	// Same client on a new source port shares the exhausted bucket.
	if got := hit(h, "203.0.113.7:2000"); got != http.StatusTooManyRequests {
		t.Fatalf("same ip, new port: %d, want 429", got)
	}
	// A different client is unaffected.
	if got := hit(h, "203.0.113.8:1000"); got != http.StatusNoContent {
		t.Fatalf("other ip: %d, want 204", got)
	}
}

func TestRateLimiterRefills(t *testing.T) {
	t.Parallel()

	h := limitedHandler(NewRateLimiter(50, 1))

	if got := hit(h, "203.0.113.5:1000"); got != http.StatusNoContent {
		t.Fatalf("first request: %d", got)
	}

	time.Sleep(100 * time.Millisecond)

	if got := hit(h, "203.0.113.5:1000"); got != http.StatusNoContent {
		t.Fatalf("after refill: %d, want 204", got)
	}
}

func TestRateLimiterErrorBody(t *testing.T) {
	t.Parallel()

	h := limitedHandler(NewRateLimiter(0.0001, 0))

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.4:1000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
}
