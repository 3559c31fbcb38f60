package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimitPerIP(t *testing.T) {
	handler := RateLimit(1, 2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	// Burst of 2 is allowed, the third request is rejected.
	for i := 0; i < 2; i++ {
		if code := do("10.0.0.1:1234"); code != http.StatusOK {
			t.Fatalf("request %d status = %d, want %d", i+1, code, http.StatusOK)
		}
	}
	if code := do("10.0.0.1:1234"); code != http.StatusTooManyRequests {
		t.Errorf("third request status = %d, want %d", code, http.StatusTooManyRequests)
	}

	// A different client IP has its own bucket.
	if code := do("10.0.0.2:1234"); code != http.StatusOK {
		t.Errorf("other IP status = %d, want %d", code, http.StatusOK)
	}
}

func TestIPRateLimiterReusesClientBucket(t *testing.T) {
	rl := newIPRateLimiter(1, 1)

	if !rl.allow("10.0.0.1") {
		t.Fatal("first request should be allowed")
	}
	if rl.allow("10.0.0.1") {
		t.Error("second request within the same second should be rejected")
	}
	if len(rl.clients) != 1 {
		t.Errorf("clients tracked = %d, want 1", len(rl.clients))
	}
}
