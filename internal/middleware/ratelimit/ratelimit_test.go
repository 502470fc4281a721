package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiterRejectsAfterLimit(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 2, Window: time.Minute}, nil)
	h := l.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent {
		t.Fatalf("first requests should pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", codes[2])
	}
	if l.Rejected() != 1 {
		t.Errorf("Rejected() = %d, want 1", l.Rejected())
	}
}

func TestLimiterKeysByIP(t *testing.T) {
	l := NewLimiter(Config{RequestsPerMinute: 1}, nil)
	h := l.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", addr, rr.Code)
		}
	}
}

func TestNewLimiterDefaults(t *testing.T) {
	l := NewLimiter(Config{}, nil)
	if l.config.RequestsPerMinute != DefaultConfig().RequestsPerMinute {
		t.Errorf("RequestsPerMinute = %d", l.config.RequestsPerMinute)
	}
	if l.config.Window != time.Minute {
		t.Errorf("Window = %v", l.config.Window)
	}
}
