package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Checkmk/checkmk-sub072/internal/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestRateLimit(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h := RateLimit(RateLimitConfig{
		Burst:     2,
		PerMinute: 60,
		Now:       func() time.Time { return clock },
	})(okHandler)

	do := func(remote string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/rediscover", nil)
		r.RemoteAddr = remote
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	for i := 0; i < 2; i++ {
		if got := do("10.0.0.1:1000").Code; got != http.StatusNoContent {
			t.Fatalf("request %d: status = %d, want 204", i, got)
		}
	}

	w := do("10.0.0.1:1000")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q, want 1", w.Header().Get("Retry-After"))
	}

	if got := do("10.0.0.2:1000").Code; got != http.StatusNoContent {
		t.Errorf("other client status = %d, want 204", got)
	}

	clock = clock.Add(time.Second)
	if got := do("10.0.0.1:1000").Code; got != http.StatusNoContent {
		t.Errorf("after refill status = %d, want 204", got)
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	log := logger.New("error", false)

	tests := []struct {
		name    string
		allowed []string
		remote  string
		want    int
	}{
		{name: "passthrough", allowed: nil, remote: "8.8.8.8:1", want: http.StatusNoContent},
		{name: "allowed", allowed: []string{"10.0.0.0/8"}, remote: "10.1.1.1:1", want: http.StatusNoContent},
		{name: "rejected", allowed: []string{"10.0.0.0/8"}, remote: "8.8.8.8:1", want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := AllowOnlyCIDRS(tt.allowed, false, log)(okHandler)
			r := httptest.NewRequest(http.MethodPost, "/", nil)
			r.RemoteAddr = tt.remote
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
