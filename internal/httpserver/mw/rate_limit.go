package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Checkmk/checkmk-sub072/internal/utils"
)

// RateLimitConfig configures a per-client token bucket.
type RateLimitConfig struct {
	Burst      int
	PerMinute  int
	IdleTTL    time.Duration // buckets unused for this long are dropped
	TrustProxy bool
	Now        func() time.Time
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

type limiter struct {
	mu        sync.Mutex
	rate      float64 // tokens per second
	capacity  float64
	idleTTL   time.Duration
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newLimiter(cfg RateLimitConfig, now time.Time) *limiter {
	burst := max(cfg.Burst, 1)
	perMin := max(cfg.PerMinute, 1)
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &limiter{
		rate:      float64(perMin) / 60.0,
		capacity:  float64(burst),
		idleTTL:   ttl,
		buckets:   make(map[string]*bucket),
		lastSweep: now,
	}
}

// allow takes one token for key. When none is left it returns the seconds
// until the next token.
func (l *limiter) allow(key string, now time.Time) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= l.idleTTL {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) > l.idleTTL {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b := l.buckets[key]
	if b == nil {
		b = &bucket{tokens: l.capacity, lastSeen: now}
		l.buckets[key] = b
	}

	if elapsed := now.Sub(b.lastSeen).Seconds(); elapsed > 0 {
		b.tokens = math.Min(l.capacity, b.tokens+elapsed*l.rate)
	}
	b.lastSeen = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	return false, max(int(math.Ceil((1-b.tokens)/l.rate)), 1)
}

// RateLimit throttles requests per client IP.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	l := newLimiter(cfg, now())

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retry := l.allow(utils.ClientIP(r, cfg.TrustProxy), now())
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
