package web

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"invoicing/internal/logger"
)

const (
	limiterIdleTTL       = 10 * time.Minute
	limiterPurgeInterval = time.Minute
)

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps one token bucket per client IP. It guards the public
// share route against token enumeration.
type rateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

func newRateLimiter(perSecond float64, burst int) *rateLimiter {
	return &rateLimiter{
		limiters: make(map[string]*ipLimiter),
		rate:     rate.Limit(perSecond),
		burst:    burst,
		now:      time.Now,
	}
}

func (rl *rateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters[key]
	if !ok {
		l = &ipLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = l
	}
	l.lastSeen = rl.now()
	return l.limiter.Allow()
}

// purge drops limiters idle longer than limiterIdleTTL.
func (rl *rateLimiter) purge() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-limiterIdleTTL)
	for key, l := range rl.limiters {
		if l.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
		}
	}
}

// startPurge runs purge every limiterPurgeInterval until ctx is done. The
// returned channel is closed once the goroutine has exited.
func (rl *rateLimiter) startPurge(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(limiterPurgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.purge()
			}
		}
	}()
	return done
}

// Handler rejects requests over the per-IP budget with 429.
func (rl *rateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.allow(ip) {
			log := logger.WithRequestID(requestIDFromContext(r.Context()))
			log.Warn().
				Str("ip", ip).
				Str("route", routePattern(r)).
				Msg("rate limit exceeded")
			retry := 1
			if rl.rate > 0 && rl.rate < 1 {
				retry = int(1/float64(rl.rate)) + 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retry))
			writeError(w, r, "too many requests", "RATE_LIMITED", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
