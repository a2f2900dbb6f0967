package api

import (
	"math"
	"net"
	"net/http"
	"time"

	"yogastudio/internal/config"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

const (
	defaultBurst   = 5
	minLimiterIdle = time.Minute
)

// ipRateLimiter keeps one token bucket per client address. A bucket left
// unused for idle is dropped; by then it has refilled, so a fresh one behaves
// the same.
type ipRateLimiter struct {
	cfg     config.APIRateLimitConfig
	idle    time.Duration
	buckets *cache.Cache
}

func newIPRateLimiter(cfg config.APIRateLimitConfig) *ipRateLimiter {
	return newIPRateLimiterWithIdle(cfg, limiterIdle(cfg))
}

func newIPRateLimiterWithIdle(cfg config.APIRateLimitConfig, idle time.Duration) *ipRateLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	return &ipRateLimiter{
		cfg:     cfg,
		idle:    idle,
		buckets: cache.New(idle, idle),
	}
}

// limiterIdle is the time an empty bucket needs to refill, at least minLimiterIdle.
func limiterIdle(cfg config.APIRateLimitConfig) time.Duration {
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	if cfg.RPS <= 0 {
		return minLimiterIdle
	}
	refill := float64(burst) / cfg.RPS * float64(time.Second)
	if refill > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	if d := time.Duration(refill); d > minLimiterIdle {
		return d
	}
	return minLimiterIdle
}

func (l *ipRateLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := l.buckets.Get(key); ok {
		if lim, ok := v.(*rate.Limiter); ok {
			// Touch to push the expiry back.
			l.buckets.SetDefault(key, lim)
			return lim
		}
	}

	lim := rate.NewLimiter(rate.Limit(l.cfg.RPS), l.cfg.Burst)
	if err := l.buckets.Add(key, lim, cache.DefaultExpiration); err != nil {
		// Another request created it first.
		if v, ok := l.buckets.Get(key); ok {
			if existing, ok := v.(*rate.Limiter); ok {
				return existing
			}
		}
		l.buckets.SetDefault(key, lim)
	}
	return lim
}

func (l *ipRateLimiter) Wrap(next http.Handler) http.Handler {
	if l.cfg.RPS <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.getLimiter(clientIP(r)).Allow() {
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
