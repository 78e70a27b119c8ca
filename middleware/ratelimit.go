package middleware

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// IPLimiter — token bucket на каждый IP клиента.
type IPLimiter struct {
	mu       sync.Mutex
	limiters map[string]*visitor
	rate     rate.Limit
	burst    int
	idle     time.Duration
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPLimiter allows perSecond requests per IP with the given burst.
// Buckets untouched for idle are dropped by Cleanup.
func NewIPLimiter(perSecond float64, burst int, idle time.Duration) *IPLimiter {
	return &IPLimiter{
		limiters: make(map[string]*visitor),
		rate:     rate.Limit(perSecond),
		burst:    burst,
		idle:     idle,
	}
}

func (l *IPLimiter) Allow(ip string, now time.Time) bool {
	l.mu.Lock()
	v, ok := l.limiters[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.limiters[ip] = v
	}
	v.lastSeen = now
	l.mu.Unlock()
	return v.limiter.AllowN(now, 1)
}

func (l *IPLimiter) Cleanup(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, v := range l.limiters {
		if now.Sub(v.lastSeen) > l.idle {
			delete(l.limiters, ip)
		}
	}
}

func (l *IPLimiter) retryAfter() int {
	if l.rate <= 0 {
		return 60
	}
	return int(math.Ceil(1 / float64(l.rate)))
}

// RateLimit refuses requests over the per-IP budget with 429.
func RateLimit(l *IPLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, _ := net.SplitHostPort(r.RemoteAddr)
			if ip == "" {
				ip = r.RemoteAddr
			}
			if !l.Allow(ip, time.Now()) {
				w.Header().Set("Retry-After", fmt.Sprint(l.retryAfter()))
				writeError(w, http.StatusTooManyRequests, "too many attempts, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
