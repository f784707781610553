package main

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// visitorIdleTTL is how long an idle client keeps its limiter before
// being pruned.
const visitorIdleTTL = 3 * time.Hour

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter enforces a per-client request budget keyed by remote IP.
type ipLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

// newIPLimiter allows perHour requests per IP, with the full budget
// available as burst.
func newIPLimiter(perHour int) *ipLimiter {
	return &ipLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Every(time.Hour / time.Duration(perHour)),
		burst:    perHour,
		now:      time.Now,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[ip]
	if !ok {
		l.prune()
		v = &visitor{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = l.now()
	return v.limiter.Allow()
}

// prune drops idle visitors. Called with the lock held, only when a new
// visitor arrives, so steady traffic costs nothing.
func (l *ipLimiter) prune() {
	cutoff := l.now().Add(-visitorIdleTTL)
	for ip, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, ip)
		}
	}
}

// middleware rejects over-budget clients with 429.
func (l *ipLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !l.allow(ip) {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "request budget exhausted, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}
