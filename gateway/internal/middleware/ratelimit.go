package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleTTL is how long a client's limiter survives without requests.
const idleTTL = 10 * time.Minute

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// PerClientRateLimiter keeps one token bucket per client key.
type PerClientRateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*client
	rps       rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewPerClientRateLimiter allows each client rps requests per second with
// the given burst. A burst below one is raised to ceil(rps).
func NewPerClientRateLimiter(rps float64, burst int) *PerClientRateLimiter {
	if burst < 1 {
		burst = int(math.Max(1, math.Ceil(rps)))
	}
	return &PerClientRateLimiter{
		clients:   make(map[string]*client),
		rps:       rate.Limit(rps),
		burst:     burst,
		ttl:       idleTTL,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// Allow reports whether the client identified by key may proceed.
func (l *PerClientRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	now := l.now()
	l.sweep(now)

	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	lim := c.limiter
	l.mu.Unlock()

	return lim.AllowN(now, 1)
}

// RetryAfter is the whole number of seconds a rejected client should wait.
func (l *PerClientRateLimiter) RetryAfter() int {
	if l.rps <= 0 {
		return 1
	}
	return int(math.Max(1, math.Ceil(1/float64(l.rps))))
}

// sweep drops idle clients at most once per ttl. Caller holds mu.
func (l *PerClientRateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.ttl {
		return
	}
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) >= l.ttl {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}

func (l *PerClientRateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// PerClientRateLimitMiddleware rejects requests over the per-client limit
// with 429. Clients are keyed by remote IP; skipPaths are never limited.
func PerClientRateLimitMiddleware(l *PerClientRateLimiter, skipPaths []string) func(http.Handler) http.Handler {
	skipSet := toSet(skipPaths)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, skip := skipSet[r.URL.Path]; skip {
				next.ServeHTTP(w, r)
				return
			}
			if !l.Allow(clientIP(r)) {
				w.Header().Set("Retry-After", strconv.Itoa(l.RetryAfter()))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
