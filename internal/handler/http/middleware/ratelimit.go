package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/geopoint/geopoint-backend-go/internal/handler/http/response"
	"github.com/geopoint/geopoint-backend-go/internal/pkg/jwt"
	"golang.org/x/time/rate"
)

// idleAfter is how long an unused limiter is kept before being swept.
const idleAfter = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter hands out one token bucket per key (client IP or user id).
type KeyedLimiter struct {
	mu        sync.Mutex
	entries   map[string]*limiterEntry
	r         rate.Limit
	b         int
	lastSweep time.Time
	now       func() time.Time
}

// NewKeyedLimiter allows r requests per second per key with bursts of b.
func NewKeyedLimiter(r rate.Limit, b int) *KeyedLimiter {
	return &KeyedLimiter{
		entries: make(map[string]*limiterEntry),
		r:       r,
		b:       b,
		now:     time.Now,
	}
}

func (k *KeyedLimiter) Allow(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	if now.Sub(k.lastSweep) > idleAfter {
		for key, e := range k.entries {
			if now.Sub(e.lastSeen) > idleAfter {
				delete(k.entries, key)
			}
		}
		k.lastSweep = now
	}

	e, ok := k.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(k.r, k.b)}
		k.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// RateLimitByIP throttles by client address. Used on the public auth routes.
func RateLimitByIP(limiter *KeyedLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(clientIP(r)) {
				response.TooManyRequests(w, "Too many requests from this address")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByUser throttles authenticated callers. Requests without claims pass through.
func RateLimitByUser(limiter *KeyedLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := jwt.ClaimsFromContext(r.Context())
			if err == nil && !limiter.Allow(claims.UserID) {
				response.TooManyRequests(w, "Too many requests, slow down")
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
