package ratelimit

import (
	"net/http"
	"strconv"
	"time"
)

// RetryAfter returns the whole seconds until resetAt, at least 1.
func RetryAfter(resetAt time.Time) int {
	secs := int(time.Until(resetAt).Seconds()) + 1
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Deny writes a 429 response with a Retry-After hint derived from the
// bucket's reset time.
func Deny(w http.ResponseWriter, resetAt time.Time) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(RetryAfter(resetAt)))
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"error":"Too many requests. Please try again later."}`))
}

// Middleware rejects requests over the limit for the given endpoint class
// before they reach the handler.
func Middleware(l *Limiter, class string, cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := l.Check(r, class, cfg)
			if !res.Allowed {
				Deny(w, res.ResetAt)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
