// Package ratelimit provides in-process admission control for the public
// API endpoints.
//
// State is process-local: buckets live in memory behind a narrow counter
// store interface, so a multi-instance deployment must swap the store for
// a shared one before the limits mean anything globally. An edge limiter
// (e.g. the CDN) should remain the first layer of defence.
package ratelimit

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// Config bounds one endpoint class.
type Config struct {
	MaxRequests int
	Window      time.Duration
}

// Preset limits for each endpoint class.
var (
	Contact      = Config{MaxRequests: 5, Window: 15 * time.Minute}
	QuoteRequest = Config{MaxRequests: 5, Window: 15 * time.Minute}
	Quote        = Config{MaxRequests: 30, Window: 15 * time.Minute}
	ChatMinute   = Config{MaxRequests: 5, Window: time.Minute}
	ChatHour     = Config{MaxRequests: 30, Window: time.Hour}
)

// Result is the outcome of an admission check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// CounterStore holds fixed-window counters keyed by (class, client).
// Incr performs the whole window transition atomically: it creates a
// fresh bucket when none exists or the previous window has expired, and
// increments otherwise. Sweep removes expired buckets; implementations
// may rate-limit how often a sweep actually runs.
type CounterStore interface {
	Incr(key string, now time.Time, window time.Duration) (count int, resetAt time.Time)
	Sweep(now time.Time)
}

// sweepInterval bounds how often the memory store scans its whole table.
const sweepInterval = 10 * time.Minute

type bucket struct {
	count   int
	resetAt time.Time
}

type memoryStore struct {
	mu        sync.Mutex
	buckets   map[string]bucket
	lastSweep time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{buckets: make(map[string]bucket)}
}

func (s *memoryStore) Incr(key string, now time.Time, window time.Duration) (int, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.buckets[key]
	if !ok || now.After(b.resetAt) {
		b = bucket{count: 1, resetAt: now.Add(window)}
	} else {
		b.count++
	}
	s.buckets[key] = b
	return b.count, b.resetAt
}

func (s *memoryStore) Sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now

	for key, b := range s.buckets {
		if now.After(b.resetAt) {
			delete(s.buckets, key)
		}
	}
}

// Limiter tracks request counts per (endpoint class, client) key over
// fixed windows.
type Limiter struct {
	store CounterStore
	now   func() time.Time
}

// New creates a Limiter backed by an in-memory counter store.
func New() *Limiter {
	return &Limiter{store: newMemoryStore(), now: time.Now}
}

// Check records a request against the given endpoint class and reports
// whether it is within the configured limit.
func (l *Limiter) Check(r *http.Request, class string, cfg Config) Result {
	now := l.now()
	l.store.Sweep(now)

	key := class + ":" + ClientID(r)
	count, resetAt := l.store.Incr(key, now, cfg.Window)

	if count > cfg.MaxRequests {
		return Result{Allowed: false, Remaining: 0, ResetAt: resetAt}
	}
	return Result{Allowed: true, Remaining: cfg.MaxRequests - count, ResetAt: resetAt}
}

// ClientID resolves the client identifier for bucketing: the first hop of
// X-Forwarded-For, then the edge proxy's CF-Connecting-IP, else a shared
// "unknown" bucket. Intentionally coarse.
func ClientID(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	return "unknown"
}

// GlobalCounter caps aggregate request volume across all clients for one
// endpoint class, on its own window clock, independent of per-client
// buckets.
type GlobalCounter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	count   int
	resetAt time.Time
	now     func() time.Time
}

// NewGlobalCounter creates a counter allowing limit requests per window.
func NewGlobalCounter(limit int, window time.Duration) *GlobalCounter {
	return &GlobalCounter{limit: limit, window: window, now: time.Now}
}

// Allow records one request and reports whether the aggregate limit still
// holds, along with when the current window resets.
func (g *GlobalCounter) Allow() (bool, time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if now.After(g.resetAt) {
		g.count = 0
		g.resetAt = now.Add(g.window)
	}
	g.count++
	return g.count <= g.limit, g.resetAt
}
