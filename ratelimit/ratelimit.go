// Package ratelimit provides fixed-window per-IP request limits.
package ratelimit

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"shopbilling/metrics"
)

const DefaultWindow = 15 * time.Minute

type visitor struct {
	count   int
	resetAt time.Time
}

// Limiter allows Max requests per client IP in each Window.
type Limiter struct {
	Name    string
	Max     int
	Window  time.Duration
	Message string

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
	now       func() time.Time
}

func New(name string, limit int, window time.Duration, message string) *Limiter {
	return &Limiter{
		Name:     name,
		Max:      limit,
		Window:   window,
		Message:  message,
		visitors: map[string]*visitor{},
		now:      time.Now,
	}
}

// General, Creation and Login are the three limits the API applies.
func General() *Limiter {
	return New("general", 100, DefaultWindow, "Too many requests. Please try again later.")
}

func Creation() *Limiter {
	return New("bill_creation", 20, DefaultWindow, "Too many bills created. Please wait before creating more.")
}

func Login() *Limiter {
	return New("login", 5, DefaultWindow, "Too many login attempts. Please try again later.")
}

// Allow counts one request from key and reports whether it is within the
// limit, how many remain and when the window resets.
func (l *Limiter) Allow(key string) (bool, int, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	v, ok := l.visitors[key]
	if !ok || !now.Before(v.resetAt) {
		v = &visitor{resetAt: now.Add(l.Window)}
		l.visitors[key] = v
	}
	v.count++

	remaining := l.Max - v.count
	if remaining < 0 {
		remaining = 0
	}
	return v.count <= l.Max, remaining, v.resetAt
}

// sweep drops expired windows at most once per Window. Caller holds mu.
func (l *Limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.Window {
		return
	}
	for key, v := range l.visitors {
		if !now.Before(v.resetAt) {
			delete(l.visitors, key)
		}
	}
	l.lastSweep = now
}

func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		ok, remaining, resetAt := l.Allow(ip)

		reset := int(math.Ceil(resetAt.Sub(l.now()).Seconds()))
		if reset < 0 {
			reset = 0
		}
		h := w.Header()
		h.Set("RateLimit-Limit", strconv.Itoa(l.Max))
		h.Set("RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("RateLimit-Reset", strconv.Itoa(reset))

		if !ok {
			slog.Warn("Rate limit exceeded", "limiter", l.Name, "ip", ip, "path", r.URL.Path)
			metrics.RateLimited.WithLabelValues(l.Name).Inc()
			h.Set("Retry-After", strconv.Itoa(reset))
			h.Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]any{"success": false, "message": l.Message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP is the connection's remote host, without the port.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
