// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// attempts holds the recent request times of one client, oldest first.
type attempts struct {
	mu    sync.Mutex
	times []time.Time
}

// prune drops times at or before cutoff.
func (a *attempts) prune(cutoff time.Time) {
	i := 0
	for i < len(a.times) && !a.times[i].After(cutoff) {
		i++
	}
	a.times = a.times[i:]
}

// RateLimiter limits requests per client IP over a sliding window. VAMP
// puts it in front of the GitHub sign-in endpoints.
type RateLimiter struct {
	mu      sync.RWMutex
	clients map[string]*attempts
	limit   int
	window  time.Duration
	respond ErrorResponder
	now     func() time.Time
	stopCh  chan struct{}
	once    sync.Once
}

// RateLimitOption configures a RateLimiter.
type RateLimitOption func(*RateLimiter)

// WithLimitResponse answers rejected requests through respond, typically
// the renderer's error page, instead of a plain-text body.
func WithLimitResponse(respond ErrorResponder) RateLimitOption {
	return func(rl *RateLimiter) {
		if respond != nil {
			rl.respond = respond
		}
	}
}

// NewRateLimiter creates a rate limiter that allows limit requests per
// window and client. A background goroutine forgets idle clients until
// Stop is called.
func NewRateLimiter(limit int, window time.Duration, opts ...RateLimitOption) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*attempts),
		limit:   limit,
		window:  window,
		respond: plainError,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(rl)
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.cleanup()
			case <-rl.stopCh:
				return
			}
		}
	}()

	return rl
}

// Stop terminates the background cleanup goroutine. Safe to call twice.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stopCh) })
}

// client returns the attempts record for key, creating it on first use.
func (rl *RateLimiter) client(key string) *attempts {
	rl.mu.RLock()
	a, ok := rl.clients[key]
	rl.mu.RUnlock()
	if ok {
		return a
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if a, ok = rl.clients[key]; !ok {
		a = &attempts{}
		rl.clients[key] = a
	}
	return a
}

// allow records a request for key when it is within the limit. Otherwise
// it reports how long until the oldest counted request leaves the window.
func (rl *RateLimiter) allow(key string) (bool, time.Duration) {
	a := rl.client(key)
	now := rl.now()

	a.mu.Lock()
	defer a.mu.Unlock()

	a.prune(now.Add(-rl.window))
	if len(a.times) >= rl.limit {
		if len(a.times) == 0 {
			return false, rl.window
		}
		return false, a.times[0].Add(rl.window).Sub(now)
	}

	a.times = append(a.times, now)
	return true, 0
}

// cleanup forgets clients with no request inside the window.
func (rl *RateLimiter) cleanup() {
	cutoff := rl.now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, a := range rl.clients {
		a.mu.Lock()
		a.prune(cutoff)
		idle := len(a.times) == 0
		a.mu.Unlock()

		if idle {
			delete(rl.clients, key)
		}
	}
}

// Middleware rejects requests over the limit with 429 and a Retry-After
// header in whole seconds, rounded up.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		ok, wait := rl.allow(ip)
		if ok {
			next.ServeHTTP(w, r)
			return
		}

		seconds := int(math.Ceil(wait.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		slog.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path, "retry_after", seconds)
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		rl.respond(w, r, http.StatusTooManyRequests,
			fmt.Sprintf("Too many attempts. Please try again in %d seconds.", seconds))
	})
}

// clientIP extracts the client's IP address, preferring the leftmost
// X-Forwarded-For entry, then X-Real-IP, then RemoteAddr without its port.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
