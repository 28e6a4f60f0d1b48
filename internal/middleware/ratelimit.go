package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// =============================================================================
// Rate Limiter
// =============================================================================

// RateLimiter counts requests per key in fixed windows.
type RateLimiter struct {
	maxAttempts int
	window      time.Duration
	now         func() time.Time

	mu      sync.Mutex
	entries map[string]*rateLimitEntry

	stop     chan struct{}
	stopOnce sync.Once
}

type rateLimitEntry struct {
	count       int
	windowStart time.Time
}

// NewRateLimiter creates a rate limiter and starts its cleanup goroutine.
// Call Stop to end the goroutine.
func NewRateLimiter(maxAttempts int, window time.Duration) *RateLimiter {
	return newRateLimiter(maxAttempts, window, time.Now)
}

func newRateLimiter(maxAttempts int, window time.Duration, now func() time.Time) *RateLimiter {
	rl := &RateLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		now:         now,
		entries:     make(map[string]*rateLimitEntry),
		stop:        make(chan struct{}),
	}

	go rl.cleanup()

	return rl
}

// Allow reports whether a request for key fits in the current window and
// counts it if so.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, exists := rl.entries[key]

	if !exists || now.Sub(entry.windowStart) >= rl.window {
		rl.entries[key] = &rateLimitEntry{count: 1, windowStart: now}
		return true
	}

	if entry.count < rl.maxAttempts {
		entry.count++
		return true
	}

	return false
}

// TimeUntilReset returns how long until the window for key ends.
func (rl *RateLimiter) TimeUntilReset(key string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.entries[key]
	if !exists {
		return 0
	}

	elapsed := rl.now().Sub(entry.windowStart)
	if elapsed >= rl.window {
		return 0
	}
	return rl.window - elapsed
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// cleanup periodically drops expired entries.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, entry := range rl.entries {
				if now.Sub(entry.windowStart) >= rl.window {
					delete(rl.entries, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// =============================================================================
// Rate Limit Middleware
// =============================================================================

// RateLimitMiddleware applies a RateLimiter keyed by client IP.
type RateLimitMiddleware struct {
	limiter    *RateLimiter
	trustProxy bool
	logger     *slog.Logger
}

// NewRateLimitMiddleware creates a new rate limit middleware.
func NewRateLimitMiddleware(limiter *RateLimiter, trustProxy bool, logger *slog.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter:    limiter,
		trustProxy: trustProxy,
		logger:     logger,
	}
}

// Limit returns middleware that answers 429 with Retry-After once a client
// exceeds the limit.
func (m *RateLimitMiddleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := ClientIP(r, m.trustProxy)

		if m.limiter.Allow(clientIP) {
			next.ServeHTTP(w, r)
			return
		}

		m.logger.Warn("rate limit exceeded",
			"ip", clientIP,
			"path", r.URL.Path,
			"method", r.Method,
		)

		retryAfter := int(m.limiter.TimeUntilReset(clientIP).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

		if isAPIRequest(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":   "rate_limit_exceeded",
				"message": "Too many requests. Please try again later.",
			})
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Too Many Requests</title></head>
<body>
<h1>Too Many Requests</h1>
<p>Please wait a moment and try again.</p>
</body>
</html>`))
	})
}

// =============================================================================
// Site Rate Limits
// =============================================================================

// Default limits for the public write endpoints.
const (
	LoginMaxAttempts   = 10
	LoginWindow        = 15 * time.Minute
	ContactMaxAttempts = 20
	ContactWindow      = time.Hour
)

// SiteRateLimiter groups the limiters for the login form and the public
// contact endpoint.
type SiteRateLimiter struct {
	login   *RateLimitMiddleware
	contact *RateLimitMiddleware
}

// NewSiteRateLimiter creates limiters with the default limits.
func NewSiteRateLimiter(trustProxy bool, logger *slog.Logger) *SiteRateLimiter {
	return &SiteRateLimiter{
		login:   NewRateLimitMiddleware(NewRateLimiter(LoginMaxAttempts, LoginWindow), trustProxy, logger),
		contact: NewRateLimitMiddleware(NewRateLimiter(ContactMaxAttempts, ContactWindow), trustProxy, logger),
	}
}

// LimitLogin rate limits login submissions.
func (s *SiteRateLimiter) LimitLogin(next http.Handler) http.Handler {
	return s.login.Limit(next)
}

// LimitContact rate limits contact form submissions.
func (s *SiteRateLimiter) LimitContact(next http.Handler) http.Handler {
	return s.contact.Limit(next)
}

// Stop ends the cleanup goroutines.
func (s *SiteRateLimiter) Stop() {
	s.login.limiter.Stop()
	s.contact.limiter.Stop()
}
