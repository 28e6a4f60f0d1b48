package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestIDHeader carries the request id to and from clients and proxies.
const RequestIDHeader = "X-Request-ID"

// RequestID returns the id assigned by RequestLoggingMiddleware, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestLoggingMiddleware logs HTTP requests with timing and status information.
type RequestLoggingMiddleware struct {
	logger     *slog.Logger
	trustProxy bool
}

// NewRequestLoggingMiddleware creates a new request logging middleware.
func NewRequestLoggingMiddleware(logger *slog.Logger, trustProxy bool) *RequestLoggingMiddleware {
	return &RequestLoggingMiddleware{
		logger:     logger,
		trustProxy: trustProxy,
	}
}

// Handler returns middleware that tags every request with an id and logs it.
// An incoming X-Request-ID is reused when it looks sane.
func (m *RequestLoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, id))

		if m.shouldSkip(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		attrs := []any{
			"request_id", id,
			"method", r.Method,
			"path", sanitizePath(r.URL.Path, r.URL.RawQuery),
			"status", wrapped.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", ClientIP(r, m.trustProxy),
			"user_agent", r.UserAgent(),
		}

		switch {
		case wrapped.statusCode >= 500:
			m.logger.Warn("request", attrs...)
		case wrapped.statusCode == http.StatusTemporaryRedirect:
			// Guard redirects are routine; keep them out of info logs.
			m.logger.Debug("request", attrs...)
		default:
			m.logger.Info("request", attrs...)
		}
	})
}

// shouldSkip returns true for paths that are too noisy to log.
func (m *RequestLoggingMiddleware) shouldSkip(path string) bool {
	for _, skip := range []string{"/health", "/metrics", "/assets/", "/images/", "/files/"} {
		if strings.HasPrefix(path, skip) {
			return true
		}
	}
	return false
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// sensitiveParams are query parameter names redacted from logged paths.
var sensitiveParams = map[string]bool{
	"email":        true,
	"password":     true,
	"token":        true,
	"access_token": true,
	"secret":       true,
	"key":          true,
	"apikey":       true,
	"api_key":      true,
}

// sanitizePath redacts sensitive query parameters for logging.
func sanitizePath(path, rawQuery string) string {
	if rawQuery == "" {
		return path
	}

	parts := strings.Split(rawQuery, "&")
	safe := make([]string, 0, len(parts))
	for _, part := range parts {
		k, _, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		if sensitiveParams[strings.ToLower(k)] {
			safe = append(safe, k+"=[REDACTED]")
		} else {
			safe = append(safe, part)
		}
	}

	if len(safe) == 0 {
		return path
	}
	return path + "?" + strings.Join(safe, "&")
}
