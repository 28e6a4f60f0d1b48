// Package middleware contains HTTP middleware for the Carevia site.
//
// Middleware functions follow the standard Go pattern of wrapping http.Handler
// and are composed with Stack.
package middleware

import (
	"mime"
	"net"
	"net/http"
	"strings"
)

// Stack composes multiple middleware functions into a single middleware.
//
// The first middleware is the outermost (runs first on request, last on
// response):
//
//	stack := Stack(logging.Handler, security.Handler, routeGuard.Handler)
//	mux.Handle("GET /", stack(files))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// ClientIP extracts the client address from the request.
//
// Forwarding headers are only honored when trustProxy is set; otherwise any
// client could pick its own rate limit key by sending X-Forwarded-For.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		// X-Forwarded-For: client, proxy1, proxy2
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return ip
}

// isAPIRequest reports whether the client expects a JSON response.
func isAPIRequest(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && mediaType == "application/json" {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}
