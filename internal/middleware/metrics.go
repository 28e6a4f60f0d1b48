package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
)

// MetricsAuthMiddleware guards the Prometheus endpoint with HTTP basic auth.
type MetricsAuthMiddleware struct {
	userHash [32]byte
	passHash [32]byte
	enabled  bool
}

// NewMetricsAuthMiddleware creates the metrics auth middleware.
// With both username and password empty, authentication is disabled.
func NewMetricsAuthMiddleware(username, password string) *MetricsAuthMiddleware {
	return &MetricsAuthMiddleware{
		userHash: sha256.Sum256([]byte(username)),
		passHash: sha256.Sum256([]byte(password)),
		enabled:  username != "" || password != "",
	}
}

// Enabled reports whether credentials are required.
func (m *MetricsAuthMiddleware) Enabled() bool {
	return m.enabled
}

// Handler returns middleware that requires the configured credentials.
func (m *MetricsAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.enabled {
			next.ServeHTTP(w, r)
			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok || !m.matches(user, pass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="metrics"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// matches compares fixed-size digests so neither length nor content leaks
// through timing. Both comparisons always run.
func (m *MetricsAuthMiddleware) matches(user, pass string) bool {
	u := sha256.Sum256([]byte(user))
	p := sha256.Sum256([]byte(pass))
	userOK := subtle.ConstantTimeCompare(u[:], m.userHash[:])
	passOK := subtle.ConstantTimeCompare(p[:], m.passHash[:])
	return userOK&passOK == 1
}
