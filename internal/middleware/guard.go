package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/carevia/foundation/internal/guard"
	"github.com/carevia/foundation/internal/metrics"
	"github.com/carevia/foundation/internal/session"
)

// RouteGuardMiddleware applies guard decisions to incoming requests.
//
// It reads the marker through the session store and never writes it:
// a stale or forged marker is simply not honored.
type RouteGuardMiddleware struct {
	store  session.Store
	guard  *guard.Guard
	now    func() time.Time
	logger *slog.Logger
}

// NewRouteGuardMiddleware creates the route guard middleware.
// A nil clock uses time.Now.
func NewRouteGuardMiddleware(store session.Store, g *guard.Guard, clock func() time.Time, logger *slog.Logger) *RouteGuardMiddleware {
	if clock == nil {
		clock = time.Now
	}
	return &RouteGuardMiddleware{
		store:  store,
		guard:  g,
		now:    clock,
		logger: logger,
	}
}

// Handler returns middleware that redirects unauthenticated requests for
// protected paths to the login page with 307 Temporary Redirect.
//
// Requests outside the protected prefixes pass through untouched.
// Allowed protected responses are marked no-store so that a shared cache
// never serves the admin page to a client without a marker.
func (m *RouteGuardMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.guard.Protects(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		marker := m.store.Get(r)
		decision := m.guard.DecideAuthenticated(r.URL.Path, m.store.IsValid(marker, m.now()))

		metrics.GuardDecision(string(decision.Action))
		w.Header().Set("Cache-Control", "no-store")

		if !decision.Allowed() {
			m.logger.Debug("redirecting unauthenticated request",
				"path", r.URL.Path,
				"has_marker", marker != nil,
			)
			http.Redirect(w, r, decision.Location, http.StatusTemporaryRedirect)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Compile-time check
var _ func(http.Handler) http.Handler = (&RouteGuardMiddleware{}).Handler
