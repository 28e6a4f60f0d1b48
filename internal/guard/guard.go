// Package guard decides whether a request to a protected path may proceed.
//
// The decision is a pure function of the requested path, the session marker
// and the current time. It performs no I/O and never mutates the marker;
// applying the decision is the job of the HTTP middleware.
package guard

import (
	"strings"
	"time"

	"github.com/carevia/foundation/internal/domain"
)

// DefaultLoginPath is where unauthenticated requests are sent.
const DefaultLoginPath = "/login.html"

// DefaultProtectedPrefix covers the admin page and everything under /admin.
const DefaultProtectedPrefix = "/admin"

// Guard holds the static matcher configuration.
type Guard struct {
	prefixes  []string
	loginPath string
}

// New creates a guard for the given protected path prefixes.
// Empty entries are ignored; an empty loginPath uses DefaultLoginPath.
func New(prefixes []string, loginPath string) *Guard {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}

	cleaned := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		cleaned = append(cleaned, p)
	}

	return &Guard{
		prefixes:  cleaned,
		loginPath: loginPath,
	}
}

// LoginPath returns the redirect target.
func (g *Guard) LoginPath() string {
	return g.loginPath
}

// Protects reports whether path falls under a protected prefix.
func (g *Guard) Protects(path string) bool {
	for _, p := range g.prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Decide returns allow or redirect-to-login for a request.
//
// Paths outside the protected prefixes are always allowed. Protected paths
// are allowed only when the marker is present, its flag is exactly "true"
// and it has not expired at now.
func (g *Guard) Decide(path string, m *domain.Marker, now time.Time) domain.Decision {
	return g.DecideAuthenticated(path, m.ValidAt(now))
}

// DecideAuthenticated is Decide for callers that have already validated the
// marker, usually through session.Store.IsValid.
func (g *Guard) DecideAuthenticated(path string, authenticated bool) domain.Decision {
	if !g.Protects(path) || authenticated {
		return domain.Allow()
	}
	return domain.RedirectTo(g.loginPath)
}
