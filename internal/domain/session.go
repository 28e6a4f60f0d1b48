package domain

import (
	"strings"
	"time"
)

// MarkerFlagTrue is the only flag value that counts as authenticated.
const MarkerFlagTrue = "true"

// DefaultMarkerTTL is the lifetime of a session marker (24 hours).
const DefaultMarkerTTL = 24 * time.Hour

// Marker is the client-held session marker written after a successful login.
//
// It is a coarse yes/no gate: it carries no identity or privilege claims.
// The flag must be exactly "true" for the marker to authorize anything.
type Marker struct {
	Flag     string        // "true" when authenticated; anything else is not
	IssuedAt time.Time     // Creation time; zero when the client did not carry one
	TTL      time.Duration // Validity window measured from IssuedAt
	Path     string        // Scope (path prefix) the marker applies to
	Secure   bool          // Only sent over encrypted transport
}

// NewMarker creates an authenticated marker issued at now.
func NewMarker(now time.Time, ttl time.Duration, secure bool) Marker {
	return Marker{
		Flag:     MarkerFlagTrue,
		IssuedAt: now,
		TTL:      ttl,
		Path:     "/",
		Secure:   secure,
	}
}

// Authenticated reports whether the flag is exactly "true".
func (m *Marker) Authenticated() bool {
	return m != nil && m.Flag == MarkerFlagTrue
}

// ExpiresAt returns when the marker stops being valid.
// Returns the zero time when the issue time is unknown.
func (m *Marker) ExpiresAt() time.Time {
	if m == nil || m.IssuedAt.IsZero() {
		return time.Time{}
	}
	return m.IssuedAt.Add(m.TTL)
}

// ValidAt reports whether the marker authorizes a request at now.
//
// A marker is valid when its flag is exactly "true" and now - IssuedAt < TTL.
// A marker without an issue time relies on the client's own expiry (the
// cookie max-age) and is valid whenever its flag is "true".
func (m *Marker) ValidAt(now time.Time) bool {
	if !m.Authenticated() {
		return false
	}
	if m.IssuedAt.IsZero() {
		return true
	}
	return now.Sub(m.IssuedAt) < m.TTL
}

// Credentials is a login form submission.
type Credentials struct {
	Identifier string
	Secret     string
}

// Normalize trims whitespace from both fields and lowercases the identifier.
func (c Credentials) Normalize() Credentials {
	return Credentials{
		Identifier: strings.ToLower(strings.TrimSpace(c.Identifier)),
		Secret:     strings.TrimSpace(c.Secret),
	}
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Marker Marker
	UserID string // Identifier assigned by the identity service, for logging only
}
