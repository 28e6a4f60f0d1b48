package session

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/carevia/foundation/internal/domain"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Store reads and writes the session marker for a client.
//
// Implementations:
// - CookieStore: the marker lives in the client's cookies (production)
// - MemoryStore: one process-wide slot (tests)
//
// The login handler writes through Set after the issuer produces a marker;
// the route guard middleware only calls Get and IsValid.
type Store interface {
	// Get returns the marker carried by the request, or nil if absent.
	Get(r *http.Request) *domain.Marker

	// Set writes the marker. Writes are last-writer-wins.
	Set(w http.ResponseWriter, r *http.Request, m domain.Marker) error

	// Clear removes the marker.
	Clear(w http.ResponseWriter, r *http.Request)

	// IsValid reports whether m authorizes a request at now.
	// A nil marker is never valid.
	IsValid(m *domain.Marker, now time.Time) bool
}

// =============================================================================
// CookieStore Implementation
// =============================================================================

// CookieStore keeps the marker in two client-readable cookies:
//
//	loggedIn=true; Path=/; Max-Age=86400; SameSite=Lax[; Secure]
//	loggedInAt=<unix seconds>; Path=/; Max-Age=86400; SameSite=Lax[; Secure]
//
// The companion issue time lets the server check expiry itself instead of
// trusting the browser to drop the cookie.
type CookieStore struct {
	ttl        time.Duration
	trustProxy bool // Honor X-Forwarded-Proto when deciding the Secure flag on Clear
}

// NewCookieStore creates a cookie-backed store whose markers last ttl.
// A non-positive ttl falls back to domain.DefaultMarkerTTL.
func NewCookieStore(ttl time.Duration, trustProxy bool) *CookieStore {
	if ttl <= 0 {
		ttl = domain.DefaultMarkerTTL
	}
	return &CookieStore{ttl: ttl, trustProxy: trustProxy}
}

// Get reads the marker from the request cookies.
//
// A missing or malformed issue time yields a zero IssuedAt. The flag value is
// returned as-is so that anything other than "true" is rejected by the guard.
func (s *CookieStore) Get(r *http.Request) *domain.Marker {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil
	}

	m := &domain.Marker{
		Flag: cookie.Value,
		TTL:  s.ttl,
		Path: CookiePath,
	}

	if at, err := r.Cookie(IssuedAtCookieName); err == nil {
		if secs, err := strconv.ParseInt(at.Value, 10, 64); err == nil && secs > 0 {
			m.IssuedAt = time.Unix(secs, 0)
		}
	}

	return m
}

// Set writes both marker cookies on the response.
func (s *CookieStore) Set(w http.ResponseWriter, r *http.Request, m domain.Marker) error {
	path := m.Path
	if path == "" {
		path = CookiePath
	}
	maxAge := int(m.TTL / time.Second)
	if maxAge <= 0 {
		maxAge = int(s.ttl / time.Second)
	}

	http.SetCookie(w, markerCookie(CookieName, m.Flag, path, maxAge, m.Secure))
	if !m.IssuedAt.IsZero() {
		http.SetCookie(w, markerCookie(IssuedAtCookieName, strconv.FormatInt(m.IssuedAt.Unix(), 10), path, maxAge, m.Secure))
	}
	return nil
}

// Clear expires both marker cookies immediately.
func (s *CookieStore) Clear(w http.ResponseWriter, r *http.Request) {
	secure := IsSecureRequest(r, s.trustProxy)
	http.SetCookie(w, markerCookie(CookieName, "", CookiePath, -1, secure))
	http.SetCookie(w, markerCookie(IssuedAtCookieName, "", CookiePath, -1, secure))
}

// IsValid checks the flag and the companion issue time.
func (s *CookieStore) IsValid(m *domain.Marker, now time.Time) bool {
	return m.ValidAt(now)
}

// markerCookie builds a marker cookie. HttpOnly is off: the marker is a
// client-readable flag, not a credential.
func markerCookie(name, value, path string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   maxAge,
		HttpOnly: false,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// =============================================================================
// MemoryStore Implementation
// =============================================================================

// MemoryStore holds a single marker shared by every request, like one
// browser's cookie jar. Used in tests in place of CookieStore.
type MemoryStore struct {
	mu     sync.RWMutex
	marker *domain.Marker
}

// NewMemoryStore creates an empty single-slot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns a copy of the stored marker, or nil.
func (s *MemoryStore) Get(r *http.Request) *domain.Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.marker == nil {
		return nil
	}
	m := *s.marker
	return &m
}

// Set replaces the stored marker.
func (s *MemoryStore) Set(w http.ResponseWriter, r *http.Request, m domain.Marker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.marker = &m
	return nil
}

// Clear empties the slot.
func (s *MemoryStore) Clear(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.marker = nil
}

// IsValid applies the same rule as CookieStore.
func (s *MemoryStore) IsValid(m *domain.Marker, now time.Time) bool {
	return m.ValidAt(now)
}

// =============================================================================
// Request Helpers
// =============================================================================

// IsSecureRequest reports whether the request arrived over an encrypted
// connection. When trustProxy is set, X-Forwarded-Proto from a TLS-terminating
// proxy is honored.
func IsSecureRequest(r *http.Request, trustProxy bool) bool {
	if r.TLS != nil {
		return true
	}
	if trustProxy {
		proto := r.Header.Get("X-Forwarded-Proto")
		if i := strings.IndexByte(proto, ','); i >= 0 {
			proto = proto[:i]
		}
		return strings.EqualFold(strings.TrimSpace(proto), "https")
	}
	return false
}

// Compile-time checks
var (
	_ Store = (*CookieStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
