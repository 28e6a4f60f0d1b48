package handler

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/carevia/foundation/internal/csrf"
	"github.com/carevia/foundation/internal/domain"
	"github.com/carevia/foundation/internal/guard"
	"github.com/carevia/foundation/internal/identity"
	"github.com/carevia/foundation/internal/inflight"
	"github.com/carevia/foundation/internal/middleware"
	"github.com/carevia/foundation/internal/service"
	"github.com/carevia/foundation/internal/session"
)

// =============================================================================
// Test Fixtures
// =============================================================================

type mockIdentityProvider struct {
	SignInFunc func(ctx context.Context, email, password string) (*identity.Identity, error)
	calls      atomic.Int32
}

func (m *mockIdentityProvider) SignInWithPassword(ctx context.Context, email, password string) (*identity.Identity, error) {
	m.calls.Add(1)
	if m.SignInFunc != nil {
		return m.SignInFunc(ctx, email, password)
	}
	if email == "admin@example.com" && password == "correct-pass" {
		return &identity.Identity{UserID: "u-1", Email: email}, nil
	}
	return nil, identity.ErrInvalidCredentials
}

// testClock is a settable clock shared by the issuer and the guard.
type testClock struct {
	now atomic.Pointer[time.Time]
}

func newTestClock(t time.Time) *testClock {
	c := &testClock{}
	c.Set(t)
	return c
}

func (c *testClock) Now() time.Time  { return *c.now.Load() }
func (c *testClock) Set(t time.Time) { c.now.Store(&t) }

// newTestSite wires the login flow the way main does: auth routes plus a
// stand-in admin page, all behind the route guard.
func newTestSite(t *testing.T, provider identity.Provider, clock *testClock, trustProxy bool) http.Handler {
	t.Helper()

	logger := discardLogger()
	store := session.NewCookieStore(24*time.Hour, trustProxy)
	issuer := service.NewSessionIssuer(provider, inflight.NewMemory(), service.IssuerConfig{
		ProviderName: "mock",
		Clock:        clock.Now,
	}, logger)

	mux := http.NewServeMux()
	NewAuthHandler(issuer, store, AuthHandlerConfig{
		LoginPath:  "/login.html",
		AdminPath:  "/admin.html",
		TrustProxy: trustProxy,
	}, logger).RegisterRoutes(mux, func(h http.Handler) http.Handler { return h })
	mux.HandleFunc("GET /admin.html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("admin dashboard"))
	})
	mux.HandleFunc("GET /index.html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("home"))
	})

	routeGuard := middleware.NewRouteGuardMiddleware(store, guard.New([]string{"/admin"}, "/login.html"), clock.Now, logger)
	return routeGuard.Handler(mux)
}

// fetchCSRF loads the login page and returns its CSRF cookie.
func fetchCSRF(t *testing.T, site http.Handler) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	site.ServeHTTP(rec, httptest.NewRequest("GET", "/login.html", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("login page: expected 200, got %d", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == csrf.CookieName {
			return c
		}
	}
	t.Fatal("login page did not set a csrf cookie")
	return nil
}

func postLogin(site http.Handler, token *http.Cookie, email, password string) *httptest.ResponseRecorder {
	form := url.Values{"email": {email}, "password": {password}}
	if token != nil {
		form.Set(csrf.FormFieldName, token.Value)
	}
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "198.51.100.7:5000"
	if token != nil {
		req.AddCookie(token)
	}
	rec := httptest.NewRecorder()
	site.ServeHTTP(rec, req)
	return rec
}

func getWithCookies(site http.Handler, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	site.ServeHTTP(rec, req)
	return rec
}

func markerCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

var siteNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// =============================================================================
// Login Flow
// =============================================================================

func TestLogin_SuccessWritesMarkerThenGuardAllows(t *testing.T) {
	clock := newTestClock(siteNow)
	site := newTestSite(t, &mockIdentityProvider{}, clock, false)

	rec := postLogin(site, fetchCSRF(t, site), "admin@example.com", "correct-pass")

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/admin.html" {
		t.Errorf("expected redirect to /admin.html, got %q", loc)
	}

	marker := markerCookie(rec)
	if marker == nil {
		t.Fatal("expected marker cookie in the redirect response")
	}
	if marker.Value != "true" || marker.Path != "/" || marker.MaxAge != 86400 {
		t.Errorf("unexpected marker cookie: %+v", marker)
	}
	if marker.HttpOnly {
		t.Error("marker must be client-readable")
	}
	if marker.Secure {
		t.Error("marker must not be Secure over plain HTTP")
	}

	raw := strings.Join(rec.Header().Values("Set-Cookie"), "\n")
	if !strings.Contains(raw, "loggedIn=true; Path=/; Max-Age=86400") || !strings.Contains(raw, "SameSite=Lax") {
		t.Errorf("unexpected Set-Cookie wire format:\n%s", raw)
	}
	if !strings.Contains(raw, "loggedInAt=1772366400") {
		t.Errorf("expected issue time cookie, got:\n%s", raw)
	}

	clock.Set(siteNow.Add(time.Minute))
	admin := getWithCookies(site, "/admin.html", rec.Result().Cookies())
	if admin.Code != http.StatusOK || admin.Body.String() != "admin dashboard" {
		t.Errorf("expected admin page, got %d %q", admin.Code, admin.Body.String())
	}
}

func TestLogin_WrongPasswordNoMarkerThenGuardRedirects(t *testing.T) {
	site := newTestSite(t, &mockIdentityProvider{}, newTestClock(siteNow), false)

	rec := postLogin(site, fetchCSRF(t, site), "admin@example.com", "wrong")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if markerCookie(rec) != nil {
		t.Error("no marker may be written on failure")
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Invalid email or password") {
		t.Errorf("expected error message on the page, got: %s", body)
	}
	if !strings.Contains(body, `value="admin@example.com"`) {
		t.Error("expected email to be preserved")
	}
	if strings.Contains(body, "wrong") {
		t.Error("password must never be echoed")
	}

	admin := getWithCookies(site, "/admin.html", rec.Result().Cookies())
	if admin.Code != http.StatusTemporaryRedirect || admin.Header().Get("Location") != "/login.html" {
		t.Errorf("expected 307 to /login.html, got %d %q", admin.Code, admin.Header().Get("Location"))
	}
}

func TestLogin_EmptyFieldsRejectedWithoutProviderCall(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"empty email", "", "x"},
		{"empty password", "admin@example.com", ""},
		{"whitespace only", "   ", "   "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			provider := &mockIdentityProvider{}
			site := newTestSite(t, provider, newTestClock(siteNow), false)

			rec := postLogin(site, fetchCSRF(t, site), tc.email, tc.password)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), service.MsgMissingCredentials) {
				t.Errorf("expected validation message, got: %s", rec.Body.String())
			}
			if provider.calls.Load() != 0 {
				t.Errorf("provider must not be called, got %d calls", provider.calls.Load())
			}
		})
	}
}

func TestLogin_ServiceErrorShowsGenericMessage(t *testing.T) {
	provider := &mockIdentityProvider{
		SignInFunc: func(ctx context.Context, email, password string) (*identity.Identity, error) {
			return nil, identity.WrapError("sign in", identity.ErrUnavailable)
		},
	}
	site := newTestSite(t, provider, newTestClock(siteNow), false)

	rec := postLogin(site, fetchCSRF(t, site), "admin@example.com", "correct-pass")

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), service.MsgServiceError) {
		t.Errorf("expected generic message, got: %s", rec.Body.String())
	}
	if markerCookie(rec) != nil {
		t.Error("no marker may be written on service error")
	}
}

func TestLogin_RequiresCSRFToken(t *testing.T) {
	provider := &mockIdentityProvider{}
	site := newTestSite(t, provider, newTestClock(siteNow), false)

	rec := postLogin(site, nil, "admin@example.com", "correct-pass")

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
	if provider.calls.Load() != 0 {
		t.Error("provider must not be called without a csrf token")
	}
	if markerCookie(rec) != nil {
		t.Error("no marker expected")
	}
}

func TestLogin_TextPlainBodyStillNeedsCSRF(t *testing.T) {
	provider := &mockIdentityProvider{}
	site := newTestSite(t, provider, newTestClock(siteNow), false)

	body := `{"email":"admin@example.com","password":"correct-pass"}`
	req := httptest.NewRequest("POST", "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "text/plain; charset=application/json")
	rec := httptest.NewRecorder()
	site.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
	if provider.calls.Load() != 0 {
		t.Error("provider must not be called without a csrf token")
	}
	if markerCookie(rec) != nil {
		t.Error("no marker expected")
	}
}

func TestLogin_ExpiredMarkerRedirects(t *testing.T) {
	clock := newTestClock(siteNow)
	site := newTestSite(t, &mockIdentityProvider{}, clock, false)

	rec := postLogin(site, fetchCSRF(t, site), "admin@example.com", "correct-pass")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login failed: %d", rec.Code)
	}

	clock.Set(siteNow.Add(86400 * time.Second))
	admin := getWithCookies(site, "/admin.html", rec.Result().Cookies())
	if admin.Code != http.StatusTemporaryRedirect {
		t.Errorf("expected redirect once the marker is 86400s old, got %d", admin.Code)
	}
}

func TestLogin_SecureMarker(t *testing.T) {
	t.Run("direct TLS", func(t *testing.T) {
		site := newTestSite(t, &mockIdentityProvider{}, newTestClock(siteNow), false)
		token := fetchCSRF(t, site)

		form := url.Values{"email": {"admin@example.com"}, "password": {"correct-pass"}, csrf.FormFieldName: {token.Value}}
		req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.TLS = &tls.ConnectionState{}
		req.AddCookie(token)
		rec := httptest.NewRecorder()
		site.ServeHTTP(rec, req)

		if m := markerCookie(rec); m == nil || !m.Secure {
			t.Errorf("expected Secure marker over TLS, got %+v", m)
		}
	})

	t.Run("forwarded proto from trusted proxy", func(t *testing.T) {
		site := newTestSite(t, &mockIdentityProvider{}, newTestClock(siteNow), true)
		token := fetchCSRF(t, site)

		form := url.Values{"email": {"admin@example.com"}, "password": {"correct-pass"}, csrf.FormFieldName: {token.Value}}
		req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Forwarded-Proto", "https")
		req.AddCookie(token)
		rec := httptest.NewRecorder()
		site.ServeHTTP(rec, req)

		if m := markerCookie(rec); m == nil || !m.Secure {
			t.Errorf("expected Secure marker behind TLS proxy, got %+v", m)
		}
	})
}

// =============================================================================
// JSON Clients
// =============================================================================

func postJSONLogin(site http.Handler, email, password string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req := httptest.NewRequest("POST", "/login", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	site.ServeHTTP(rec, req)
	return rec
}

func TestLogin_JSON(t *testing.T) {
	site := newTestSite(t, &mockIdentityProvider{}, newTestClock(siteNow), false)

	t.Run("success", func(t *testing.T) {
		rec := postJSONLogin(site, "Admin@Example.com", "correct-pass")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp loginResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if resp.Redirect != "/admin.html" {
			t.Errorf("expected redirect target, got %q", resp.Redirect)
		}
		if markerCookie(rec) == nil {
			t.Error("expected marker cookie")
		}
	})

	t.Run("invalid credentials", func(t *testing.T) {
		rec := postJSONLogin(site, "admin@example.com", "nope")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		var body JSONError
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("invalid json: %v", err)
		}
		if body.Error.Code != domain.EUNAUTHORIZED || body.Error.Message != service.MsgInvalidCredentials {
			t.Errorf("unexpected error body: %+v", body.Error)
		}
	})

	t.Run("json with charset", func(t *testing.T) {
		body := `{"email":"admin@example.com","password":"correct-pass"}`
		req := httptest.NewRequest("POST", "/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		rec := httptest.NewRecorder()
		site.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/login", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		site.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

// =============================================================================
// Logout
// =============================================================================

func TestLogout_ClearsMarker(t *testing.T) {
	clock := newTestClock(siteNow)
	site := newTestSite(t, &mockIdentityProvider{}, clock, false)

	login := postLogin(site, fetchCSRF(t, site), "admin@example.com", "correct-pass")
	if login.Code != http.StatusSeeOther {
		t.Fatalf("login failed: %d", login.Code)
	}

	req := httptest.NewRequest("POST", "/logout", nil)
	for _, c := range login.Result().Cookies() {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	site.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login.html?logout=1" {
		t.Fatalf("expected 303 to login page, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	cleared := 0
	for _, c := range rec.Result().Cookies() {
		if (c.Name == session.CookieName || c.Name == session.IssuedAtCookieName) && c.MaxAge < 0 {
			cleared++
		}
	}
	if cleared != 2 {
		t.Errorf("expected both marker cookies cleared, got %d", cleared)
	}

	page := getWithCookies(site, "/login.html?logout=1", nil)
	if !strings.Contains(page.Body.String(), "You have been signed out.") {
		t.Error("expected sign-out notice")
	}
}

func TestGuard_UnprotectedPathAlwaysAllowed(t *testing.T) {
	site := newTestSite(t, &mockIdentityProvider{}, newTestClock(siteNow), false)

	rec := getWithCookies(site, "/index.html", []*http.Cookie{{Name: session.CookieName, Value: "false"}})
	if rec.Code != http.StatusOK || rec.Body.String() != "home" {
		t.Errorf("expected public page, got %d %q", rec.Code, rec.Body.String())
	}
}
