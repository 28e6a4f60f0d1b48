// Package csrf protects the site's forms with the double-submit cookie
// pattern: a random token is set in a cookie and echoed in each form, and a
// POST is accepted only when the two match. A cross-site attacker can make
// the browser send the cookie but cannot read it to fill in the form.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
)

const (
	// CookieName is the name of the CSRF token cookie.
	CookieName = "csrf_token"

	// FormFieldName is the hidden form field carrying the token.
	FormFieldName = "csrf_token"

	// HeaderName carries the token for script-driven submissions.
	HeaderName = "X-CSRF-Token"

	// TokenLength is the number of random bytes in a token (256 bits).
	TokenLength = 32

	// CookieMaxAge is the token cookie lifetime (2 hours), long enough to
	// fill in the admin forms.
	CookieMaxAge = 2 * 60 * 60
)

// GenerateToken returns a base64url-encoded random token.
func GenerateToken() (string, error) {
	b := make([]byte, TokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// EnsureToken returns the request's token cookie, issuing a new one when
// the request carries none. Use it when rendering a form.
func EnsureToken(w http.ResponseWriter, r *http.Request, secure bool) (string, error) {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}

	token, err := GenerateToken()
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   CookieMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
	return token, nil
}

// Valid reports whether the request's submitted token matches its cookie.
// The submitted token is read from the X-CSRF-Token header or, failing that,
// the csrf_token form field; multipart forms must be parsed beforehand.
func Valid(r *http.Request) bool {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return false
	}

	submitted := r.Header.Get(HeaderName)
	if submitted == "" {
		submitted = r.FormValue(FormFieldName)
	}
	if submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Value), []byte(submitted)) == 1
}
