// Package session stores the session marker written after a successful login
// and read by the route guard on every request.
package session

const (
	// CookieName is the name of the cookie that carries the marker flag.
	CookieName = "loggedIn"

	// IssuedAtCookieName carries the marker's creation time (unix seconds).
	IssuedAtCookieName = "loggedInAt"

	// CookiePath scopes the marker to the whole site.
	CookiePath = "/"
)
