// Package identity defines the external identity service the login flow
// delegates credential checks to.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Provider verifies an email and password against an external identity
// service.
type Provider interface {
	// SignInWithPassword returns the identity on success.
	// Returns ErrInvalidCredentials when the service rejects the credentials;
	// any other error means the call itself failed.
	SignInWithPassword(ctx context.Context, email, password string) (*Identity, error)
}

// Identity is what the service reports about a successful sign-in.
// It is only used for logging; the session marker carries no identity.
type Identity struct {
	UserID string
	Email  string
}

// Provider names
const (
	ProviderSupabase = "supabase"
	ProviderStatic   = "static"
)

// ProviderConfig contains common configuration for remote providers
type ProviderConfig struct {
	Timeout    time.Duration // Timeout for a single request
	MaxRetries int           // Retry attempts for transport errors and 5xx responses
	RetryWait  time.Duration // Base delay between retries
}

// Errors reported by providers
var (
	// ErrInvalidCredentials indicates the service rejected the email/password pair.
	// Callers must not reveal to users whether the email exists.
	ErrInvalidCredentials = errors.New("invalid login credentials")

	// ErrUnavailable indicates the service could not be reached or failed.
	ErrUnavailable = errors.New("identity service unavailable")

	// ErrRateLimited indicates the service throttled the request.
	ErrRateLimited = errors.New("identity service rate limit exceeded")

	// ErrMalformedResponse indicates the service answered with something unparseable.
	ErrMalformedResponse = errors.New("malformed identity service response")
)

// IsInvalidCredentials reports whether err is a credential rejection.
func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}

// WrapError wraps an error with context about the identity operation
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("identity %s: %w", operation, err)
}
