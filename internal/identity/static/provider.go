// Package static implements identity.Provider for a single administrator
// account configured in the environment. It is meant for local development
// and self-hosted installs without a Supabase project.
package static

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/carevia/foundation/internal/identity"
)

// dummyHash is compared against when the email does not match, so unknown
// and known emails take the same time to reject.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// UserID is reported for the configured administrator.
const UserID = "static-admin"

// Provider checks credentials against one email and bcrypt hash.
type Provider struct {
	email        string
	passwordHash []byte
	logger       *slog.Logger
}

// New creates a static provider. The hash must be a bcrypt hash, e.g. from
// `htpasswd -bnBC 12 "" password | tr -d ':'`.
func New(email, passwordHash string, logger *slog.Logger) (*Provider, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.New("static identity: ADMIN_EMAIL is required")
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, errors.New("static identity: ADMIN_PASSWORD_HASH is not a bcrypt hash")
	}

	return &Provider{
		email:        email,
		passwordHash: []byte(passwordHash),
		logger:       logger,
	}, nil
}

// SignInWithPassword compares the credentials with the configured account.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*identity.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, identity.WrapError("sign in", err)
	}

	emailMatch := subtle.ConstantTimeCompare([]byte(strings.ToLower(email)), []byte(p.email)) == 1
	if !emailMatch {
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return nil, identity.WrapError("sign in", identity.ErrInvalidCredentials)
	}

	if err := bcrypt.CompareHashAndPassword(p.passwordHash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, identity.WrapError("sign in", identity.ErrInvalidCredentials)
		}
		p.logger.Error("bcrypt compare failed", "error", err)
		return nil, identity.WrapError("sign in", err)
	}

	return &identity.Identity{UserID: UserID, Email: p.email}, nil
}

// Compile-time check
var _ identity.Provider = (*Provider)(nil)
