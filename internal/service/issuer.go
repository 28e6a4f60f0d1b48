package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carevia/foundation/internal/domain"
	"github.com/carevia/foundation/internal/identity"
	"github.com/carevia/foundation/internal/inflight"
	"github.com/carevia/foundation/internal/metrics"
)

// User-facing login messages.
const (
	MsgMissingCredentials = "Please enter email and password."
	MsgInvalidCredentials = "Invalid email or password"
	MsgServiceError       = "An unexpected error occurred. Please try again."
	MsgLoginInFlight      = "A login is already in progress."
)

// =============================================================================
// Interface Definition
// =============================================================================

// SessionIssuer turns a credential submission into a session marker.
type SessionIssuer interface {
	// Login checks the credentials with the identity service.
	// Returns domain.EINVALID when either field is empty after trimming (no external call).
	// Returns domain.EUNAUTHORIZED when the identity service rejects the credentials.
	// Returns domain.EUNAVAILABLE when the identity service call fails.
	// Returns domain.ECONFLICT when the same form is already being submitted.
	//
	// On success the caller must write result.Marker to the session store
	// before redirecting.
	Login(ctx context.Context, params LoginParams) (*domain.LoginResult, error)
}

// LoginParams is one login form submission.
type LoginParams struct {
	Credentials domain.Credentials
	ClientKey   string // Identifies the submitting client, usually its IP
	Secure      bool   // Request arrived over TLS; copied onto the marker
}

// IssuerConfig configures a SessionIssuer.
type IssuerConfig struct {
	ProviderName string           // Label for metrics and spans
	TTL          time.Duration    // Marker lifetime; defaults to domain.DefaultMarkerTTL
	Clock        func() time.Time // Defaults to time.Now
}

// =============================================================================
// Implementation
// =============================================================================

type sessionIssuer struct {
	provider     identity.Provider
	providerName string
	inflight     inflight.Guard
	ttl          time.Duration
	now          func() time.Time
	tracer       trace.Tracer
	logger       *slog.Logger
}

// NewSessionIssuer creates a SessionIssuer.
func NewSessionIssuer(provider identity.Provider, guard inflight.Guard, cfg IssuerConfig, logger *slog.Logger) SessionIssuer {
	if cfg.TTL <= 0 {
		cfg.TTL = domain.DefaultMarkerTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if guard == nil {
		guard = inflight.NewMemory()
	}
	return &sessionIssuer{
		provider:     provider,
		providerName: cfg.ProviderName,
		inflight:     guard,
		ttl:          cfg.TTL,
		now:          cfg.Clock,
		tracer:       otel.Tracer("github.com/carevia/foundation/internal/service"),
		logger:       logger,
	}
}

// Login validates, deduplicates, and delegates to the identity provider.
//
// Flow:
// 1. Trim both fields; reject empties before any external call
// 2. Take the in-flight hold for (client, identifier); released on every outcome
// 3. Call the identity provider with the request context
// 4. Build the marker from the injected clock
//
// Credential rejections and service failures produce no marker.
func (s *sessionIssuer) Login(ctx context.Context, params LoginParams) (*domain.LoginResult, error) {
	const op = "issuer.Login"

	ctx, span := s.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("identity.provider", s.providerName),
	))
	defer span.End()

	creds := params.Credentials.Normalize()
	if creds.Identifier == "" || creds.Secret == "" {
		metrics.LoginAttempt(metrics.OutcomeInvalid)
		span.SetAttributes(attribute.String("login.outcome", metrics.OutcomeInvalid))
		return nil, domain.Invalid(op, MsgMissingCredentials)
	}

	release, err := s.inflight.Acquire(ctx, params.ClientKey+"|"+creds.Identifier)
	if err != nil {
		if errors.Is(err, inflight.ErrInFlight) {
			metrics.LoginAttempt(metrics.OutcomeConflict)
			span.SetAttributes(attribute.String("login.outcome", metrics.OutcomeConflict))
			return nil, domain.Conflict(op, MsgLoginInFlight)
		}
		s.logger.Error("failed to acquire login hold", "error", err)
		metrics.LoginAttempt(metrics.OutcomeUnavailable)
		span.RecordError(err)
		span.SetStatus(codes.Error, "inflight acquire failed")
		return nil, domain.Unavailable(err, op, MsgServiceError)
	}
	defer release()

	start := time.Now()
	id, err := s.provider.SignInWithPassword(ctx, creds.Identifier, creds.Secret)
	metrics.IdentityCall(s.providerName, time.Since(start))

	if err != nil {
		if identity.IsInvalidCredentials(err) {
			metrics.LoginAttempt(metrics.OutcomeUnauthorized)
			span.SetAttributes(attribute.String("login.outcome", metrics.OutcomeUnauthorized))
			s.logger.Info("login rejected", "client", params.ClientKey)
			return nil, domain.Unauthorized(op, MsgInvalidCredentials)
		}

		metrics.LoginAttempt(metrics.OutcomeUnavailable)
		span.SetAttributes(attribute.String("login.outcome", metrics.OutcomeUnavailable))
		span.RecordError(err)
		span.SetStatus(codes.Error, "identity service error")
		if ctx.Err() != nil {
			s.logger.Info("login abandoned by client", "client", params.ClientKey, "error", err)
		} else {
			s.logger.Error("identity service error", "provider", s.providerName, "error", err)
		}
		return nil, domain.Unavailable(err, op, MsgServiceError)
	}

	result := &domain.LoginResult{
		Marker: domain.NewMarker(s.now(), s.ttl, params.Secure),
	}
	if id != nil {
		result.UserID = id.UserID
	}

	metrics.LoginAttempt(metrics.OutcomeSuccess)
	span.SetAttributes(attribute.String("login.outcome", metrics.OutcomeSuccess))
	s.logger.Info("login succeeded", "user_id", result.UserID, "client", params.ClientKey)

	return result, nil
}

// Compile-time check
var _ SessionIssuer = (*sessionIssuer)(nil)
