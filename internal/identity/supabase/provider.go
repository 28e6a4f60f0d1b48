// Package supabase implements identity.Provider against the Supabase Auth
// (GoTrue) password grant.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carevia/foundation/internal/identity"
)

const (
	// tokenPath is the GoTrue token endpoint, relative to the project URL.
	tokenPath = "/auth/v1/token"

	defaultTimeout    = 10 * time.Second
	defaultMaxRetries = 2
	defaultRetryWait  = 200 * time.Millisecond
)

// Config holds the Supabase project settings.
type Config struct {
	URL     string // Project URL, e.g. https://xyzcompany.supabase.co
	AnonKey string // Public anon key sent in the apikey header

	identity.ProviderConfig
}

// Provider signs users in with the Supabase password grant.
type Provider struct {
	client *resty.Client
	tracer trace.Tracer
	logger *slog.Logger
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	User        struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// errorResponse covers both the OAuth-style and the newer GoTrue error bodies.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e *errorResponse) describe() string {
	for _, s := range []string{e.ErrorCode, e.Error, e.Msg, e.ErrorDescription, e.Message} {
		if s != "" {
			return s
		}
	}
	return "unknown error"
}

// New creates a Supabase provider.
func New(cfg Config, logger *slog.Logger) (*Provider, error) {
	if cfg.URL == "" {
		return nil, errors.New("supabase: URL is required")
	}
	if cfg.AnonKey == "" {
		return nil, errors.New("supabase: anon key is required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = defaultMaxRetries
	}
	retryWait := cfg.RetryWait
	if retryWait == 0 {
		retryWait = defaultRetryWait
	}

	client := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.URL, "/")).
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(retryWait).
		SetRetryMaxWaitTime(4*retryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return r != nil && r.StatusCode() >= http.StatusInternalServerError
		}).
		SetHeader("apikey", cfg.AnonKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Provider{
		client: client,
		tracer: otel.Tracer("github.com/carevia/foundation/internal/identity/supabase"),
		logger: logger,
	}, nil
}

// SignInWithPassword posts the credentials to the token endpoint.
//
// Response mapping:
//   - 200 with an access token: success
//   - 400 / 422: credentials rejected (wrong password, unknown or unconfirmed email)
//   - 429: rate limited by Supabase
//   - anything else, transport errors, unparseable bodies: service failure
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*identity.Identity, error) {
	ctx, span := p.tracer.Start(ctx, "supabase.SignInWithPassword",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.route", tokenPath)),
	)
	defer span.End()

	var result tokenResponse
	var apiErr errorResponse

	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "password").
		SetBody(signInRequest{Email: email, Password: password}).
		SetResult(&result).
		SetError(&apiErr).
		Post(tokenPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		if ctx.Err() != nil {
			return nil, identity.WrapError("sign in", ctx.Err())
		}
		return nil, identity.WrapError("sign in", fmt.Errorf("%w: %v", identity.ErrUnavailable, err))
	}

	status := resp.StatusCode()
	span.SetAttributes(attribute.Int("http.status_code", status))

	switch {
	case status == http.StatusOK:
		if result.AccessToken == "" {
			span.SetStatus(codes.Error, "missing access token")
			return nil, identity.WrapError("sign in", identity.ErrMalformedResponse)
		}
		span.SetStatus(codes.Ok, "")
		return &identity.Identity{
			UserID: result.User.ID,
			Email:  result.User.Email,
		}, nil

	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		// Credential rejections are an expected outcome, not a span error.
		p.logger.Debug("supabase rejected credentials", "status", status, "reason", apiErr.describe())
		return nil, identity.WrapError("sign in", identity.ErrInvalidCredentials)

	case status == http.StatusTooManyRequests:
		span.SetStatus(codes.Error, "rate limited")
		return nil, identity.WrapError("sign in", identity.ErrRateLimited)

	default:
		span.SetStatus(codes.Error, resp.Status())
		return nil, identity.WrapError("sign in",
			fmt.Errorf("%w: status %d: %s", identity.ErrUnavailable, status, apiErr.describe()))
	}
}

// Compile-time check
var _ identity.Provider = (*Provider)(nil)
