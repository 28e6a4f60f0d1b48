package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/carevia/foundation/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{domain.EINVALID, http.StatusBadRequest},
		{domain.EUNAUTHORIZED, http.StatusUnauthorized},
		{domain.ENOTFOUND, http.StatusNotFound},
		{domain.ECONFLICT, http.StatusConflict},
		{domain.ETOOLARGE, http.StatusRequestEntityTooLarge},
		{domain.ERATELIMIT, http.StatusTooManyRequests},
		{domain.EUNAVAILABLE, http.StatusServiceUnavailable},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{"something-else", http.StatusInternalServerError},
	}

	for _, tc := range tests {
		if got := ErrorCodeToHTTPStatus(tc.code); got != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.code, tc.want, got)
		}
	}
}

func TestErrorResponse_ServiceErrorHidesCause(t *testing.T) {
	err := domain.Unavailable(errors.New("dial tcp 10.1.2.3:443: connection refused"), "issuer.Login", "An unexpected error occurred. Please try again.")

	for _, accept := range []string{"text/html", "application/json"} {
		t.Run(accept, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/login", nil)
			req.Header.Set("Accept", accept)
			rec := httptest.NewRecorder()

			ErrorResponse(rec, req, discardLogger(), err)

			if rec.Code != http.StatusServiceUnavailable {
				t.Errorf("expected 503, got %d", rec.Code)
			}
			body := rec.Body.String()
			if strings.Contains(body, "10.1.2.3") || strings.Contains(body, "issuer.Login") {
				t.Errorf("response leaks internals: %s", body)
			}
			if !strings.Contains(body, "An unexpected error occurred") {
				t.Errorf("expected generic message, got: %s", body)
			}
		})
	}
}

func TestErrorResponse_UnwrappedErrorReturnsGeneric(t *testing.T) {
	req := httptest.NewRequest("GET", "/api/gallery", nil)
	rec := httptest.NewRecorder()

	ErrorResponse(rec, req, discardLogger(), errors.New("pq: relation \"gallery\" does not exist"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "relation") {
		t.Errorf("response leaks database error: %s", rec.Body.String())
	}
}

func TestErrorResponse_ValidationErrorJSON(t *testing.T) {
	ve := domain.NewValidationError("contact.validate", "email", "Please enter a valid email address")

	req := httptest.NewRequest("POST", "/api/contacts", nil)
	rec := httptest.NewRecorder()
	ErrorResponse(rec, req, discardLogger(), ve)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var body JSONError
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body.Error.Code != domain.EINVALID {
		t.Errorf("expected code %s, got %s", domain.EINVALID, body.Error.Code)
	}
	if body.Error.Fields["email"] == "" {
		t.Errorf("expected email field error, got %+v", body.Error.Fields)
	}
	if strings.Contains(rec.Body.String(), "contact.validate") {
		t.Error("response exposes operation name")
	}
}

func TestErrorResponse_ValidationErrorHTML(t *testing.T) {
	ve := domain.NewValidationError("testimonial.validate", "quote", "Quote is required")

	req := httptest.NewRequest("POST", "/admin/testimonials", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	ErrorResponse(rec, req, discardLogger(), ve)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Quote is required") {
		t.Errorf("expected field message, got %s", rec.Body.String())
	}
}

func TestHasJSONBody(t *testing.T) {
	testCases := []struct {
		contentType string
		want        bool
	}{
		{"application/json", true},
		{"application/json; charset=utf-8", true},
		{"Application/JSON", true},
		{"text/plain; charset=application/json", false},
		{"application/x-www-form-urlencoded", false},
		{"application/jsonp", false},
		{"", false},
	}

	for _, tc := range testCases {
		t.Run(tc.contentType, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/login", nil)
			req.Header.Set("Content-Type", tc.contentType)
			if got := hasJSONBody(req); got != tc.want {
				t.Errorf("hasJSONBody(%q) = %v, want %v", tc.contentType, got, tc.want)
			}
		})
	}
}
