package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/carevia/foundation/internal/domain"
)

var codeStatus = map[string]int{
	domain.EINVALID:      http.StatusBadRequest,
	domain.EUNAUTHORIZED: http.StatusUnauthorized,
	domain.EFORBIDDEN:    http.StatusForbidden,
	domain.ENOTFOUND:     http.StatusNotFound,
	domain.ECONFLICT:     http.StatusConflict,
	domain.ETOOLARGE:     http.StatusRequestEntityTooLarge,
	domain.ERATELIMIT:    http.StatusTooManyRequests,
	domain.EUNAVAILABLE:  http.StatusServiceUnavailable,
}

// ErrorCodeToHTTPStatus maps a domain error code to an HTTP status.
// Unknown codes are 500.
func ErrorCodeToHTTPStatus(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// JSONError is the response body for API errors.
type JSONError struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields,omitempty"`
	} `json:"error"`
}

// ErrorResponse writes err as JSON or plain text depending on the client.
// Only the user message leaves the server; the op and cause are logged.
func ErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)

	var body JSONError
	body.Error.Code = code
	body.Error.Message = domain.ErrorMessage(err)

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		body.Error.Fields = ve.Fields
		logger.Info("validation error", "op", ve.Op, "fields", len(ve.Fields), "path", r.URL.Path)
	} else {
		logError(logger, r, err, status)
	}

	if acceptsJSON(r) {
		writeJSON(w, status, body)
		return
	}
	http.Error(w, body.Error.Message, status)
}

// logError logs server errors at error level and client errors at info.
func logError(logger *slog.Logger, r *http.Request, err error, status int) {
	attrs := []any{
		"error", err.Error(),
		"code", domain.ErrorCode(err),
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
	}
	if op := domain.ErrorOp(err); op != "" {
		attrs = append(attrs, "op", op)
	}

	switch {
	case status >= 500:
		logger.Error("server error", attrs...)
	case status >= 400:
		logger.Info("client error", attrs...)
	}
}

// acceptsJSON reports whether the client wants a JSON response: it asked
// for one, sent one, or called an /api/ route.
func acceptsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		hasJSONBody(r) ||
		strings.HasPrefix(r.URL.Path, "/api/")
}

// hasJSONBody reports whether the request body is declared as
// application/json. Parameters are ignored; the media type must match exactly.
func hasJSONBody(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	var body JSONError
	body.Error.Code = code
	body.Error.Message = message
	writeJSON(w, status, body)
}
