package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes. Handlers map them to HTTP statuses.
const (
	EINVALID      = "invalid"
	EUNAUTHORIZED = "unauthorized" // credentials rejected
	EFORBIDDEN    = "forbidden"
	ENOTFOUND     = "not_found"
	ECONFLICT     = "conflict" // e.g. the same login already in flight
	ETOOLARGE     = "too_large"
	ERATELIMIT    = "rate_limit"
	EUNAVAILABLE  = "unavailable" // an external service failed
	EINTERNAL     = "internal"
)

// internalMessage replaces the message of internal errors before they reach
// a user.
const internalMessage = "An internal error occurred. Please try again later."

// Error is an application error. Message is safe to show to users; Err holds
// the cause for logs.
type Error struct {
	Code    string
	Op      string // e.g. "issuer.Login"
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates an Error with a formatted message.
func Errorf(code, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code, op and user message to err.
func Wrap(err error, code, op, message string) *Error {
	return &Error{Code: code, Op: op, Message: message, Err: err}
}

// ErrorCode returns the code of err. Validation errors report EINVALID;
// anything unrecognized is EINTERNAL.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return EINVALID
	}
	return EINTERNAL
}

// ErrorMessage returns the message of err that may be shown to a user.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Code != EINTERNAL {
		return e.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		if _, msg := ve.First(); msg != "" {
			return msg
		}
	}
	return internalMessage
}

// ErrorOp returns the operation of err, if any.
func ErrorOp(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Op
	}
	return ""
}

// NotFound reports a missing resource.
func NotFound(op, resource, id string) *Error {
	return Errorf(ENOTFOUND, op, "%s with ID %q not found", resource, id)
}

func Invalid(op, message string) *Error {
	return &Error{Code: EINVALID, Op: op, Message: message}
}

func Unauthorized(op, message string) *Error {
	return &Error{Code: EUNAUTHORIZED, Op: op, Message: message}
}

func Conflict(op, message string) *Error {
	return &Error{Code: ECONFLICT, Op: op, Message: message}
}

// Unavailable reports a failed call to an external service. The message is
// shown as-is, so it must not describe the failure.
func Unavailable(err error, op, message string) *Error {
	return Wrap(err, EUNAVAILABLE, op, message)
}

// Internal wraps an unexpected failure. Users see a generic message.
func Internal(err error, op, message string) *Error {
	return Wrap(err, EINTERNAL, op, message)
}

func RateLimit(op string) *Error {
	return &Error{Code: ERATELIMIT, Op: op, Message: "Too many requests. Please try again later."}
}

// ValidationError holds per-field messages. Fields keeps lookups simple;
// the insertion order decides which message First reports.
type ValidationError struct {
	Op     string
	Fields map[string]string
	order  []string
}

// NewValidationError creates a validation error for one field.
func NewValidationError(op, field, message string) *ValidationError {
	ve := &ValidationError{Op: op, Fields: map[string]string{}}
	ve.Add(field, message)
	return ve
}

// Add records a field message. A second message for the same field
// replaces the first.
func (e *ValidationError) Add(field, message string) {
	if _, ok := e.Fields[field]; !ok {
		e.order = append(e.order, field)
	}
	e.Fields[field] = message
}

// First returns the first field added and its message.
func (e *ValidationError) First() (field, message string) {
	if len(e.order) == 0 {
		return "", ""
	}
	return e.order[0], e.Fields[e.order[0]]
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation failed on %s", e.Op, strings.Join(e.order, ", "))
}
