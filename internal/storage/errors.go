package storage

import (
	"errors"
	"fmt"
)

// Sentinel errors. Provider errors are wrapped in an *OpError, so compare
// with errors.Is.
var (
	ErrNotFound     = errors.New("object not found")
	ErrInvalidKey   = errors.New("invalid storage key") // empty, or escapes the root
	ErrTooLarge     = errors.New("object exceeds maximum size")
	ErrAccessDenied = errors.New("access denied")
)

// OpError is a failed storage call.
type OpError struct {
	Op  string // put, get, delete
	Key string
	Err error
}

func opErr(op, key string, err error) *OpError {
	return &OpError{Op: op, Key: key, Err: err}
}

func (e *OpError) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsTooLarge(err error) bool { return errors.Is(err, ErrTooLarge) }
