package backend

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

var (
	// ErrNotConfigured short-circuits every operation of the disabled client;
	// it is raised before any network attempt.
	ErrNotConfigured = errors.New("backend is not configured")

	// ErrNotFound is returned when a single-row query matches no row.
	ErrNotFound = errors.New("row not found")

	// ErrMultipleRows is returned when a single-row query matches more than
	// one row; callers never get an arbitrary first row.
	ErrMultipleRows = errors.New("multiple rows returned")
)

// Auth error reasons.
const (
	ReasonNotConfigured      = "not configured"
	ReasonInvalidCredentials = "invalid credentials"
	ReasonEmailNotConfirmed  = "email not confirmed"
	ReasonEmailExists        = "email already registered"
)

// AuthError reports a failed auth operation with a user-presentable reason.
type AuthError struct {
	Reason string
}

func NewAuthError(reason string) error {
	return &AuthError{Reason: reason}
}

func (e *AuthError) Error() string { return e.Reason }

// IsAuthError reports whether err (or its cause) is an AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(pkgerrors.Cause(err), &ae)
}

// TransientError wraps a network/service failure; best-effort side operations
// swallow and log these instead of surfacing them.
type TransientError struct {
	Op  string
	Err error
}

func NewTransientError(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}

func (e *TransientError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err (or its cause) is a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(pkgerrors.Cause(err), &te)
}
