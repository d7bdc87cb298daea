// Package errors provides error handling for replaydash.
//
// It re-exports github.com/cockroachdb/errors so every package wraps,
// hints and inspects errors the same way:
//
//	if err := client.Status(ctx); err != nil {
//	    return errors.Wrap(err, "failed to query backend status")
//	}
//
//	return errors.WithHint(err, "is the monitoring backend running?")
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Sentinel errors. Match with errors.Is(); wrap with errors.Wrap() to add
// context while preserving the type.
var (
	// ErrNotFound indicates the requested frame or resource does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = New("invalid request")

	// ErrServiceUnavailable indicates the backend could not be reached
	ErrServiceUnavailable = New("service unavailable")

	// ErrTimeout indicates an operation timed out
	ErrTimeout = New("operation timed out")

	// ErrServerReported marks an error message produced by the backend itself
	// (an "error" field in a response body)
	ErrServerReported = New("backend reported an error")

	// ErrNotConnected indicates the push channel has no live connection
	ErrNotConnected = New("push channel not connected")

	// ErrNothingToExport indicates an export was requested on an empty store
	ErrNothingToExport = New("nothing to export")
)

// NewServerError wraps a backend-reported message so that errors.Is(err,
// ErrServerReported) holds and the message stays readable on its own.
func NewServerError(message string) error {
	return Mark(New(message), ErrServerReported)
}

// Mark attaches a sentinel to err without changing its message.
var Mark = crdb.Mark

// IsServerReported checks if an error carries a backend-reported message
func IsServerReported(err error) bool {
	return err != nil && Is(err, ErrServerReported)
}

// IsServiceUnavailableError checks if an error is or wraps ErrServiceUnavailable
func IsServiceUnavailableError(err error) bool {
	return err != nil && Is(err, ErrServiceUnavailable)
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}
