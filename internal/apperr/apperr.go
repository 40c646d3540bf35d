// Package apperr defines the error kinds the service distinguishes and
// maps each to its HTTP status and user-visible message.
package apperr

import (
	"errors"
	"net/http"
)

// Kind identifies one of the error categories the service surfaces.
type Kind int

const (
	// KindStoreUnavailable covers connection failures and driver errors.
	KindStoreUnavailable Kind = iota
	// KindStoreTimeout covers aggregations that exceeded their deadline.
	KindStoreTimeout
	// KindBadRequest covers structurally invalid requests that pass
	// normalization but fail a contract.
	KindBadRequest
	// KindNotFound covers unknown routes.
	KindNotFound
)

// Error is a typed application error carrying an HTTP-facing message.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Status returns the HTTP status code for this error's kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindStoreTimeout:
		return http.StatusGatewayTimeout
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind, preserving cause for errors.Is/As.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// StoreUnavailable builds a StoreUnavailable error. The underlying cause is
// logged by the caller but never included in the user-visible message.
func StoreUnavailable(cause error) *Error {
	return Wrap(KindStoreUnavailable, "Internal server error", cause)
}

// StoreTimeout builds a StoreTimeout error.
func StoreTimeout(cause error) *Error {
	return Wrap(KindStoreTimeout, "the request exceeded its deadline", cause)
}

// As extracts an *Error from err, if present.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
