// Package errs defines the error kinds of the allocation protocol and their
// HTTP status mapping, in the spirit of the teacher's exception hierarchy
// but sized to the handful of kinds spec.md §7 actually names.
package errs

import (
	"net/http"

	"github.com/pkg/errors"
)

// Kind identifies one of the protocol-level error categories.
type Kind int

const (
	// KindInvalidRequest is raised on a zero or negative allocation size.
	KindInvalidRequest Kind = iota
	// KindRequestTooLarge is raised when a request exceeds the largest size class.
	KindRequestTooLarge
	// KindPoolExhausted is raised when granting the request would exceed the pool ceiling.
	KindPoolExhausted
	// KindUnknownAllocation is raised on free of an unrecognized identifier.
	KindUnknownAllocation
	// KindTransportFailure is raised client-side on I/O errors, timeouts, or non-2xx responses.
	KindTransportFailure
	// KindDecodeFailure is raised client-side on a malformed server response.
	KindDecodeFailure
	// KindInternalError is raised on a server-side invariant violation.
	KindInternalError
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindRequestTooLarge:
		return "request_too_large"
	case KindPoolExhausted:
		return "pool_exhausted"
	case KindUnknownAllocation:
		return "unknown_allocation"
	case KindTransportFailure:
		return "transport_failure"
	case KindDecodeFailure:
		return "decode_failure"
	case KindInternalError:
		return "internal_error"
	default:
		return "unknown"
	}
}

// Error is a classified protocol error. Callers compare kinds with errors.As,
// never string matching on Error().
type Error struct {
	kind    Kind
	message string
	cause   error
}

// New builds a classified error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

// Wrap builds a classified error around a lower-level cause, preserving a
// stack trace via pkg/errors for diagnostic logging.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{kind: kind, message: message, cause: errors.Wrap(cause, message)}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.cause.Error()
	}
	return e.message
}

// Unwrap exposes the wrapped cause, if any, for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// Kind returns the error's classification.
func (e *Error) Kind() Kind {
	return e.kind
}

// HTTPStatus maps a Kind to the status code spec.md §4.4/§7 fixes for it.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindRequestTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindPoolExhausted:
		return http.StatusInsufficientStorage
	case KindUnknownAllocation:
		return http.StatusNotFound
	case KindInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// As extracts a *Error from err, if present in its chain.
func As(err error) (*Error, bool) {
	var classified *Error
	if errors.As(err, &classified) {
		return classified, true
	}
	return nil, false
}
