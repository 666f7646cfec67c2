package client

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the gateway failure taxonomy.
//
// Every failure returned by the Client unwraps to exactly one of these,
// so callers classify with errors.Is():
//
//	if errors.Is(err, client.ErrNotFound) {
//	    // the entity is gone on the server
//	}
var (
	// ErrNetwork covers transport failures: connection refused, DNS,
	// and requests aborted by the client-side timeout.
	ErrNetwork = errors.New("gateway: network error")

	// ErrNotFound is a 404 on a specific entity.
	ErrNotFound = errors.New("gateway: not found")

	// ErrServer is any 5xx response.
	ErrServer = errors.New("gateway: server error")

	// ErrValidation is any 4xx response other than 404.
	ErrValidation = errors.New("gateway: validation error")
)

// Error carries the classification and context of a failed gateway call.
type Error struct {
	// Op is the logical operation, e.g. "list devices".
	Op string

	// Status is the HTTP status code, 0 for transport failures.
	Status int

	// Message is the human-readable detail, taken from the response
	// body when the gateway provided one.
	Message string

	// kind is the taxonomy sentinel this error unwraps to.
	kind error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.kind, e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.kind, e.Op, e.Message)
}

// Unwrap exposes the taxonomy sentinel for errors.Is().
func (e *Error) Unwrap() error {
	return e.kind
}

// newNetworkError wraps a transport failure.
func newNetworkError(op string, err error) *Error {
	return &Error{Op: op, Message: err.Error(), kind: ErrNetwork}
}

// newStatusError classifies a non-2xx HTTP response.
func newStatusError(op string, status int, message string) *Error {
	var kind error
	switch {
	case status == 404:
		kind = ErrNotFound
	case status >= 500:
		kind = ErrServer
	default:
		kind = ErrValidation
	}
	if message == "" {
		message = "request rejected"
	}
	return &Error{Op: op, Status: status, Message: message, kind: kind}
}
