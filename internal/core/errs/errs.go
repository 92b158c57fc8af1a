// Package errs defines the failure kinds shared by every core component.
// Components wrap these sentinels; callers classify with errors.Is and errors.As.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports a missing identifier or saved name, including a
	// saved entry whose file is empty.
	ErrNotFound = errors.New("not found")
	// ErrCorruptData reports saved content that is present but undecodable.
	ErrCorruptData = errors.New("corrupt data")
	// ErrInvalidName reports an empty or path-unsafe saved name, or a header
	// key that is not a valid HTTP field name.
	ErrInvalidName = errors.New("invalid name")
	// ErrInvalidState reports an operation that is not valid in the current state.
	ErrInvalidState = errors.New("invalid state")
	// ErrTransport reports a network or protocol failure while submitting.
	ErrTransport = errors.New("transport failure")
)

// TransportError carries the cause of a failed submission.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s %s: %v", ErrTransport, e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrTransport) true for any *TransportError.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// Kind names the failure kind of err, or "" for nil. Errors outside the
// taxonomy are reported as "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrCorruptData):
		return "corrupt_data"
	case errors.Is(err, ErrInvalidName):
		return "invalid_name"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrTransport):
		return "transport_failure"
	default:
		return "internal"
	}
}
