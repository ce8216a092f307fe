package models

import (
	"errors"
	"fmt"
)

// Domain error taxonomy shared by the list client, the key normalizer,
// the dashboard cache and the admin service. Callers match with errors.Is.
var (
	// ErrTransport marks network or HTTP failures talking to the list backend.
	// The core never retries; retrying is left to the caller.
	ErrTransport = errors.New("list backend transport error")
	// ErrNotFound marks an operation that referenced a missing id.
	ErrNotFound = errors.New("item not found")
	// ErrValidation marks a write rejected because of required-field or type constraints.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidArgument marks key derivation called with empty inputs.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrTimeout marks a cache waiter that exceeded the wait ceiling.
	ErrTimeout = errors.New("timed out waiting for dashboard data")
	// ErrConflict marks a create that would duplicate an existing derived key.
	ErrConflict = errors.New("conflict")
)

// TransportError carries the HTTP status and response body of a failed
// backend call. StatusCode is 0 when the request never got a response.
type TransportError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("%s: backend returned status %d: %s", e.Op, e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: backend returned status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return e.Op + ": transport failure"
	}
}

// Is makes every TransportError match ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
