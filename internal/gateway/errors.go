package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthExpired is returned for HTTP 401 responses
	ErrAuthExpired = errors.New("authentication expired")

	// ErrServerRejected is returned for non-2xx responses and {success:false} bodies
	ErrServerRejected = errors.New("server rejected request")

	// ErrNetworkFailure is returned when no response was received
	ErrNetworkFailure = errors.New("network failure")

	// ErrNoToken is returned when a sign-in response carries no token
	ErrNoToken = errors.New("no token in response")
)

// RequestError describes a failed gateway request. It unwraps to one of the
// sentinel errors above and to the underlying transport error, if any.
type RequestError struct {
	Endpoint string
	Status   int
	Message  string
	Kind     error
	Err      error
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Endpoint, e.Kind)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *RequestError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}
