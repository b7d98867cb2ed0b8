package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors.
var (
	// ErrTransport is wrapped by every failure that did not produce a backend envelope.
	ErrTransport = errors.New("transport failure")

	// ErrUnexpectedContentType is returned when the response is not JSON.
	ErrUnexpectedContentType = errors.New("unexpected content type")

	// ErrCircuitOpen is returned when the circuit breaker rejects a call.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// MessageUnexpectedResponse is used when a non-JSON response has no body.
const MessageUnexpectedResponse = "Unexpected response type from API."

// APIError is a failed call. Status and Message come from the backend
// envelope, or are synthesized for transport failures.
type APIError struct {
	Status  int
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// IsNotFound reports whether the backend answered with a 404 status.
func (e *APIError) IsNotFound() bool {
	return e.Status == http.StatusNotFound
}

// IsTransport reports whether the failure happened before an envelope was read.
func (e *APIError) IsTransport() bool {
	return errors.Is(e.Cause, ErrTransport)
}

// newTransportError wraps err the way the backend would report an internal
// failure: status 500 with the error text as the message.
func newTransportError(message string, err error) *APIError {
	return &APIError{
		Status:  http.StatusInternalServerError,
		Message: message,
		Cause:   fmt.Errorf("%w: %w", ErrTransport, err),
	}
}

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNotFound reports whether err is an *APIError with a 404 status.
func IsNotFound(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.IsNotFound()
}

// MessageOf returns the message carried by an *APIError, or an empty string.
func MessageOf(err error) string {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Message
	}
	return ""
}
