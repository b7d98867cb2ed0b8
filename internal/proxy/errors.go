package proxy

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// Sentinel errors for proxy operations.
var (
	// ErrMissingPath indicates that the request carried no path segments after the prefix.
	ErrMissingPath = errors.New("missing API path")

	// ErrBackendUnreachable indicates a network-level failure contacting the backend.
	ErrBackendUnreachable = errors.New("backend is unreachable")

	// ErrInvalidBackendURL indicates that the configured backend base address is unusable.
	ErrInvalidBackendURL = errors.New("invalid backend URL")
)

// Failure kinds reported in logs for unreachable backends.
const (
	FailureTimeout           = "timeout"
	FailureConnectionRefused = "connection_refused"
	FailureDNS               = "dns"
	FailureTLS               = "tls"
	FailureCanceled          = "canceled"
	FailureOther             = "other"
)

// ProxyError represents a proxy-related error with details.
type ProxyError struct {
	Op      string // Operation that failed
	Target  string // Target URL if applicable
	Message string // Human-readable message
	Cause   error  // Underlying error
}

// Error implements the error interface.
func (e *ProxyError) Error() string {
	if e.Target != "" {
		if e.Cause != nil {
			return fmt.Sprintf("proxy error [%s] target=%s: %s: %v", e.Op, e.Target, e.Message, e.Cause)
		}
		return fmt.Sprintf("proxy error [%s] target=%s: %s", e.Op, e.Target, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("proxy error [%s]: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("proxy error [%s]: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ProxyError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ProxyError) Is(target error) bool {
	_, ok := target.(*ProxyError)
	return ok || errors.Is(e.Cause, target)
}

// NewUnreachableError wraps a transport failure for the given target.
func NewUnreachableError(target string, cause error) *ProxyError {
	return &ProxyError{
		Op:      "forward",
		Target:  target,
		Message: "request failed",
		Cause:   fmt.Errorf("%w: %w", ErrBackendUnreachable, cause),
	}
}

// NewInvalidBackendError reports a backend base address that cannot be used.
func NewInvalidBackendError(raw string, cause error) *ProxyError {
	return &ProxyError{
		Op:      "parse_backend",
		Target:  raw,
		Message: "invalid backend URL",
		Cause:   fmt.Errorf("%w: %w", ErrInvalidBackendURL, cause),
	}
}

// IsProxyError checks if an error is a ProxyError.
func IsProxyError(err error) bool {
	var proxyErr *ProxyError
	return errors.As(err, &proxyErr)
}

// IsUnreachable reports whether err came from a failed backend call.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrBackendUnreachable)
}

// ClassifyFailure names the kind of network failure behind err.
func ClassifyFailure(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.Canceled) {
		return FailureCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return FailureDNS
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return FailureConnectionRefused
	}

	var certErr *tls.CertificateVerificationError
	var recordErr tls.RecordHeaderError
	if errors.As(err, &certErr) || errors.As(err, &recordErr) {
		return FailureTLS
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}

	return FailureOther
}
