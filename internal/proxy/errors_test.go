package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProxyError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ProxyError
		want string
	}{
		{
			name: "with target and cause",
			err:  &ProxyError{Op: "forward", Target: "http://b/api/x", Message: "failed", Cause: errors.New("boom")},
			want: "proxy error [forward] target=http://b/api/x: failed: boom",
		},
		{
			name: "with target",
			err:  &ProxyError{Op: "forward", Target: "http://b/api/x", Message: "failed"},
			want: "proxy error [forward] target=http://b/api/x: failed",
		},
		{
			name: "basic with cause",
			err:  &ProxyError{Op: "forward", Message: "failed", Cause: errors.New("boom")},
			want: "proxy error [forward]: failed: boom",
		},
		{
			name: "basic",
			err:  &ProxyError{Op: "forward", Message: "failed"},
			want: "proxy error [forward]: failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestNewUnreachableError(t *testing.T) {
	t.Parallel()

	cause := &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}
	err := NewUnreachableError("http://b/api/x", cause)

	assert.True(t, IsProxyError(err))
	assert.True(t, IsUnreachable(err))
	assert.ErrorIs(t, err, syscall.ECONNREFUSED)
	assert.ErrorIs(t, err, &ProxyError{})
	assert.False(t, IsUnreachable(errors.New("other")))
}

func TestNewInvalidBackendError(t *testing.T) {
	t.Parallel()

	err := NewInvalidBackendError("::", errors.New("bad"))
	assert.ErrorIs(t, err, ErrInvalidBackendURL)
	assert.Equal(t, "parse_backend", err.Op)
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassifyFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "canceled", err: fmt.Errorf("do: %w", context.Canceled), want: FailureCanceled},
		{name: "deadline", err: context.DeadlineExceeded, want: FailureTimeout},
		{name: "dns", err: &net.OpError{Op: "dial", Err: &net.DNSError{Err: "no such host", Name: "backend"}}, want: FailureDNS},
		{name: "refused", err: &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, want: FailureConnectionRefused},
		{name: "net timeout", err: &net.OpError{Op: "read", Err: timeoutError{}}, want: FailureTimeout},
		{name: "other", err: errors.New("boom"), want: FailureOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ClassifyFailure(tt.err))
		})
	}
}
