package webapi

import (
	"context"
	"net"
	"net/http"
	"syscall"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arzzra/calling_client/pkg/auth"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		kind    Kind
		message string
	}{
		{"bad request", http.StatusBadRequest, KindTerminal, MsgBadRequest},
		{"unauthorized", http.StatusUnauthorized, KindTerminal, MsgTokenExpired},
		{"forbidden", http.StatusForbidden, KindTerminal, MsgForbidden},
		{"not found", http.StatusNotFound, KindTerminal, MsgNotFound},
		{"too many requests", http.StatusTooManyRequests, KindRetryable, MsgServiceUnavailable},
		{"internal", http.StatusInternalServerError, KindRetryable, MsgServiceUnavailable},
		{"unavailable", http.StatusServiceUnavailable, KindRetryable, MsgServiceUnavailable},
		{"conflict", http.StatusConflict, KindRetryable, MsgUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Classify(&StatusError{StatusCode: tt.status})
			require.NotNil(t, err)
			assert.Equal(t, tt.status, err.StatusCode)
			assert.Equal(t, tt.kind, err.Kind)
			assert.Equal(t, tt.message, err.Message)
		})
	}
}

func TestClassifyWrapped(t *testing.T) {
	wrapped := errors.Wrap(&StatusError{StatusCode: http.StatusUnauthorized}, "register")
	err := Classify(wrapped)
	require.NotNil(t, err)
	assert.True(t, err.Terminal())

	var statusErr *StatusError
	assert.True(t, errors.As(err, &statusErr))
}

func TestClassifyTokenExpired(t *testing.T) {
	err := Classify(errors.Wrap(auth.ErrTokenExpired, "token"))
	require.NotNil(t, err)
	assert.Equal(t, http.StatusUnauthorized, err.StatusCode)
	assert.Equal(t, MsgTokenExpired, err.Message)
	assert.True(t, err.Terminal())
}

func TestClassifyTransport(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
	err := Classify(refused)
	require.NotNil(t, err)
	assert.True(t, err.Retryable())
	assert.Equal(t, http.StatusServiceUnavailable, err.StatusCode)
	assert.Equal(t, MsgServiceUnavailable, err.Message)

	err = Classify(errors.New("something odd"))
	assert.True(t, err.Retryable())
	assert.Equal(t, MsgUnknown, err.Message)

	err = Classify(context.Canceled)
	assert.True(t, err.Terminal())
}

func TestClassifyIdempotent(t *testing.T) {
	assert.Nil(t, Classify(nil))

	first := NotImplemented()
	assert.Same(t, first, Classify(first))
	assert.Same(t, first, Classify(errors.Wrap(first, "ctx")))
}

func TestIsRetriableError(t *testing.T) {
	assert.False(t, IsRetriableError(nil))
	assert.True(t, IsRetriableError(context.DeadlineExceeded))
	assert.True(t, IsRetriableError(syscall.ECONNRESET))
	assert.True(t, IsRetriableError(errors.New("dial tcp: lookup mobius: no such host")))
	assert.False(t, IsRetriableError(errors.New("invalid character")))
}

func TestFailureFrom(t *testing.T) {
	code, msg := FailureFrom(&StatusError{StatusCode: http.StatusServiceUnavailable})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, MsgServiceUnavailable, msg)

	code, msg = FailureFrom(nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Empty(t, msg)
}
