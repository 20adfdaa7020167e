package webapi

import (
	"context"
	"net"
	"strings"
	"syscall"

	"github.com/pkg/errors"
)

var retriablePatterns = []string{
	"timeout",
	"temporary",
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"network is unreachable",
	"no route to host",
	"eof",
}

// IsRetriableError проверяет, является ли транспортная ошибка временной
func IsRetriableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED,
			syscall.ECONNRESET,
			syscall.ECONNABORTED,
			syscall.EPIPE,
			syscall.ETIMEDOUT,
			syscall.EHOSTUNREACH,
			syscall.ENETUNREACH,
			syscall.ENETDOWN:
			return true
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// Проверяем по тексту ошибки
	msg := strings.ToLower(err.Error())
	for _, pattern := range retriablePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
