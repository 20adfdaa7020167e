package webapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/arzzra/calling_client/pkg/auth"
)

// Тексты ошибок, которые видит пользователь
const (
	MsgTokenExpired       = "User is unauthorized due to an expired token. Sign out, then sign back in."
	MsgForbidden          = "An unauthorized action has been received. This action has been blocked. Please contact the administrator if this persists."
	MsgNotFound           = "Webex Calling device or resource was not found."
	MsgBadRequest         = "Invalid request. Check the request parameters and try again."
	MsgServiceUnavailable = "Unable to establish a connection with the server"
	MsgInvalidNumber      = "An invalid phone number was detected. Check the number and try again."
	MsgNotImplemented     = "Method is not implemented at the backend"
	MsgCanceled           = "The request was canceled."
	MsgUnknown            = "An unknown error occurred while placing the request. Wait a moment and try again."
)

// Kind категория ошибки
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation ошибка входных данных, запрос не отправлялся
	KindValidation
	// KindTerminal повтор на другом сервере не поможет
	KindTerminal
	// KindRetryable можно перейти к следующему серверу
	KindRetryable
	// KindNotImplemented операция не поддерживается бэкендом
	KindNotImplemented
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTerminal:
		return "terminal"
	case KindRetryable:
		return "retryable"
	case KindNotImplemented:
		return "not_implemented"
	default:
		return "unknown"
	}
}

// Error единая форма ошибки клиента
type Error struct {
	StatusCode int
	Message    string
	Kind       Kind
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (status %d, %s): %v", e.Message, e.StatusCode, e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s (status %d, %s)", e.Message, e.StatusCode, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable true если ошибку имеет смысл повторить на другом сервере
func (e *Error) Retryable() bool {
	return e.Kind == KindRetryable
}

// Terminal true если перебор серверов нужно прекратить
func (e *Error) Terminal() bool {
	return e.Kind == KindTerminal
}

// NewError создает Error
func NewError(status int, message string, kind Kind, cause error) *Error {
	return &Error{StatusCode: status, Message: message, Kind: kind, Cause: cause}
}

// InvalidNumber ошибка валидации номера
func InvalidNumber(cause error) *Error {
	return NewError(http.StatusBadRequest, MsgInvalidNumber, KindValidation, cause)
}

// NotImplemented ошибка неподдерживаемой бэкендом операции
func NotImplemented() *Error {
	return NewError(http.StatusNotImplemented, MsgNotImplemented, KindNotImplemented, nil)
}

// Classify приводит любую ошибку запроса к *Error.
// Для nil возвращает nil, уже классифицированная ошибка возвращается как есть.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, auth.ErrTokenExpired) {
		return NewError(http.StatusUnauthorized, MsgTokenExpired, KindTerminal, err)
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return classifyStatus(statusErr.StatusCode, err)
	}

	if errors.Is(err, context.Canceled) {
		return NewError(0, MsgCanceled, KindTerminal, err)
	}

	if IsRetriableError(err) {
		return NewError(http.StatusServiceUnavailable, MsgServiceUnavailable, KindRetryable, err)
	}
	// Неизвестные ошибки тоже не останавливают перебор серверов
	return NewError(http.StatusInternalServerError, MsgUnknown, KindRetryable, err)
}

func classifyStatus(code int, cause error) *Error {
	switch code {
	case http.StatusBadRequest:
		return NewError(code, MsgBadRequest, KindTerminal, cause)
	case http.StatusUnauthorized:
		return NewError(code, MsgTokenExpired, KindTerminal, cause)
	case http.StatusForbidden:
		return NewError(code, MsgForbidden, KindTerminal, cause)
	case http.StatusNotFound:
		return NewError(code, MsgNotFound, KindTerminal, cause)
	case http.StatusTooManyRequests, http.StatusRequestTimeout:
		return NewError(code, MsgServiceUnavailable, KindRetryable, cause)
	}
	if code >= 500 {
		return NewError(code, MsgServiceUnavailable, KindRetryable, cause)
	}
	return NewError(code, MsgUnknown, KindRetryable, cause)
}

// FailureFrom код и текст ошибки для ответа коннектора
func FailureFrom(err error) (int, string) {
	e := Classify(err)
	if e == nil {
		return http.StatusOK, ""
	}
	return e.StatusCode, e.Message
}
