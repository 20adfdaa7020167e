// Package webapi описывает функцию запроса к облачным сервисам и границу,
// на которой сетевые ошибки приводятся к единой типизированной форме.
package webapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Request описывает один HTTP запрос к сервису
type Request struct {
	Method string
	URI    string

	// Body сериализуется в JSON, []byte и string отправляются как есть
	Body        any
	ContentType string
	Headers     map[string]string
}

// Response ответ сервиса с кодом 2xx
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// Decode разбирает JSON тело ответа в v
func (r *Response) Decode(v any) error {
	if r == nil || len(r.Body) == 0 {
		return fmt.Errorf("webapi: пустое тело ответа")
	}
	return json.Unmarshal(r.Body, v)
}

// Requester выполняет запросы. Ответы с кодом вне 2xx возвращаются как *StatusError.
type Requester interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// RequesterFunc адаптер функции к Requester
type RequesterFunc func(ctx context.Context, req Request) (*Response, error)

// Do вызывает f(ctx, req)
func (f RequesterFunc) Do(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

// StatusError ответ сервиса с кодом вне 2xx
type StatusError struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webapi: сервис ответил статусом %d", e.StatusCode)
}

// IsSuccess проверяет код ответа на 2xx
func IsSuccess(code int) bool {
	return code >= 200 && code < 300
}
