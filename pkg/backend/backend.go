// Package backend определяет тип вызывного бэкенда пользователя и общую
// форму ответов коннекторов настроек, голосовой почты и истории вызовов.
package backend

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/arzzra/calling_client/pkg/webapi"
)

// Kind тип вызывного бэкенда
type Kind string

const (
	KindWXC   Kind = "WEBEX_CALLING"
	KindBWRKS Kind = "BROADWORKS_CALLING"
	KindUCM   Kind = "UCM_CALLING"
)

const (
	MessageSuccess = "SUCCESS"
	MessageFailure = "FAILURE"
)

// Признаки бэкенда в профиле пользователя
const (
	EntitlementStandard      = "bc-sp-standard"
	EntitlementBasic         = "bc-sp-basic"
	EntitlementBroadworks    = "broadworks-connector"
	CallingBehaviorNativeUCM = "NATIVE_SIP_CALL_TO_UCM"
)

// ErrUnknownBackend бэкенд пользователя не определен
var ErrUnknownBackend = errors.New("backend: вызывной бэкенд не определен")

// Detect определяет бэкенд по признакам и поведению вызовов пользователя.
// Выбор делается один раз при создании коннектора.
func Detect(entitlements []string, callingBehavior string) (Kind, error) {
	has := func(name string) bool {
		for _, e := range entitlements {
			if strings.EqualFold(e, name) {
				return true
			}
		}
		return false
	}

	switch {
	case has(EntitlementStandard) || has(EntitlementBasic):
		return KindWXC, nil
	case has(EntitlementBroadworks):
		return KindBWRKS, nil
	case strings.EqualFold(callingBehavior, CallingBehaviorNativeUCM):
		return KindUCM, nil
	}
	return "", ErrUnknownBackend
}

// ParseKind разбирает имя бэкенда (wxc, bwrks, ucm или полное имя)
func ParseKind(s string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "WXC", string(KindWXC):
		return KindWXC, nil
	case "BWRKS", string(KindBWRKS):
		return KindBWRKS, nil
	case "UCM", string(KindUCM):
		return KindUCM, nil
	}
	return "", errors.Wrap(ErrUnknownBackend, s)
}

// Response ответ коннектора
type Response[T any] struct {
	StatusCode int    `json:"statusCode"`
	Data       T      `json:"data"`
	Message    string `json:"message"`
}

// OK true для кода 2xx
func (r Response[T]) OK() bool {
	return webapi.IsSuccess(r.StatusCode)
}

// Success успешный ответ
func Success[T any](data T) Response[T] {
	return Response[T]{StatusCode: http.StatusOK, Data: data, Message: MessageSuccess}
}

// Failure ответ с ошибкой. fill записывает текст ошибки в данные ответа.
func Failure[T any](status int, message string, fill func(*T, string)) Response[T] {
	var data T
	fill(&data, message)
	return Response[T]{StatusCode: status, Data: data, Message: MessageFailure}
}

// FailureFrom классифицирует ошибку запроса и строит ответ с ошибкой
func FailureFrom[T any](err error, fill func(*T, string)) Response[T] {
	status, message := webapi.FailureFrom(err)
	return Failure(status, message, fill)
}

// NotImplemented ответ на операцию, которую бэкенд не поддерживает
func NotImplemented[T any](fill func(*T, string)) Response[T] {
	return Failure(http.StatusNotImplemented, webapi.MsgNotImplemented, fill)
}

// Result метка результата для метрик
func Result(status int) string {
	if webapi.IsSuccess(status) {
		return "success"
	}
	return "failure"
}
