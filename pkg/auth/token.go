// Package auth отдает токен доступа для запросов к облачным сервисам.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

var (
	// ErrTokenExpired срок действия токена истек до отправки запроса
	ErrTokenExpired = errors.New("auth: срок действия токена истек")
	// ErrNoToken токен не задан
	ErrNoToken = errors.New("auth: токен не задан")
)

// TokenSource возвращает актуальный токен доступа
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc адаптер функции к TokenSource
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticToken неизменяемый токен. Если токен является JWT с claim exp,
// после истечения срока Token возвращает ErrTokenExpired.
type StaticToken struct {
	token  string
	expiry time.Time
	clock  clock.Clock
}

// NewStaticToken создает StaticToken. clk может быть nil.
func NewStaticToken(token string, clk clock.Clock) *StaticToken {
	if clk == nil {
		clk = clock.New()
	}
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	exp, _ := Expiry(token)
	return &StaticToken{token: token, expiry: exp, clock: clk}
}

func (s *StaticToken) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.token == "" {
		return "", ErrNoToken
	}
	if !s.expiry.IsZero() && !s.clock.Now().Before(s.expiry) {
		return "", ErrTokenExpired
	}
	return s.token, nil
}

// ExpiresAt время истечения токена, нулевое для непрозрачных токенов
func (s *StaticToken) ExpiresAt() time.Time {
	return s.expiry
}

// Expiry читает claim exp без проверки подписи.
// Для непрозрачных токенов и JWT без exp возвращает false.
func Expiry(token string) (time.Time, bool) {
	if strings.Count(token, ".") != 2 {
		return time.Time{}, false
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
