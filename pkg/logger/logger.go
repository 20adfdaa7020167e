// Package logger собирает slog логгеры для SDK и агента.
//
// Уровни SDK (error, warn, info, log, trace) отображаются на уровни slog,
// trace лежит ниже slog.LevelDebug.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/phsym/console-slog"
	slogformatter "github.com/samber/slog-formatter"
)

// Level уровень логирования SDK
type Level string

const (
	LevelError Level = "error"
	LevelWarn  Level = "warn"
	LevelInfo  Level = "info"
	LevelLog   Level = "log"
	LevelTrace Level = "trace"
)

// SlogLevelTrace уровень slog для LevelTrace
const SlogLevelTrace = slog.Level(-8)

// Slog возвращает соответствующий уровень slog.
// Неизвестные уровни трактуются как info.
func (l Level) Slog() slog.Level {
	switch l {
	case LevelError:
		return slog.LevelError
	case LevelWarn:
		return slog.LevelWarn
	case LevelLog:
		return slog.LevelDebug
	case LevelTrace:
		return SlogLevelTrace
	default:
		return slog.LevelInfo
	}
}

// Valid проверяет, что уровень известен
func (l Level) Valid() bool {
	switch l {
	case LevelError, LevelWarn, LevelInfo, LevelLog, LevelTrace:
		return true
	}
	return false
}

func (l Level) String() string {
	return string(l)
}

// ParseLevel разбирает уровень из строки (регистр не важен, "debug" = log)
func ParseLevel(s string) (Level, error) {
	v := Level(strings.ToLower(strings.TrimSpace(s)))
	if v == "debug" {
		return LevelLog, nil
	}
	if v == "warning" {
		return LevelWarn, nil
	}
	if !v.Valid() {
		return "", fmt.Errorf("неизвестный уровень логирования %q", s)
	}
	return v, nil
}

var withErrorFormatter = slogformatter.NewFormatterHandler(
	slogformatter.ErrorFormatter("error"),
)

// New создает JSON логгер
func New(w io.Writer, level Level) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level.Slog(),
		ReplaceAttr: replaceTraceLevel,
	})
	return slog.New(withErrorFormatter(h))
}

// NewConsole создает логгер с человекочитаемым выводом для терминала
func NewConsole(w io.Writer, level Level) *slog.Logger {
	h := console.NewHandler(w, &console.HandlerOptions{
		Level:      level.Slog(),
		TimeFormat: time.TimeOnly,
	})
	return slog.New(withErrorFormatter(h))
}

func replaceTraceLevel(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if lvl, ok := a.Value.Any().(slog.Level); ok && lvl <= SlogLevelTrace {
		a.Value = slog.StringValue("TRACE")
	}
	return a
}

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h nopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h nopHandler) WithGroup(string) slog.Handler           { return h }

// Nop возвращает логгер, который ничего не пишет
func Nop() *slog.Logger {
	return slog.New(nopHandler{})
}

// OrDefault возвращает l или slog.Default(), если l == nil
func OrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
