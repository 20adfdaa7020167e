package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"error":   LevelError,
		"WARN":    LevelWarn,
		"warning": LevelWarn,
		" info ":  LevelInfo,
		"log":     LevelLog,
		"debug":   LevelLog,
		"trace":   LevelTrace,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestLevelSlogOrdering(t *testing.T) {
	assert.Less(t, int(LevelTrace.Slog()), int(LevelLog.Slog()))
	assert.Less(t, int(LevelLog.Slog()), int(LevelInfo.Slog()))
	assert.Less(t, int(LevelInfo.Slog()), int(LevelWarn.Slog()))
	assert.Less(t, int(LevelWarn.Slog()), int(LevelError.Slog()))
	assert.Equal(t, slog.LevelInfo, Level("bogus").Slog())
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)

	l.Info("скрыто")
	assert.Zero(t, buf.Len())

	l.Warn("видно", slog.Any("error", errors.New("boom")))
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "видно", rec["msg"])
	assert.Contains(t, rec, "error")
}

func TestTraceLevelName(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelTrace)
	l.Log(t.Context(), SlogLevelTrace, "trace msg")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "TRACE", rec["level"])
}

func TestNop(t *testing.T) {
	l := Nop()
	assert.False(t, l.Enabled(t.Context(), slog.LevelError))
	assert.NotNil(t, OrDefault(nil))
	assert.Same(t, l, OrDefault(l))
}
