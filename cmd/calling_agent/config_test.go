package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arzzra/calling_client/pkg/backend"
	"github.com/arzzra/calling_client/pkg/logger"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestParseConfigFlags(t *testing.T) {
	cfg, err := parseConfig([]string{
		"-user", "user-1",
		"-device-uri", "https://wdm.example.com/devices/1",
		"-primary", "https://mobius-1.example.com, https://mobius-2.example.com",
		"-backup", "https://mobius-b.example.com",
		"-log-level", "debug",
		"-backend", "ucm",
	}, envMap(map[string]string{"CALLING_TOKEN": "secret"}))
	require.NoError(t, err)

	assert.Equal(t, "user-1", cfg.UserID)
	assert.Equal(t, []string{"https://mobius-1.example.com", "https://mobius-2.example.com"}, cfg.Primary)
	assert.Equal(t, []string{"https://mobius-b.example.com"}, cfg.Backup)
	assert.Equal(t, logger.LevelLog, cfg.LogLevel)
	assert.Equal(t, backend.KindUCM, cfg.Backend)
	assert.Equal(t, 30*time.Second, cfg.Keepalive)
	assert.True(t, cfg.RegisterAtStart)
	assert.Equal(t, "secret", cfg.Token)

	lc := cfg.lineConfig()
	assert.Equal(t, cfg.Primary, lc.PrimaryServers)
	assert.Equal(t, logger.LevelLog, lc.LogLevel)
}

func TestParseConfigEnvOverrides(t *testing.T) {
	cfg, err := parseConfig([]string{"-user", "flag-user", "-primary", "https://flag.example.com"}, envMap(map[string]string{
		"CALLING_TOKEN":      "secret",
		"CALLING_USER_ID":    "env-user",
		"CALLING_DEVICE_URI": "https://wdm.example.com/devices/2",
		"CALLING_PRIMARY":    "https://env.example.com",
		"CALLING_KEEPALIVE":  "45s",
		"CALLING_LISTEN":     ":9000",
	}))
	require.NoError(t, err)

	assert.Equal(t, "env-user", cfg.UserID)
	assert.Equal(t, []string{"https://env.example.com"}, cfg.Primary)
	assert.Equal(t, 45*time.Second, cfg.Keepalive)
	assert.Equal(t, ":9000", cfg.Listen)
}

func TestParseConfigErrors(t *testing.T) {
	base := []string{"-user", "u", "-device-uri", "d", "-primary", "https://m.example.com"}

	_, err := parseConfig(base, envMap(nil))
	assert.Error(t, err, "токен обязателен")

	_, err = parseConfig(append(base, "-backend", "pbx"), envMap(map[string]string{"CALLING_TOKEN": "t"}))
	assert.ErrorIs(t, err, backend.ErrUnknownBackend)

	_, err = parseConfig(append(base, "-log-level", "loud"), envMap(map[string]string{"CALLING_TOKEN": "t"}))
	assert.Error(t, err)

	_, err = parseConfig([]string{"-user", "u"}, envMap(map[string]string{"CALLING_TOKEN": "t"}))
	assert.Error(t, err)

	_, err = parseConfig(base, envMap(map[string]string{"CALLING_TOKEN": "t", "CALLING_KEEPALIVE": "soon"}))
	assert.Error(t, err)
}
