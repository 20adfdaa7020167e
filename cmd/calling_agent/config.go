package main

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/arzzra/calling_client/pkg/backend"
	"github.com/arzzra/calling_client/pkg/line"
	"github.com/arzzra/calling_client/pkg/logger"
	"github.com/arzzra/calling_client/pkg/mobius"
)

const envPrefix = "CALLING_"

// config параметры агента. Флаги перекрываются переменными окружения CALLING_*.
type config struct {
	Listen          string
	UserID          string
	DeviceURI       string
	Primary         []string
	Backup          []string
	Domain          string
	LogLevel        logger.Level
	Console         bool
	Keepalive       time.Duration
	RegisterAtStart bool

	Backend      backend.Kind
	OrgID        string
	WebexAPIs    string
	WebexAPIsInt string
	XSI          string
	VMREST       string
	Janus        string

	// Token только из окружения
	Token string
}

func parseConfig(args []string, getenv func(string) string) (config, error) {
	fs := flag.NewFlagSet("calling_agent", flag.ContinueOnError)
	var (
		listen    = fs.String("listen", "127.0.0.1:8089", "Адрес HTTP API")
		userID    = fs.String("user", "", "Идентификатор пользователя")
		deviceURI = fs.String("device-uri", "", "Адрес клиентского устройства")
		primary   = fs.String("primary", "", "Основные серверы Mobius через запятую")
		backup    = fs.String("backup", "", "Резервные серверы Mobius через запятую")
		domain    = fs.String("domain", "", "Домен сервиса calling")
		level     = fs.String("log-level", "info", "Уровень логирования: error, warn, info, log, trace")
		console   = fs.Bool("console", true, "Человекочитаемый вывод логов")
		keepalive = fs.Duration("keepalive", mobius.DefaultKeepaliveInterval*time.Second, "Интервал keepalive по умолчанию")
		register  = fs.Bool("register", true, "Регистрировать линию при старте")
		kind      = fs.String("backend", "", "Бэкенд коннекторов: WEBEX_CALLING, BROADWORKS_CALLING, UCM_CALLING")
		orgID     = fs.String("org", "", "Идентификатор организации")
		apis      = fs.String("webexapis", "https://webexapis.com/v1", "Адрес webexapis")
		apisInt   = fs.String("webexapis-int", "", "Адрес внутреннего webexapis для UCM")
		xsi       = fs.String("xsi", "", "Корень XSI actions")
		vmrest    = fs.String("vmrest", "", "Адрес Unity Connection для UCM")
		janus     = fs.String("janus", "", "Адрес Janus для истории вызовов")
	)
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}

	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(envPrefix + key)); v != "" {
			return v
		}
		return def
	}

	cfg := config{
		Listen:          env("LISTEN", *listen),
		UserID:          env("USER_ID", *userID),
		DeviceURI:       env("DEVICE_URI", *deviceURI),
		Primary:         splitList(env("PRIMARY", *primary)),
		Backup:          splitList(env("BACKUP", *backup)),
		Domain:          env("DOMAIN", *domain),
		Console:         *console,
		Keepalive:       *keepalive,
		RegisterAtStart: *register,
		OrgID:           env("ORG_ID", *orgID),
		WebexAPIs:       env("WEBEXAPIS", *apis),
		WebexAPIsInt:    env("WEBEXAPIS_INT", *apisInt),
		XSI:             env("XSI", *xsi),
		VMREST:          env("VMREST", *vmrest),
		Janus:           env("JANUS", *janus),
		Token:           getenv(envPrefix + "TOKEN"),
	}

	lvl, err := logger.ParseLevel(env("LOG_LEVEL", *level))
	if err != nil {
		return config{}, err
	}
	cfg.LogLevel = lvl

	if v := env("KEEPALIVE", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return config{}, errors.Wrap(err, "CALLING_KEEPALIVE")
		}
		cfg.Keepalive = d
	}

	if v := env("BACKEND", *kind); v != "" {
		k, err := backend.ParseKind(v)
		if err != nil {
			return config{}, err
		}
		cfg.Backend = k
	}

	return cfg, cfg.validate()
}

func (c config) validate() error {
	if c.Token == "" {
		return errors.New("не задан " + envPrefix + "TOKEN")
	}
	lc := c.lineConfig()
	return lc.Validate()
}

func (c config) lineConfig() line.Config {
	lc := line.DefaultConfig()
	lc.UserID = c.UserID
	lc.DeviceURI = c.DeviceURI
	lc.PrimaryServers = c.Primary
	lc.BackupServers = c.Backup
	lc.ServiceDomain = c.Domain
	lc.LogLevel = c.LogLevel
	lc.DefaultKeepalive = c.Keepalive
	return lc
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func osEnv(key string) string {
	return os.Getenv(key)
}
