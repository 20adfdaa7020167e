// Package callsettings читает и изменяет настройки вызовов пользователя
// (ожидание вызова, не беспокоить, переадресация, голосовая почта)
// на бэкенде Webex Calling, Broadworks или UCM.
package callsettings

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/pkg/errors"

	"github.com/arzzra/calling_client/pkg/backend"
	"github.com/arzzra/calling_client/pkg/logger"
	"github.com/arzzra/calling_client/pkg/metrics"
	"github.com/arzzra/calling_client/pkg/webapi"
)

const connectorName = "callsettings"

// Connector настройки вызовов на выбранном бэкенде
type Connector interface {
	GetCallWaitingSetting(ctx context.Context) backend.Response[Data[ToggleSetting]]
	GetDoNotDisturbSetting(ctx context.Context) backend.Response[Data[ToggleSetting]]
	SetDoNotDisturbSetting(ctx context.Context, enabled bool) backend.Response[Data[ToggleSetting]]
	GetCallForwardSetting(ctx context.Context) backend.Response[Data[CallForwardSetting]]
	SetCallForwardSetting(ctx context.Context, setting CallForwardSetting) backend.Response[Data[CallForwardSetting]]
	GetVoicemailSetting(ctx context.Context) backend.Response[Data[VoicemailSetting]]
	SetVoicemailSetting(ctx context.Context, setting VoicemailSetting) backend.Response[Data[VoicemailSetting]]
	// GetCallForwardAlwaysSetting directoryNumber обязателен только для UCM
	GetCallForwardAlwaysSetting(ctx context.Context, directoryNumber string) backend.Response[Data[CallForwardAlwaysSetting]]
}

// Config конфигурация коннектора
type Config struct {
	Backend backend.Kind
	UserID  string
	OrgID   string

	// WebexAPIs адрес публичного API, например https://webexapis.com/v1
	WebexAPIs string
	// WebexAPIsInt адрес внутреннего API для UCM
	WebexAPIsInt string
	// XSIEndpoint корень XSI actions Broadworks, без /v2.0
	XSIEndpoint string
}

// Validate проверяет конфигурацию для выбранного бэкенда
func (c *Config) Validate() error {
	if c.UserID == "" {
		return errors.New("callsettings: user id не указан")
	}
	switch c.Backend {
	case backend.KindWXC:
		if c.WebexAPIs == "" {
			return errors.New("callsettings: не указан адрес webexapis")
		}
	case backend.KindBWRKS:
		if c.XSIEndpoint == "" {
			return errors.New("callsettings: не указан адрес XSI")
		}
	case backend.KindUCM:
		if c.WebexAPIsInt == "" {
			return errors.New("callsettings: не указан адрес внутреннего webexapis")
		}
	default:
		return errors.Wrap(backend.ErrUnknownBackend, string(c.Backend))
	}
	return nil
}

// Option опция коннектора
type Option func(*options)

type options struct {
	metrics *metrics.Collector
	logger  *slog.Logger
}

// WithMetrics подключает коллектор метрик
func WithMetrics(m *metrics.Collector) Option {
	return func(o *options) { o.metrics = m }
}

// WithLogger задает логгер
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New создает коннектор для бэкенда из конфигурации
func New(cfg Config, requester webapi.Requester, opts ...Option) (Connector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if requester == nil {
		return nil, errors.New("callsettings: requester не указан")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	log := logger.OrDefault(o.logger).With("component", connectorName, "backend", string(cfg.Backend))
	base := client{cfg: cfg, requester: requester, logger: log}

	var c Connector
	switch cfg.Backend {
	case backend.KindWXC:
		c = &wxcConnector{client: base}
	case backend.KindBWRKS:
		c = &broadworksConnector{client: base}
	case backend.KindUCM:
		c = &ucmConnector{client: base}
	}

	if o.metrics != nil {
		c = &metered{next: c, metrics: o.metrics}
	}
	return c, nil
}

// client общая часть коннекторов
type client struct {
	cfg       Config
	requester webapi.Requester
	logger    *slog.Logger
}

func (c *client) getJSON(ctx context.Context, uri string, out any) error {
	resp, err := c.requester.Do(ctx, webapi.Request{Method: http.MethodGet, URI: uri})
	if err != nil {
		return err
	}
	return errors.Wrap(resp.Decode(out), "callsettings: разбор ответа")
}

func (c *client) send(ctx context.Context, method, uri string, body any, contentType string) error {
	_, err := c.requester.Do(ctx, webapi.Request{
		Method:      method,
		URI:         uri,
		Body:        body,
		ContentType: contentType,
	})
	return err
}

func failure[T any](c *client, op string, err error) backend.Response[Data[T]] {
	resp := backend.FailureFrom(err, setError[T])
	c.logger.Warn("call settings request failed",
		slog.String("operation", op),
		slog.Int("status", resp.StatusCode),
		slog.Any("error", err))
	return resp
}

func success[T any](setting *T) backend.Response[Data[T]] {
	return backend.Success(Data[T]{CallSetting: setting})
}

func notImplemented[T any]() backend.Response[Data[T]] {
	return backend.NotImplemented(setError[T])
}
