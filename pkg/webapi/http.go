package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/arzzra/calling_client/pkg/auth"
	"github.com/arzzra/calling_client/pkg/logger"
)

const (
	HeaderTrackingID = "trackingid"
	HeaderDeviceURL  = "cisco-device-url"
	HeaderUserAgent  = "spark-user-agent"

	// TrackingIDPrefix префикс trackingid запросов клиента
	TrackingIDPrefix = "webex-calling_"

	defaultUserAgent = "webex-calling/go (web)"
)

// HTTPConfig конфигурация HTTPRequester
type HTTPConfig struct {
	// DeviceURI отправляется в заголовке cisco-device-url
	DeviceURI string
	UserAgent string
	Timeout   time.Duration
}

// DefaultHTTPConfig возвращает конфигурацию по умолчанию
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		UserAgent: defaultUserAgent,
		Timeout:   10 * time.Second,
	}
}

// HTTPRequester реализация Requester поверх net/http
type HTTPRequester struct {
	client *http.Client
	tokens auth.TokenSource
	cfg    HTTPConfig
	logger *slog.Logger
}

var _ Requester = (*HTTPRequester)(nil)

// NewHTTPRequester создает HTTPRequester. client может быть nil.
func NewHTTPRequester(cfg HTTPConfig, tokens auth.TokenSource, client *http.Client, l *slog.Logger) *HTTPRequester {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &HTTPRequester{
		client: client,
		tokens: tokens,
		cfg:    cfg,
		logger: logger.OrDefault(l).With("component", "webapi"),
	}
}

// Do выполняет запрос с общим конвертом заголовков
func (r *HTTPRequester) Do(ctx context.Context, req Request) (*Response, error) {
	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, errors.Wrap(err, "webapi: кодирование тела запроса")
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URI, body)
	if err != nil {
		return nil, errors.Wrap(err, "webapi: создание запроса")
	}

	if r.tokens != nil {
		token, err := r.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(HeaderTrackingID, TrackingIDPrefix+uuid.NewString())
	httpReq.Header.Set(HeaderUserAgent, r.cfg.UserAgent)
	if r.cfg.DeviceURI != "" {
		httpReq.Header.Set(HeaderDeviceURL, r.cfg.DeviceURI)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	r.logger.Debug("HTTPRequester.Do",
		slog.String("method", req.Method),
		slog.String("uri", req.URI),
		slog.String("trackingid", httpReq.Header.Get(HeaderTrackingID)))

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "webapi: %s %s", req.Method, req.URI)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "webapi: чтение тела ответа")
	}

	if !IsSuccess(resp.StatusCode) {
		r.logger.Debug("HTTPRequester.Do non-2xx",
			slog.String("uri", req.URI),
			slog.Int("status", resp.StatusCode))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: data, Header: resp.Header}
	}

	return &Response{StatusCode: resp.StatusCode, Body: data, Header: resp.Header}, nil
}

func encodeBody(req Request) (io.Reader, string, error) {
	switch b := req.Body.(type) {
	case nil:
		return nil, req.ContentType, nil
	case []byte:
		return bytes.NewReader(b), req.ContentType, nil
	case string:
		return bytes.NewReader([]byte(b)), req.ContentType, nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", err
		}
		ct := req.ContentType
		if ct == "" {
			ct = "application/json"
		}
		return bytes.NewReader(data), ct, nil
	}
}
