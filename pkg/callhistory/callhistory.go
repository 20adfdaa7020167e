// Package callhistory получает историю вызовов пользователя из Janus.
package callhistory

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/arzzra/calling_client/pkg/backend"
	"github.com/arzzra/calling_client/pkg/logger"
	"github.com/arzzra/calling_client/pkg/metrics"
	"github.com/arzzra/calling_client/pkg/webapi"
)

const (
	connectorName = "callhistory"
	actionGet     = "getCallHistoryData"

	// DefaultDays глубина истории по умолчанию
	DefaultDays = 10
	// DefaultLimit количество записей по умолчанию
	DefaultLimit = 50
)

// Option опция клиента
type Option func(*Client)

// WithClock задает часы для расчета начала периода
func WithClock(c clock.Clock) Option {
	return func(h *Client) { h.clock = c }
}

// WithMetrics подключает коллектор метрик
func WithMetrics(m *metrics.Collector) Option {
	return func(h *Client) { h.metrics = m }
}

// WithLogger задает логгер
func WithLogger(l *slog.Logger) Option {
	return func(h *Client) { h.logger = l }
}

// Client клиент истории вызовов
type Client struct {
	janusURL  string
	requester webapi.Requester
	clock     clock.Clock
	metrics   *metrics.Collector
	logger    *slog.Logger
	sessions  sessionBroker
}

// New создает клиент. janusURL корень сервиса Janus.
func New(janusURL string, requester webapi.Requester, opts ...Option) (*Client, error) {
	if janusURL == "" {
		return nil, errors.New("callhistory: не указан адрес janus")
	}
	if requester == nil {
		return nil, errors.New("callhistory: requester не указан")
	}
	h := &Client{
		janusURL:  strings.TrimSuffix(janusURL, "/"),
		requester: requester,
		clock:     clock.New(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = logger.OrDefault(h.logger).With("component", connectorName)
	return h, nil
}

type janusResponse struct {
	UserSessions []UserSession `json:"userSessions"`
}

// GetCallHistoryData возвращает сессии за последние days дней.
// Нулевые и отрицательные days и limit заменяются значениями по умолчанию.
// При сортировке по времени начала записи дополнительно упорядочиваются локально.
func (h *Client) GetCallHistoryData(ctx context.Context, days, limit int, order Sort, sortBy SortBy) backend.Response[Data] {
	if days <= 0 {
		days = DefaultDays
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if order != SortASC {
		order = SortDESC
	}
	if sortBy != SortByStartTime {
		sortBy = SortByEndTime
	}

	from := h.clock.Now().UTC().AddDate(0, 0, -days)
	uri := h.historyURL(from, limit, order)
	h.logger.Debug("Client.GetCallHistoryData",
		slog.String("uri", uri),
		slog.String("sort", string(order)),
		slog.String("sort_by", string(sortBy)))

	resp, err := h.requester.Do(ctx, webapi.Request{Method: http.MethodGet, URI: uri})
	if err == nil {
		var body janusResponse
		if err = resp.Decode(&body); err == nil {
			if sortBy == SortByStartTime {
				sortByStart(body.UserSessions, order)
			}
			h.metrics.BackendRequest(connectorName, actionGet, backend.Result(resp.StatusCode))
			return backend.Response[Data]{
				StatusCode: resp.StatusCode,
				Data:       Data{UserSessions: body.UserSessions},
				Message:    backend.MessageSuccess,
			}
		}
		err = errors.Wrap(err, "callhistory: разбор ответа janus")
	}

	out := backend.FailureFrom(err, setError)
	h.metrics.BackendRequest(connectorName, actionGet, backend.Result(out.StatusCode))
	h.logger.Warn("call history request failed", slog.Int("status", out.StatusCode), slog.Any("error", err))
	return out
}

func (h *Client) historyURL(from time.Time, limit int, order Sort) string {
	q := url.Values{}
	q.Set("from", from.Format("2006-01-02T15:04:05.000Z"))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("includeNewSessionTypes", "true")
	q.Set("sort", string(order))
	return h.janusURL + "/history/userSessions?" + q.Encode()
}

func sortByStart(sessions []UserSession, order Sort) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if order == SortASC {
			return sessions[i].StartTime.Before(sessions[j].StartTime)
		}
		return sessions[i].StartTime.After(sessions[j].StartTime)
	})
}
