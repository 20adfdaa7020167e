// Package voicemail работает с голосовой почтой пользователя на бэкенде
// Webex Calling, Broadworks (XSI) или UCM (VMREST).
package voicemail

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"

	"github.com/arzzra/calling_client/pkg/backend"
	"github.com/arzzra/calling_client/pkg/logger"
	"github.com/arzzra/calling_client/pkg/metrics"
	"github.com/arzzra/calling_client/pkg/webapi"
)

const connectorName = "voicemail"

// Действия для метрик
const (
	ActionGetVoicemails = "getVoicemailList"
	ActionGetContent    = "getVoicemailContent"
	ActionGetSummary    = "getVoicemailSummary"
	ActionMarkRead      = "markAsRead"
	ActionMarkUnread    = "markAsUnread"
	ActionDelete        = "delete"
	ActionTranscript    = "getTranscript"
)

const (
	defaultListCacheSize = 8
	defaultListPageSize  = 20
)

type store interface {
	list(ctx context.Context) ([]Message, error)
	content(ctx context.Context, messageID string) (Content, error)
	summary(ctx context.Context) (Summary, error)
	markRead(ctx context.Context, messageID string, read bool) error
	delete(ctx context.Context, messageID string) error
	transcript(ctx context.Context, messageID string) (string, error)
}

// Config конфигурация клиента голосовой почты
type Config struct {
	Backend backend.Kind
	UserID  string

	// XSIEndpoint корень XSI actions для Webex Calling и Broadworks
	XSIEndpoint string
	// VMRESTEndpoint адрес сервера Unity Connection для UCM
	VMRESTEndpoint string

	// CacheSize количество закэшированных списков сообщений
	CacheSize int
}

// Validate проверяет конфигурацию для выбранного бэкенда
func (c *Config) Validate() error {
	switch c.Backend {
	case backend.KindWXC, backend.KindBWRKS:
		if c.XSIEndpoint == "" {
			return errors.New("voicemail: не указан адрес XSI")
		}
		if c.UserID == "" {
			return errors.New("voicemail: user id не указан")
		}
	case backend.KindUCM:
		if c.VMRESTEndpoint == "" {
			return errors.New("voicemail: не указан адрес VMREST")
		}
	default:
		return errors.Wrap(backend.ErrUnknownBackend, string(c.Backend))
	}
	if c.CacheSize < 0 {
		return errors.New("voicemail: размер кэша не может быть отрицательным")
	}
	return nil
}

// Option опция клиента
type Option func(*Client)

// WithMetrics подключает коллектор метрик
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger задает логгер
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Client голосовая почта пользователя. Бэкенд выбирается один раз при создании.
type Client struct {
	backend backend.Kind
	store   store
	// mu сериализует обновление кэша списка
	mu      sync.Mutex
	lists   *lru.Cache[Sort, []Message]
	metrics *metrics.Collector
	logger  *slog.Logger
}

// New создает клиент голосовой почты
func New(cfg Config, requester webapi.Requester, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if requester == nil {
		return nil, errors.New("voicemail: requester не указан")
	}
	size := cfg.CacheSize
	if size == 0 {
		size = defaultListCacheSize
	}
	lists, err := lru.New[Sort, []Message](size)
	if err != nil {
		return nil, errors.Wrap(err, "voicemail: кэш списка")
	}

	c := &Client{backend: cfg.Backend, lists: lists}
	switch cfg.Backend {
	case backend.KindUCM:
		c.store = &ucmStore{requester: requester, endpoint: cfg.VMRESTEndpoint}
	default:
		c.store = &xsiStore{requester: requester, endpoint: cfg.XSIEndpoint, userID: cfg.UserID}
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logger.OrDefault(c.logger).With("component", connectorName, "backend", string(cfg.Backend))
	return c, nil
}

// Backend выбранный бэкенд
func (c *Client) Backend() backend.Kind {
	return c.backend
}

// GetVoicemailList возвращает limit сообщений начиная с offset.
// Список берется из кэша, если refresh не выставлен.
func (c *Client) GetVoicemailList(ctx context.Context, offset, limit int, order Sort, refresh bool) backend.Response[Data] {
	if order != SortASC {
		order = SortDESC
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultListPageSize
	}

	page, more, err := c.page(ctx, order, refresh, offset, limit)
	if err != nil {
		return c.fail(ActionGetVoicemails, err)
	}
	return c.ok(ActionGetVoicemails, Data{VoicemailList: page, MoreAvailable: more})
}

// page копирует страницу закэшированного списка под c.mu
func (c *Client) page(ctx context.Context, order Sort, refresh bool, offset, limit int) ([]Message, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msgs, err := c.cachedListLocked(ctx, order, refresh)
	if err != nil {
		return nil, false, err
	}
	if offset > len(msgs) {
		offset = len(msgs)
	}
	end := offset + limit
	if end > len(msgs) {
		end = len(msgs)
	}
	return append([]Message(nil), msgs[offset:end]...), end < len(msgs), nil
}

// cachedListLocked возвращает список из кэша или загружает его. Вызывается под c.mu.
func (c *Client) cachedListLocked(ctx context.Context, order Sort, refresh bool) ([]Message, error) {
	if !refresh {
		if msgs, ok := c.lists.Get(order); ok {
			return msgs, nil
		}
	}

	msgs, err := c.store.list(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		if order == SortASC {
			return msgs[i].Time.Before(msgs[j].Time)
		}
		return msgs[i].Time.After(msgs[j].Time)
	})

	if refresh {
		c.lists.Purge()
	}
	c.lists.Add(order, msgs)
	c.logger.Debug("Client.cachedList refreshed", slog.Int("messages", len(msgs)), slog.String("sort", string(order)))
	return msgs, nil
}

// GetVoicemailContent возвращает содержимое сообщения
func (c *Client) GetVoicemailContent(ctx context.Context, messageID string) backend.Response[Data] {
	content, err := c.store.content(ctx, messageID)
	if err != nil {
		return c.fail(ActionGetContent, err)
	}
	return c.ok(ActionGetContent, Data{VoicemailContent: &content})
}

// GetVoicemailSummary возвращает количество новых и прочитанных сообщений
func (c *Client) GetVoicemailSummary(ctx context.Context) backend.Response[Data] {
	sum, err := c.store.summary(ctx)
	if err != nil {
		return c.fail(ActionGetSummary, err)
	}
	return c.ok(ActionGetSummary, Data{VoicemailSummary: &sum})
}

// MarkAsRead отмечает сообщение прочитанным
func (c *Client) MarkAsRead(ctx context.Context, messageID string) backend.Response[Data] {
	return c.mark(ctx, ActionMarkRead, messageID, true)
}

// MarkAsUnread отмечает сообщение непрочитанным
func (c *Client) MarkAsUnread(ctx context.Context, messageID string) backend.Response[Data] {
	return c.mark(ctx, ActionMarkUnread, messageID, false)
}

func (c *Client) mark(ctx context.Context, action, messageID string, read bool) backend.Response[Data] {
	if err := c.store.markRead(ctx, messageID, read); err != nil {
		return c.fail(action, err)
	}
	c.update(func(msgs []Message) []Message {
		out := append([]Message(nil), msgs...)
		for i := range out {
			if out[i].MessageID == messageID {
				out[i].Read = read
			}
		}
		return out
	})
	return c.ok(action, Data{})
}

// Delete удаляет сообщение
func (c *Client) Delete(ctx context.Context, messageID string) backend.Response[Data] {
	if err := c.store.delete(ctx, messageID); err != nil {
		return c.fail(ActionDelete, err)
	}
	c.update(func(msgs []Message) []Message {
		out := msgs[:0:0]
		for _, m := range msgs {
			if m.MessageID != messageID {
				out = append(out, m)
			}
		}
		return out
	})
	return c.ok(ActionDelete, Data{})
}

// GetTranscript возвращает расшифровку сообщения
func (c *Client) GetTranscript(ctx context.Context, messageID string) backend.Response[Data] {
	text, err := c.store.transcript(ctx, messageID)
	if err != nil {
		return c.fail(ActionTranscript, err)
	}
	return c.ok(ActionTranscript, Data{VoicemailTranscript: &text})
}

// update заменяет все закэшированные списки результатом fn.
// fn не должна менять переданный срез.
func (c *Client) update(fn func([]Message) []Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range c.lists.Keys() {
		if msgs, ok := c.lists.Peek(key); ok {
			c.lists.Add(key, fn(msgs))
		}
	}
}

func (c *Client) ok(action string, data Data) backend.Response[Data] {
	c.metrics.BackendRequest(connectorName, action, backend.Result(http.StatusOK))
	return backend.Success(data)
}

func (c *Client) fail(action string, err error) backend.Response[Data] {
	resp := backend.FailureFrom(err, setError)
	c.metrics.BackendRequest(connectorName, action, backend.Result(resp.StatusCode))
	c.logger.Warn("voicemail request failed",
		slog.String("action", action),
		slog.Int("status", resp.StatusCode),
		slog.Any("error", err))
	return resp
}
