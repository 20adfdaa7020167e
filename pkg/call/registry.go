package call

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/arzzra/calling_client/pkg/logger"
	"github.com/arzzra/calling_client/pkg/metrics"
	"github.com/arzzra/calling_client/pkg/webapi"
)

// ErrInvalidAddress адрес не прошел нормализацию
var ErrInvalidAddress = errors.New("call: недопустимый адрес назначения")

// Registry реестр вызовов линии по correlation id
type Registry struct {
	mu    sync.RWMutex
	calls map[string]*Call

	newID   func() string
	now     func() time.Time
	metrics *metrics.Collector
	logger  *slog.Logger
}

// RegistryOption опция реестра
type RegistryOption func(*Registry)

// WithMetrics подключает коллектор метрик
func WithMetrics(m *metrics.Collector) RegistryOption {
	return func(r *Registry) { r.metrics = m }
}

// WithLogger задает логгер
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

// WithIDGenerator задает генератор correlation id
func WithIDGenerator(gen func() string) RegistryOption {
	return func(r *Registry) { r.newID = gen }
}

// WithNow задает источник времени
func WithNow(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// NewRegistry создает пустой реестр
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		calls: make(map[string]*Call),
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logger.OrDefault(r.logger).With("component", "call_registry")
	return r
}

type createConfig struct {
	callID string
	caller CallerInfo
	now    time.Time
}

// CreateOption опция создания вызова
type CreateOption func(*createConfig)

// WithCallID задает серверный идентификатор вызова
func WithCallID(id string) CreateOption {
	return func(c *createConfig) { c.callID = id }
}

// WithCaller задает данные вызывающего абонента
func WithCaller(info CallerInfo) CreateOption {
	return func(c *createConfig) { c.caller = info }
}

// Create нормализует адрес и регистрирует новый вызов.
// Невалидный адрес возвращает *webapi.Error, вызов не создается.
func (r *Registry) Create(raw string, t Type, dir Direction, opts ...CreateOption) (*Call, error) {
	addr, ok := Normalize(raw, t)
	if !ok {
		r.logger.Debug("Registry.Create invalid address", slog.String("raw", raw), slog.String("type", string(t)))
		return nil, webapi.InvalidNumber(errors.Wrapf(ErrInvalidAddress, "%q", raw))
	}
	return r.Add(dir, addr, opts...), nil
}

// Add регистрирует вызов с уже нормализованным адресом
func (r *Registry) Add(dir Direction, dest Address, opts ...CreateOption) *Call {
	cfg := createConfig{now: r.now()}
	for _, opt := range opts {
		opt(&cfg)
	}

	r.mu.Lock()
	id := r.newID()
	for _, exists := r.calls[id]; exists; _, exists = r.calls[id] {
		id = r.newID()
	}
	c := newCall(id, dir, dest, cfg, r.ended, r.logger)
	r.calls[id] = c
	r.mu.Unlock()

	r.metrics.CallCreated(string(dir))
	r.logger.Info("call created",
		slog.String("correlation_id", id),
		slog.String("direction", string(dir)),
		slog.String("destination", dest.Address))
	return c
}

// Get возвращает вызов по correlation id
func (r *Registry) Get(id string) (*Call, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.calls[id]
	return c, ok
}

// FindByCallID ищет вызов по серверному идентификатору
func (r *Registry) FindByCallID(callID string) (*Call, bool) {
	if callID == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.calls {
		if c.CallID() == callID {
			return c, true
		}
	}
	return nil, false
}

// Remove удаляет вызов. Повторное удаление ничего не делает.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	_, ok := r.calls[id]
	delete(r.calls, id)
	r.mu.Unlock()

	if ok {
		r.metrics.CallRemoved()
		r.logger.Debug("Registry.Remove", slog.String("correlation_id", id))
	}
}

// List возвращает вызовы в порядке создания
func (r *Registry) List() []*Call {
	r.mu.RLock()
	out := make([]*Call, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c)
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].createdAt.Equal(out[j].createdAt) {
			return out[i].correlationID < out[j].correlationID
		}
		return out[i].createdAt.Before(out[j].createdAt)
	})
	return out
}

// Len количество вызовов
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.calls)
}

// EndAll завершает все вызовы
func (r *Registry) EndAll() {
	for _, c := range r.List() {
		c.End()
	}
}

func (r *Registry) ended(c *Call) {
	r.Remove(c.correlationID)
}
