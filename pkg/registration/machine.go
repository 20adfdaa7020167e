// Package registration регистрирует устройство линии на серверах Mobius,
// переключается между основными и резервными серверами и поддерживает
// регистрацию keepalive запросами.
package registration

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/looplab/fsm"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/semaphore"

	"github.com/arzzra/calling_client/pkg/logger"
	"github.com/arzzra/calling_client/pkg/metrics"
	"github.com/arzzra/calling_client/pkg/mobius"
	"github.com/arzzra/calling_client/pkg/webapi"
)

// Status состояние регистрации
type Status string

const (
	StatusDefault     Status = "DEFAULT"
	StatusActivating  Status = "ACTIVATING"
	StatusActive      Status = "ACTIVE"
	StatusFailed      Status = "FAILED"
	StatusDeactivated Status = "DEACTIVATED"
)

var allStatuses = []string{
	string(StatusDefault),
	string(StatusActivating),
	string(StatusActive),
	string(StatusFailed),
	string(StatusDeactivated),
}

const (
	eventActivate   = "activate"
	eventActivated  = "activated"
	eventFail       = "fail"
	eventReset      = "reset"
	eventDeactivate = "deactivate"
)

var (
	// ErrDeactivated линия закрыта и больше не регистрируется
	ErrDeactivated = errors.New("registration: линия деактивирована")
	// ErrMalformedResponse сервер вернул 2xx без данных устройства
	ErrMalformedResponse = errors.New("registration: в ответе нет данных устройства")
)

// NewMutex создает мьютекс регистрации.
// Один мьютекс может разделяться линиями одной пользовательской сессии.
func NewMutex() *semaphore.Weighted {
	return semaphore.NewWeighted(1)
}

// NotificationKind тип уведомления машины
type NotificationKind int

const (
	Registered NotificationKind = iota
	Unregistered
	Failed
)

// Notification уведомление об изменении регистрации
type Notification struct {
	Kind     NotificationKind
	Server   string
	DeviceID string
	Err      *webapi.Error
}

// Option опция машины
type Option func(*Machine)

// WithClock задает часы для keepalive
func WithClock(c clock.Clock) Option {
	return func(m *Machine) { m.clock = c }
}

// WithMetrics подключает коллектор метрик
func WithMetrics(c *metrics.Collector) Option {
	return func(m *Machine) { m.metrics = c }
}

// WithLogger задает логгер
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// WithNotify задает обработчик уведомлений. Вызывается без удержания мьютекса.
func WithNotify(fn func(Notification)) Option {
	return func(m *Machine) { m.notify = fn }
}

type keepaliveTask struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Machine машина состояний регистрации устройства.
//
// Попытки регистрации, keepalive и удаление регистрации сериализуются
// на внешнем мьютексе: одновременно выполняется не больше одной попытки.
type Machine struct {
	cfg       Config
	mu        *semaphore.Weighted
	requester webapi.Requester
	clock     clock.Clock
	metrics   *metrics.Collector
	logger    *slog.Logger
	notify    func(Notification)

	fsm *fsm.FSM

	stateMu   sync.RWMutex
	server    string
	deviceID  string
	deviceURI string
	interval  time.Duration
	keepalive *keepaliveTask

	life      context.Context
	lifeStop  context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New создает машину в состоянии DEFAULT
func New(cfg Config, mu *semaphore.Weighted, requester webapi.Requester, opts ...Option) (*Machine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "registration: конфигурация")
	}
	if mu == nil {
		return nil, errors.New("registration: мьютекс не указан")
	}
	if requester == nil {
		return nil, errors.New("registration: requester не указан")
	}

	m := &Machine{
		cfg:       cfg,
		mu:        mu,
		requester: requester,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.clock == nil {
		m.clock = clock.New()
	}
	if m.notify == nil {
		m.notify = func(Notification) {}
	}
	m.logger = logger.OrDefault(m.logger).With("component", "registration", "line_id", cfg.LineID)
	m.life, m.lifeStop = context.WithCancel(context.Background())

	m.fsm = fsm.NewFSM(
		string(StatusDefault),
		fsm.Events{
			{Name: eventActivate, Src: []string{string(StatusDefault), string(StatusFailed), string(StatusActive)}, Dst: string(StatusActivating)},
			{Name: eventActivated, Src: []string{string(StatusActivating)}, Dst: string(StatusActive)},
			{Name: eventFail, Src: []string{string(StatusActivating), string(StatusActive)}, Dst: string(StatusFailed)},
			{Name: eventReset, Src: []string{string(StatusActivating), string(StatusActive), string(StatusFailed)}, Dst: string(StatusDefault)},
			{Name: eventDeactivate, Src: []string{string(StatusDefault), string(StatusActivating), string(StatusActive), string(StatusFailed)}, Dst: string(StatusDeactivated)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				m.logger.Debug("Machine.transition",
					slog.String("event", e.Event),
					slog.String("from", e.Src),
					slog.String("to", e.Dst))
				m.metrics.RegistrationState(m.cfg.LineID, allStatuses, e.Dst)
			},
		},
	)
	m.metrics.RegistrationState(cfg.LineID, allStatuses, string(StatusDefault))

	return m, nil
}

// Status текущее состояние
func (m *Machine) Status() Status {
	return Status(m.fsm.Current())
}

// ActiveServer адрес сервера, на котором зарегистрировано устройство.
// Пустой, если состояние не ACTIVE.
func (m *Machine) ActiveServer() string {
	if m.Status() != StatusActive {
		return ""
	}
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.server
}

// DeviceID идентификатор устройства, выданный сервером
func (m *Machine) DeviceID() string {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.deviceID
}

// DeviceURI адрес зарегистрированного устройства
func (m *Machine) DeviceURI() string {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.deviceURI
}

// KeepaliveInterval интервал keepalive активной регистрации
func (m *Machine) KeepaliveInterval() time.Duration {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.interval
}

// Register регистрирует устройство, перебирая серверы по порядку.
// Если устройство уже зарегистрировано, запрос не отправляется.
func (m *Machine) Register(ctx context.Context) error {
	if m.Status() == StatusDeactivated {
		return ErrDeactivated
	}
	if err := m.mu.Acquire(ctx, 1); err != nil {
		return webapi.Classify(errors.Wrap(err, "registration: ожидание мьютекса"))
	}

	if m.Status() == StatusDeactivated {
		m.mu.Release(1)
		return ErrDeactivated
	}
	if m.Status() == StatusActive {
		m.mu.Release(1)
		m.logger.Debug("Machine.Register already active", slog.String("server", m.ActiveServer()))
		return nil
	}

	n, apiErr := m.attemptLocked(ctx)
	m.mu.Release(1)

	m.notify(n)
	if apiErr != nil {
		return apiErr
	}
	return nil
}

// attemptLocked перебирает серверы. Вызывается под мьютексом.
func (m *Machine) attemptLocked(ctx context.Context) (Notification, *webapi.Error) {
	if m.Status() != StatusActivating {
		m.event(ctx, eventActivate)
	}

	var errs error
	for _, server := range m.cfg.Servers() {
		m.logger.Debug("Machine.attempt", slog.String("server", server))

		info, err := m.sendRegister(ctx, server)
		if err == nil {
			m.activateLocked(ctx, server, info)
			m.metrics.RegistrationAttempt(server, "success")
			m.logger.Info("device registered",
				slog.String("server", server),
				slog.String("device_id", info.Device.DeviceID),
				slog.Duration("keepalive", m.KeepaliveInterval()))
			return Notification{Kind: Registered, Server: server, DeviceID: info.Device.DeviceID}, nil
		}

		apiErr := webapi.Classify(err)
		m.metrics.RegistrationAttempt(server, apiErr.Kind.String())
		m.logger.Warn("device registration failed",
			slog.String("server", server),
			slog.Int("status", apiErr.StatusCode),
			slog.String("kind", apiErr.Kind.String()),
			slog.Any("error", err))

		if !apiErr.Retryable() {
			m.event(ctx, eventFail)
			return Notification{Kind: Failed, Server: server, Err: apiErr}, apiErr
		}
		errs = multierr.Append(errs, errors.Wrap(err, server))
	}

	apiErr := webapi.NewError(http.StatusServiceUnavailable, webapi.MsgServiceUnavailable, webapi.KindRetryable, errs)
	m.event(ctx, eventFail)
	m.logger.Error("all mobius servers failed", slog.Int("servers", len(multierr.Errors(errs))))
	return Notification{Kind: Failed, Err: apiErr}, apiErr
}

func (m *Machine) sendRegister(ctx context.Context, server string) (mobius.DeviceInfo, error) {
	resp, err := m.requester.Do(ctx, webapi.Request{
		Method: http.MethodPost,
		URI:    mobius.DeviceURL(server),
		Body:   mobius.NewDeviceRequest(m.cfg.UserID, m.cfg.ClientDeviceURI, m.cfg.ServiceDomain),
	})
	if err != nil {
		return mobius.DeviceInfo{}, err
	}

	var info mobius.DeviceInfo
	if err := resp.Decode(&info); err != nil {
		return mobius.DeviceInfo{}, errors.Wrap(ErrMalformedResponse, err.Error())
	}
	if info.Device == nil || info.Device.DeviceID == "" {
		return mobius.DeviceInfo{}, ErrMalformedResponse
	}
	return info, nil
}

func (m *Machine) activateLocked(ctx context.Context, server string, info mobius.DeviceInfo) {
	interval := time.Duration(info.Keepalive(m.cfg.keepaliveSeconds())) * time.Second

	m.stateMu.Lock()
	m.server = server
	m.deviceID = info.Device.DeviceID
	m.deviceURI = info.Device.URI
	m.interval = interval
	m.stateMu.Unlock()

	m.event(ctx, eventActivated)
	m.startKeepaliveLocked(interval)
}

// Deregister удаляет регистрацию и возвращает машину в DEFAULT.
// Ошибка удаления на сервере только логируется.
func (m *Machine) Deregister(ctx context.Context) error {
	if err := m.mu.Acquire(ctx, 1); err != nil {
		return webapi.Classify(errors.Wrap(err, "registration: ожидание мьютекса"))
	}

	prev := m.Status()
	d := m.deregisterLocked(ctx)
	if prev != StatusDefault && prev != StatusDeactivated {
		m.event(ctx, eventReset)
	}
	m.mu.Release(1)

	m.finishDeregister(d)
	return nil
}

// deregistration результат удаления регистрации под мьютексом
type deregistration struct {
	task     *keepaliveTask
	server   string
	deviceID string
}

// deregisterLocked останавливает keepalive и удаляет устройство на сервере.
// Вызывается под мьютексом.
func (m *Machine) deregisterLocked(ctx context.Context) deregistration {
	d := deregistration{task: m.stopKeepaliveLocked()}

	m.stateMu.RLock()
	d.server, d.deviceID = m.server, m.deviceID
	m.stateMu.RUnlock()

	if d.server != "" && d.deviceID != "" {
		_, err := m.requester.Do(ctx, webapi.Request{
			Method: http.MethodDelete,
			URI:    mobius.DeviceDeleteURL(d.server, d.deviceID),
		})
		if err != nil {
			m.logger.Warn("device deregistration failed",
				slog.String("server", d.server),
				slog.String("device_id", d.deviceID),
				slog.Any("error", err))
		}
	}

	m.clearLocked()
	return d
}

// finishDeregister ждет завершения keepalive и уведомляет об удалении.
// Вызывается без мьютекса. Уведомление отправляется, только если устройство было зарегистрировано.
func (m *Machine) finishDeregister(d deregistration) {
	if d.task != nil {
		<-d.task.done
	}
	if d.deviceID == "" {
		return
	}
	m.logger.Info("device unregistered", slog.String("server", d.server), slog.String("device_id", d.deviceID))
	m.notify(Notification{Kind: Unregistered, Server: d.server, DeviceID: d.deviceID})
}

// Close удаляет регистрацию и переводит машину в DEACTIVATED.
// Удаление и переход выполняются под одним захватом мьютекса,
// поэтому ожидающий и последующие Register получают ErrDeactivated.
func (m *Machine) Close() error {
	var err error
	m.closeOnce.Do(func() {
		m.lifeStop()

		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.DeregisterTimeout)
		defer cancel()

		if err = m.mu.Acquire(ctx, 1); err != nil {
			err = webapi.Classify(errors.Wrap(err, "registration: ожидание мьютекса"))
			return
		}
		d := m.deregisterLocked(ctx)
		m.event(ctx, eventDeactivate)
		m.mu.Release(1)

		m.finishDeregister(d)
		m.wg.Wait()
	})
	return err
}

func (m *Machine) clearLocked() {
	m.stateMu.Lock()
	m.server = ""
	m.deviceID = ""
	m.deviceURI = ""
	m.interval = 0
	m.stateMu.Unlock()
}

func (m *Machine) event(ctx context.Context, name string) {
	if ctx.Err() != nil {
		// переход состояния не должен зависеть от отмены запроса
		ctx = context.WithoutCancel(ctx)
	}
	err := m.fsm.Event(ctx, name)
	var noTransition fsm.NoTransitionError
	if err != nil && !errors.As(err, &noTransition) {
		m.logger.Error("Machine.event", slog.String("event", name), slog.String("state", m.fsm.Current()), slog.Any("error", err))
	}
}
