// Package line объединяет регистрацию устройства и вызовы одной линии пользователя.
//
// Пример:
//
//	mu := registration.NewMutex()
//	l, err := line.New(cfg, mu, line.WithRequester(requester))
//	if err != nil {
//		return err
//	}
//	defer l.Close()
//
//	events, unsubscribe := l.Subscribe(16)
//	defer unsubscribe()
//
//	if err := l.Register(ctx); err != nil {
//		return err
//	}
//	c, err := l.MakeCall("+1 555 010 0000", call.TypeURI)
package line

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/arzzra/calling_client/pkg/call"
	"github.com/arzzra/calling_client/pkg/logger"
	"github.com/arzzra/calling_client/pkg/metrics"
	"github.com/arzzra/calling_client/pkg/mobius"
	"github.com/arzzra/calling_client/pkg/registration"
	"github.com/arzzra/calling_client/pkg/webapi"
)

var (
	// ErrCallNotFound событие относится к неизвестному вызову
	ErrCallNotFound = errors.New("line: вызов не найден")
	// ErrForeignDevice событие адресовано другому устройству
	ErrForeignDevice = errors.New("line: событие другого устройства")
)

type options struct {
	requester webapi.Requester
	clock     clock.Clock
	metrics   *metrics.Collector
	logger    *slog.Logger
}

// Option опция линии
type Option func(*options)

// WithRequester задает функцию запросов к серверам
func WithRequester(r webapi.Requester) Option {
	return func(o *options) { o.requester = r }
}

// WithClock задает часы для keepalive
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithMetrics подключает коллектор метрик
func WithMetrics(m *metrics.Collector) Option {
	return func(o *options) { o.metrics = m }
}

// WithLogger задает логгер. По умолчанию JSON в stderr с уровнем из Config.LogLevel.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Line линия пользователя
type Line struct {
	id      string
	cfg     Config
	machine *registration.Machine
	calls   *call.Registry
	events  *broker
	metrics *metrics.Collector
	logger  *slog.Logger
}

// New создает линию в состоянии DEFAULT.
// mu сериализует регистрацию и может разделяться линиями одной сессии.
func New(cfg Config, mu *semaphore.Weighted, opts ...Option) (*Line, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "line: конфигурация")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = logger.LevelError
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.requester == nil {
		return nil, errors.New("line: requester не указан")
	}
	if o.logger == nil {
		o.logger = logger.New(os.Stderr, cfg.LogLevel)
	}

	l := &Line{
		id:      uuid.NewString(),
		cfg:     cfg,
		metrics: o.metrics,
	}
	l.logger = o.logger.With("component", "line", "line_id", l.id)
	l.events = newBroker(l.logger)
	l.calls = call.NewRegistry(
		call.WithMetrics(o.metrics),
		call.WithLogger(o.logger.With("line_id", l.id)),
	)

	regCfg := registration.DefaultConfig()
	regCfg.LineID = l.id
	regCfg.UserID = cfg.UserID
	regCfg.ClientDeviceURI = cfg.DeviceURI
	regCfg.ServiceDomain = cfg.ServiceDomain
	regCfg.PrimaryServers = mobius.ServerURLs(cfg.PrimaryServers)
	regCfg.BackupServers = mobius.ServerURLs(cfg.BackupServers)
	if cfg.DefaultKeepalive > 0 {
		regCfg.DefaultKeepalive = cfg.DefaultKeepalive
	}

	regOpts := []registration.Option{
		registration.WithMetrics(o.metrics),
		registration.WithLogger(o.logger),
		registration.WithNotify(l.onRegistration),
	}
	if o.clock != nil {
		regOpts = append(regOpts, registration.WithClock(o.clock))
	}

	machine, err := registration.New(regCfg, mu, o.requester, regOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "line")
	}
	l.machine = machine

	l.logger.Debug("Line.New",
		slog.String("user_id", cfg.UserID),
		slog.Int("primary", len(regCfg.PrimaryServers)),
		slog.Int("backup", len(regCfg.BackupServers)))
	return l, nil
}

func (l *Line) LineID() string { return l.id }

func (l *Line) UserID() string { return l.cfg.UserID }

func (l *Line) DeviceURI() string { return l.cfg.DeviceURI }

func (l *Line) Status() ProvisioningStatus { return l.cfg.Status }

func (l *Line) LogLevel() logger.Level { return l.cfg.LogLevel }

// RegistrationStatus текущее состояние регистрации
func (l *Line) RegistrationStatus() registration.Status {
	return l.machine.Status()
}

// ActiveServerURL адрес сервера активной регистрации, пустой вне ACTIVE
func (l *Line) ActiveServerURL() string {
	return l.machine.ActiveServer()
}

// DeviceID идентификатор устройства, выданный сервером
func (l *Line) DeviceID() string {
	return l.machine.DeviceID()
}

// Register регистрирует линию на серверах Mobius
func (l *Line) Register(ctx context.Context) error {
	l.logger.Info("registering line")
	return l.machine.Register(ctx)
}

// Deregister удаляет регистрацию линии
func (l *Line) Deregister(ctx context.Context) error {
	l.logger.Info("deregistering line")
	return l.machine.Deregister(ctx)
}

// Close удаляет регистрацию, завершает вызовы и закрывает каналы подписчиков
func (l *Line) Close() error {
	err := l.machine.Close()
	l.calls.EndAll()
	l.events.close()
	l.metrics.ForgetLine(l.id)
	return err
}

// Subscribe подписывает на события линии.
// Если буфер подписчика заполнен, событие для него отбрасывается.
func (l *Line) Subscribe(buffer int) (<-chan Event, func()) {
	return l.events.subscribe(buffer)
}

// MakeCall создает исходящий вызов.
// Невалидный номер публикует одно событие EventError и возвращает *webapi.Error.
func (l *Line) MakeCall(raw string, t call.Type) (*call.Call, error) {
	c, err := l.calls.Create(raw, t, call.DirectionOutbound)
	if err != nil {
		apiErr := webapi.Classify(err)
		l.logger.Warn("make call failed", slog.String("destination", raw), slog.Any("error", err))
		l.publish(Event{Type: EventError, Err: apiErr})
		return nil, apiErr
	}
	return c, nil
}

// GetCall возвращает вызов по correlation id
func (l *Line) GetCall(correlationID string) (*call.Call, bool) {
	return l.calls.Get(correlationID)
}

// Calls возвращает вызовы линии в порядке создания
func (l *Line) Calls() []*call.Call {
	return l.calls.List()
}

// HandleCallEvent применяет событие вызова от Mobius.
// Входящий вызов с неизвестным идентификатором создается и публикуется как EventIncomingCall.
func (l *Line) HandleCallEvent(ctx context.Context, ev mobius.CallEvent) error {
	data := ev.Data
	if deviceID := l.DeviceID(); data.DeviceID != "" && deviceID != "" && data.DeviceID != deviceID {
		l.logger.Debug("Line.HandleCallEvent foreign device", slog.String("device_id", data.DeviceID))
		return ErrForeignDevice
	}

	c, found := l.findCall(data)

	if data.EventType == mobius.EventCallSetup {
		if found {
			c.SetCallID(data.CallID)
			return nil
		}
		c = l.incomingCall(data)
		l.publish(Event{Type: EventIncomingCall, Call: c})
		return nil
	}

	if !found {
		l.logger.Debug("Line.HandleCallEvent unknown call",
			slog.String("event", string(data.EventType)),
			slog.String("call_id", data.CallID))
		return errors.Wrap(ErrCallNotFound, data.CallID)
	}
	if data.CallID != "" && c.CallID() == "" {
		c.SetCallID(data.CallID)
	}

	switch data.EventType {
	case mobius.EventCallProgress:
		return c.Progress(ctx)
	case mobius.EventCallConnected:
		return c.Connect(ctx)
	case mobius.EventCallDisconnected:
		c.End()
	}
	return nil
}

func (l *Line) findCall(data mobius.CallData) (*call.Call, bool) {
	if data.CorrelationID != "" {
		if c, ok := l.calls.Get(data.CorrelationID); ok {
			return c, true
		}
	}
	return l.calls.FindByCallID(data.CallID)
}

func (l *Line) incomingCall(data mobius.CallData) *call.Call {
	var caller call.CallerInfo
	if data.CallerID != nil {
		caller = call.ParseCallerInfo(data.CallerID.PAssertedIdentity)
		if caller.Empty() {
			caller = call.ParseCallerInfo(data.CallerID.From)
		}
	}

	dest, ok := call.Normalize(caller.Number, call.TypeTel)
	if !ok {
		dest = call.Address{Type: call.TypeURI, Address: caller.URI}
	}

	c := l.calls.Add(call.DirectionInbound, dest, call.WithCallID(data.CallID), call.WithCaller(caller))
	l.logger.Info("incoming call",
		slog.String("correlation_id", c.CorrelationID()),
		slog.String("call_id", data.CallID),
		slog.String("caller", caller.Number))
	return c
}

func (l *Line) onRegistration(n registration.Notification) {
	switch n.Kind {
	case registration.Registered:
		l.publish(Event{Type: EventRegistered, Server: n.Server, DeviceID: n.DeviceID})
	case registration.Unregistered:
		l.publish(Event{Type: EventUnregistered, Server: n.Server, DeviceID: n.DeviceID})
	case registration.Failed:
		l.publish(Event{Type: EventError, Server: n.Server, Err: n.Err})
	}
}

func (l *Line) publish(ev Event) {
	ev.LineID = l.id
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	l.events.publish(ev)
}
