// Package call содержит нормализацию адресов, сессию вызова и реестр вызовов линии.
package call

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"github.com/pkg/errors"
)

// Direction направление вызова
type Direction string

const (
	DirectionInbound  Direction = "INBOUND"
	DirectionOutbound Direction = "OUTBOUND"
)

// State состояние вызова
type State string

const (
	StateIdle       State = "IDLE"
	StateConnecting State = "CONNECTING"
	StateConnected  State = "CONNECTED"
	StateEnded      State = "ENDED"
)

const (
	eventProgress = "progress"
	eventConnect  = "connect"
	eventEnd      = "end"
)

// ErrCallEnded операция над завершенным вызовом
var ErrCallEnded = errors.New("call: вызов завершен")

// Call сессия вызова на линии.
// CorrelationID, Direction и Destination не меняются после создания.
type Call struct {
	correlationID string
	direction     Direction
	destination   Address
	createdAt     time.Time

	mu     sync.RWMutex
	callID string
	caller CallerInfo

	fsm    *fsm.FSM
	onEnd  func(*Call)
	logger *slog.Logger
}

func newCall(id string, dir Direction, dest Address, cfg createConfig, onEnd func(*Call), logger *slog.Logger) *Call {
	c := &Call{
		correlationID: id,
		direction:     dir,
		destination:   dest,
		createdAt:     cfg.now,
		callID:        cfg.callID,
		caller:        cfg.caller,
		onEnd:         onEnd,
		logger:        logger.With(slog.String("correlation_id", id)),
	}

	c.fsm = fsm.NewFSM(
		string(StateIdle),
		fsm.Events{
			{Name: eventProgress, Src: []string{string(StateIdle)}, Dst: string(StateConnecting)},
			{Name: eventConnect, Src: []string{string(StateIdle), string(StateConnecting)}, Dst: string(StateConnected)},
			{Name: eventEnd, Src: []string{string(StateIdle), string(StateConnecting), string(StateConnected)}, Dst: string(StateEnded)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				c.logger.Debug("Call.transition",
					slog.String("event", e.Event),
					slog.String("from", e.Src),
					slog.String("to", e.Dst))
			},
		},
	)
	return c
}

func (c *Call) CorrelationID() string { return c.correlationID }

func (c *Call) Direction() Direction { return c.direction }

func (c *Call) Destination() Address { return c.destination }

func (c *Call) CreatedAt() time.Time { return c.createdAt }

// State текущее состояние вызова
func (c *Call) State() State {
	return State(c.fsm.Current())
}

// CallID идентификатор вызова на сервере
func (c *Call) CallID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.callID
}

// SetCallID сохраняет идентификатор вызова, выданный сервером
func (c *Call) SetCallID(id string) {
	c.mu.Lock()
	c.callID = id
	c.mu.Unlock()
}

// Caller данные вызывающего абонента (для входящих)
func (c *Call) Caller() CallerInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.caller
}

// Progress переводит вызов в CONNECTING
func (c *Call) Progress(ctx context.Context) error {
	return c.event(ctx, eventProgress)
}

// Connect переводит вызов в CONNECTED
func (c *Call) Connect(ctx context.Context) error {
	return c.event(ctx, eventConnect)
}

// End завершает вызов из любого состояния и удаляет его из реестра.
// Повторный вызов ничего не делает.
func (c *Call) End() {
	if err := c.fsm.Event(context.Background(), eventEnd); err != nil {
		return
	}
	if c.onEnd != nil {
		c.onEnd(c)
	}
}

func (c *Call) event(ctx context.Context, name string) error {
	if c.State() == StateEnded {
		return ErrCallEnded
	}
	err := c.fsm.Event(ctx, name)
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return nil
	}
	return errors.Wrapf(err, "call %s: %s", c.correlationID, name)
}

// Info снимок состояния вызова
type Info struct {
	CorrelationID string     `json:"correlationId"`
	CallID        string     `json:"callId,omitempty"`
	Direction     Direction  `json:"direction"`
	Destination   Address    `json:"destination"`
	State         State      `json:"state"`
	Caller        CallerInfo `json:"caller,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Info возвращает снимок состояния
func (c *Call) Info() Info {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Info{
		CorrelationID: c.correlationID,
		CallID:        c.callID,
		Direction:     c.direction,
		Destination:   c.destination,
		State:         c.State(),
		Caller:        c.caller,
		CreatedAt:     c.createdAt,
	}
}
