package line

import (
	"log/slog"
	"sync"
	"time"

	"github.com/arzzra/calling_client/pkg/call"
	"github.com/arzzra/calling_client/pkg/webapi"
)

// EventType тип события линии
type EventType string

const (
	EventRegistered   EventType = "registered"
	EventUnregistered EventType = "unregistered"
	EventError        EventType = "error"
	EventIncomingCall EventType = "incoming_call"
)

// Event событие линии
type Event struct {
	Type     EventType
	LineID   string
	Server   string
	DeviceID string
	Call     *call.Call
	Err      *webapi.Error
	Time     time.Time
}

// broker рассылает события подписчикам без блокировки издателя
type broker struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	next   int
	closed bool
	logger *slog.Logger
}

func newBroker(l *slog.Logger) *broker {
	return &broker{subs: make(map[int]chan Event), logger: l}
}

func (b *broker) subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

func (b *broker) publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.Warn("event dropped for slow subscriber",
				slog.Int("subscriber", id),
				slog.String("event", string(ev.Type)))
		}
	}
}

func (b *broker) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
