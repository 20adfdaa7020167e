package callhistory

import (
	"log/slog"
	"sync"
)

// SessionInfo сессии в событии Mobius
type SessionInfo struct {
	StatusCode   int           `json:"statusCode,omitempty"`
	UserSessions []UserSession `json:"userSessions"`
}

// SessionEvent событие с информацией о сессиях пользователя
type SessionEvent struct {
	ID   string `json:"id"`
	Data struct {
		UserSessions SessionInfo `json:"userSessions"`
	} `json:"data"`
	Timestamp  int64  `json:"timestamp,omitempty"`
	TrackingID string `json:"trackingId,omitempty"`
}

type sessionBroker struct {
	mu     sync.RWMutex
	subs   map[int]chan SessionEvent
	next   int
	closed bool
}

func (b *sessionBroker) subscribe(buffer int) (<-chan SessionEvent, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan SessionEvent, buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	if b.subs == nil {
		b.subs = make(map[int]chan SessionEvent)
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

// publish возвращает количество подписчиков, для которых событие отброшено
func (b *sessionBroker) publish(ev SessionEvent) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	dropped := 0
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			dropped++
		}
	}
	return dropped
}

func (b *sessionBroker) close() {
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

// SubscribeSessions подписывает на события сессий пользователя.
// Если буфер подписчика заполнен, событие для него отбрасывается.
func (h *Client) SubscribeSessions(buffer int) (<-chan SessionEvent, func()) {
	return h.sessions.subscribe(buffer)
}

// HandleSessionEvent рассылает подписчикам событие сессий.
// События без сессий игнорируются, возвращается false.
func (h *Client) HandleSessionEvent(ev SessionEvent) bool {
	if len(ev.Data.UserSessions.UserSessions) == 0 {
		h.logger.Debug("Client.HandleSessionEvent empty", slog.String("id", ev.ID))
		return false
	}
	if dropped := h.sessions.publish(ev); dropped > 0 {
		h.logger.Warn("session event dropped for slow subscribers",
			slog.String("id", ev.ID),
			slog.Int("subscribers", dropped))
	}
	return true
}

// Close закрывает каналы подписчиков
func (h *Client) Close() {
	h.sessions.close()
}
