package registration

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/arzzra/calling_client/pkg/mobius"
	"github.com/arzzra/calling_client/pkg/webapi"
)

// startKeepaliveLocked запускает keepalive активной регистрации.
// Тикер создается синхронно, чтобы первый интервал отсчитывался от момента регистрации.
func (m *Machine) startKeepaliveLocked(interval time.Duration) {
	ctx, cancel := context.WithCancel(m.life)
	task := &keepaliveTask{cancel: cancel, done: make(chan struct{})}
	ticker := m.clock.Ticker(interval)

	m.stateMu.Lock()
	m.keepalive = task
	deviceURI := m.deviceURI
	m.stateMu.Unlock()

	m.wg.Add(1)
	go m.runKeepalive(ctx, task, ticker, deviceURI)
}

// stopKeepaliveLocked отменяет текущий keepalive. Повторный вызов безопасен.
func (m *Machine) stopKeepaliveLocked() *keepaliveTask {
	m.stateMu.Lock()
	task := m.keepalive
	m.keepalive = nil
	m.stateMu.Unlock()

	if task != nil {
		task.cancel()
	}
	return task
}

func (m *Machine) currentKeepalive() *keepaliveTask {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.keepalive
}

func (m *Machine) runKeepalive(ctx context.Context, task *keepaliveTask, ticker *clock.Ticker, deviceURI string) {
	defer m.wg.Done()
	defer close(task.done)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !m.keepaliveTick(ctx, task, deviceURI) {
				return
			}
		}
	}
}

// keepaliveTick отправляет один keepalive. Возвращает false, если задача должна завершиться.
func (m *Machine) keepaliveTick(ctx context.Context, task *keepaliveTask, deviceURI string) bool {
	if err := m.mu.Acquire(ctx, 1); err != nil {
		return false
	}
	if ctx.Err() != nil || m.currentKeepalive() != task {
		m.mu.Release(1)
		return false
	}

	_, err := m.requester.Do(ctx, webapi.Request{
		Method: http.MethodPost,
		URI:    mobius.StatusURL(deviceURI),
	})
	if err == nil {
		m.mu.Release(1)
		m.logger.Debug("Machine.keepalive ok", slog.String("device_uri", deviceURI))
		return true
	}
	if ctx.Err() != nil {
		m.mu.Release(1)
		return false
	}

	apiErr := webapi.Classify(err)
	m.metrics.KeepaliveFailure(apiErr.Kind.String())
	m.logger.Warn("keepalive failed",
		slog.String("device_uri", deviceURI),
		slog.Int("status", apiErr.StatusCode),
		slog.String("kind", apiErr.Kind.String()),
		slog.Any("error", err))

	// текущая задача завершается в любом случае
	m.stopKeepaliveLocked()
	m.clearLocked()

	if !apiErr.Retryable() {
		m.event(m.life, eventFail)
		m.mu.Release(1)
		m.notify(Notification{Kind: Failed, Err: apiErr})
		return false
	}

	// повторная регистрация с первого основного сервера
	m.event(m.life, eventActivate)
	n, _ := m.attemptLocked(m.life)
	m.mu.Release(1)
	m.notify(n)
	return false
}
