// Package metrics собирает Prometheus метрики линии, вызовов и коннекторов.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config конфигурация коллектора
type Config struct {
	// Namespace префикс для Prometheus метрик
	Namespace string
	// Registerer реестр метрик. nil означает, что метрики не регистрируются.
	Registerer prometheus.Registerer
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() Config {
	return Config{
		Namespace:  "calling",
		Registerer: prometheus.DefaultRegisterer,
	}
}

// Collector метрики клиента.
// Методы безопасны для вызова на nil *Collector.
type Collector struct {
	registrationAttempts *prometheus.CounterVec
	registrationState    *prometheus.GaugeVec
	keepaliveFailures    *prometheus.CounterVec
	callsCreated         *prometheus.CounterVec
	callsActive          prometheus.Gauge
	backendRequests      *prometheus.CounterVec
}

// New создает и регистрирует метрики
func New(cfg Config) *Collector {
	if cfg.Namespace == "" {
		cfg.Namespace = "calling"
	}
	factory := promauto.With(cfg.Registerer)

	return &Collector{
		registrationAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "registration",
			Name:      "attempts_total",
			Help:      "Попытки регистрации устройства по серверам",
		}, []string{"server", "result"}),
		registrationState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: "registration",
			Name:      "state",
			Help:      "Текущее состояние регистрации линии (1 для активного состояния)",
		}, []string{"line", "state"}),
		keepaliveFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "registration",
			Name:      "keepalive_failures_total",
			Help:      "Неудачные keepalive запросы",
		}, []string{"kind"}),
		callsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "calls",
			Name:      "created_total",
			Help:      "Созданные вызовы по направлению",
		}, []string{"direction"}),
		callsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: "calls",
			Name:      "active",
			Help:      "Количество вызовов в реестрах",
		}),
		backendRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Запросы коннекторов к бэкенду",
		}, []string{"connector", "action", "result"}),
	}
}

// RegistrationAttempt учитывает попытку регистрации на сервере
func (c *Collector) RegistrationAttempt(server, result string) {
	if c == nil {
		return
	}
	c.registrationAttempts.WithLabelValues(server, result).Inc()
}

// RegistrationState выставляет текущее состояние линии
func (c *Collector) RegistrationState(line string, states []string, current string) {
	if c == nil {
		return
	}
	for _, s := range states {
		v := 0.0
		if s == current {
			v = 1
		}
		c.registrationState.WithLabelValues(line, s).Set(v)
	}
}

// ForgetLine удаляет серии состояния линии
func (c *Collector) ForgetLine(line string) {
	if c == nil {
		return
	}
	c.registrationState.DeletePartialMatch(prometheus.Labels{"line": line})
}

// KeepaliveFailure учитывает неудачный keepalive
func (c *Collector) KeepaliveFailure(kind string) {
	if c == nil {
		return
	}
	c.keepaliveFailures.WithLabelValues(kind).Inc()
}

// CallCreated учитывает новый вызов
func (c *Collector) CallCreated(direction string) {
	if c == nil {
		return
	}
	c.callsCreated.WithLabelValues(direction).Inc()
	c.callsActive.Inc()
}

// CallRemoved уменьшает счетчик активных вызовов
func (c *Collector) CallRemoved() {
	if c == nil {
		return
	}
	c.callsActive.Dec()
}

// BackendRequest учитывает запрос коннектора
func (c *Collector) BackendRequest(connector, action, result string) {
	if c == nil {
		return
	}
	c.backendRequests.WithLabelValues(connector, action, result).Inc()
}
