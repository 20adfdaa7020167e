package registration

import (
	"fmt"
	"time"

	"github.com/arzzra/calling_client/pkg/mobius"
)

// Config конфигурация регистрации устройства
type Config struct {
	// LineID идентификатор линии для логов и метрик
	LineID string

	UserID          string
	ClientDeviceURI string
	ServiceDomain   string

	// PrimaryServers и BackupServers полные адреса серверов вида https://host/calling/web/.
	// Перебор идет сначала по основным, затем по резервным.
	PrimaryServers []string
	BackupServers  []string

	// DefaultKeepalive используется, если сервер не прислал keepaliveInterval
	DefaultKeepalive time.Duration

	// DeregisterTimeout ограничивает удаление регистрации при Close
	DeregisterTimeout time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() Config {
	return Config{
		DefaultKeepalive:  mobius.DefaultKeepaliveInterval * time.Second,
		DeregisterTimeout: 5 * time.Second,
	}
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("user id не указан")
	}
	if c.ClientDeviceURI == "" {
		return fmt.Errorf("client device uri не указан")
	}
	if len(c.PrimaryServers)+len(c.BackupServers) == 0 {
		return fmt.Errorf("не указан ни один сервер mobius")
	}
	for _, s := range c.Servers() {
		if !mobius.ValidServer(s) {
			return fmt.Errorf("некорректный адрес сервера mobius %q", s)
		}
	}
	if c.DefaultKeepalive < 0 {
		return fmt.Errorf("default keepalive не может быть отрицательным")
	}
	if c.DeregisterTimeout <= 0 {
		return fmt.Errorf("deregister timeout должен быть положительным")
	}
	return nil
}

// Servers список кандидатов в порядке перебора
func (c *Config) Servers() []string {
	out := make([]string, 0, len(c.PrimaryServers)+len(c.BackupServers))
	out = append(out, c.PrimaryServers...)
	return append(out, c.BackupServers...)
}

func (c *Config) keepaliveSeconds() int {
	return int(c.DefaultKeepalive / time.Second)
}
