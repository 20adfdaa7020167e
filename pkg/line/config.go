package line

import (
	"fmt"
	"time"

	"github.com/arzzra/calling_client/pkg/logger"
	"github.com/arzzra/calling_client/pkg/mobius"
)

// ProvisioningStatus статус линии при создании
type ProvisioningStatus string

const (
	StatusActive   ProvisioningStatus = "active"
	StatusInactive ProvisioningStatus = "inactive"
)

// Config конфигурация линии
type Config struct {
	UserID string
	// DeviceURI адрес клиентского устройства
	DeviceURI string
	Status    ProvisioningStatus

	// PrimaryServers и BackupServers адреса серверов Mobius.
	// Адрес без суффикса calling/web/ дополняется им.
	PrimaryServers []string
	BackupServers  []string

	LogLevel      logger.Level
	ServiceDomain string

	// DefaultKeepalive интервал keepalive, если сервер его не прислал
	DefaultKeepalive time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() Config {
	return Config{
		Status:           StatusActive,
		LogLevel:         logger.LevelError,
		DefaultKeepalive: mobius.DefaultKeepaliveInterval * time.Second,
	}
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("user id не указан")
	}
	if c.DeviceURI == "" {
		return fmt.Errorf("device uri не указан")
	}
	switch c.Status {
	case StatusActive, StatusInactive:
	default:
		return fmt.Errorf("неизвестный статус линии %q", c.Status)
	}
	if len(c.PrimaryServers) == 0 && len(c.BackupServers) == 0 {
		return fmt.Errorf("не указан ни один сервер mobius")
	}
	if c.LogLevel != "" && !c.LogLevel.Valid() {
		return fmt.Errorf("неизвестный уровень логирования %q", c.LogLevel)
	}
	return nil
}
