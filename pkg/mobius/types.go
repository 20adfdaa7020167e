// Package mobius содержит типы обмена с сервером управления вызовами Mobius.
package mobius

import "encoding/json"

const (
	ServiceIndicatorCalling = "calling"

	// DefaultKeepaliveInterval интервал keepalive в секундах, если сервер его не прислал
	DefaultKeepaliveInterval = 30
)

// ServiceData описание сервиса в запросе регистрации
type ServiceData struct {
	Indicator string `json:"indicator"`
	Domain    string `json:"domain"`
}

// DeviceRequest тело запроса регистрации устройства
type DeviceRequest struct {
	UserID          string      `json:"userId"`
	ClientDeviceURI string      `json:"clientDeviceUri"`
	ServiceData     ServiceData `json:"serviceData"`
}

// NewDeviceRequest запрос регистрации для сервиса calling
func NewDeviceRequest(userID, clientDeviceURI, domain string) DeviceRequest {
	return DeviceRequest{
		UserID:          userID,
		ClientDeviceURI: clientDeviceURI,
		ServiceData: ServiceData{
			Indicator: ServiceIndicatorCalling,
			Domain:    domain,
		},
	}
}

// Device зарегистрированное устройство
type Device struct {
	DeviceID        string   `json:"deviceId"`
	URI             string   `json:"uri"`
	Status          string   `json:"status,omitempty"`
	LastSeen        string   `json:"lastSeen,omitempty"`
	Addresses       []string `json:"addresses,omitempty"`
	ClientDeviceURI string   `json:"clientDeviceUri,omitempty"`
}

// DeviceInfo ответ на регистрацию устройства
type DeviceInfo struct {
	UserID                string  `json:"userId,omitempty"`
	Device                *Device `json:"device,omitempty"`
	KeepaliveInterval     int     `json:"keepaliveInterval,omitempty"`
	CallKeepaliveInterval int     `json:"callKeepaliveInterval,omitempty"`
	VoicePortalNumber     int     `json:"voicePortalNumber,omitempty"`
	VoicePortalExtension  int     `json:"voicePortalExtension,omitempty"`
	RehomingIntervalMin   int     `json:"rehomingIntervalMin,omitempty"`
	RehomingIntervalMax   int     `json:"rehomingIntervalMax,omitempty"`
}

// Keepalive интервал keepalive в секундах с подстановкой значения по умолчанию
func (d DeviceInfo) Keepalive(fallback int) int {
	if d.KeepaliveInterval > 0 {
		return d.KeepaliveInterval
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultKeepaliveInterval
}

// EventType тип события вызова от Mobius
type EventType string

const (
	EventCallSetup        EventType = "mobius.call"
	EventCallProgress     EventType = "mobius.callprogress"
	EventCallConnected    EventType = "mobius.callconnected"
	EventCallMedia        EventType = "mobius.media"
	EventCallDisconnected EventType = "mobius.calldisconnected"
)

// CallerID данные о вызывающем абоненте
type CallerID struct {
	From                       string `json:"from,omitempty"`
	PAssertedIdentity          string `json:"p-asserted-identity,omitempty"`
	XBroadworksRemotePartyInfo string `json:"x-broadworks-remote-party-info,omitempty"`
}

// CallData полезная нагрузка события вызова
type CallData struct {
	CallerID      *CallerID `json:"callerId,omitempty"`
	CallID        string    `json:"callId"`
	CallURL       string    `json:"callUrl,omitempty"`
	DeviceID      string    `json:"deviceId"`
	CorrelationID string    `json:"correlationId,omitempty"`
	EventType     EventType `json:"eventType"`
}

// CallEvent событие вызова, доставленное по каналу уведомлений
type CallEvent struct {
	ID         string   `json:"id"`
	Data       CallData `json:"data"`
	Timestamp  int64    `json:"timestamp,omitempty"`
	TrackingID string   `json:"trackingId,omitempty"`
}

// ParseCallEvent разбирает JSON события вызова
func ParseCallEvent(data []byte) (CallEvent, error) {
	var ev CallEvent
	err := json.Unmarshal(data, &ev)
	return ev, err
}
