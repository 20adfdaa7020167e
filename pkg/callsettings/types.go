package callsettings

// Data данные ответа коннектора настроек
type Data[T any] struct {
	CallSetting *T     `json:"callSetting,omitempty"`
	Error       string `json:"error,omitempty"`
}

func setError[T any](d *Data[T], msg string) {
	d.Error = msg
}

// ToggleSetting настройка включено/выключено (ожидание вызова, не беспокоить)
type ToggleSetting struct {
	Enabled           bool `json:"enabled"`
	RingSplashEnabled bool `json:"ringSplashEnabled,omitempty"`
}

// DestinationVoicemail значение Destination при переадресации на голосовую почту
const DestinationVoicemail = "VOICEMAIL"

// CallForwardAlwaysSetting безусловная переадресация
type CallForwardAlwaysSetting struct {
	Enabled                     bool   `json:"enabled"`
	RingReminderEnabled         bool   `json:"ringReminderEnabled,omitempty"`
	DestinationVoicemailEnabled bool   `json:"destinationVoicemailEnabled,omitempty"`
	Destination                 string `json:"destination,omitempty"`
}

// ForwardRule правило переадресации по условию
type ForwardRule struct {
	Enabled                     bool   `json:"enabled"`
	DestinationVoicemailEnabled bool   `json:"destinationVoicemailEnabled,omitempty"`
	Destination                 string `json:"destination,omitempty"`
}

// NoAnswerRule переадресация при неответе
type NoAnswerRule struct {
	ForwardRule
	NumberOfRings          int `json:"numberOfRings,omitempty"`
	SystemMaxNumberOfRings int `json:"systemMaxNumberOfRings,omitempty"`
}

// CallForwarding правила переадресации
type CallForwarding struct {
	Always   CallForwardAlwaysSetting `json:"always"`
	Busy     ForwardRule              `json:"busy"`
	NoAnswer NoAnswerRule             `json:"noAnswer"`
}

// CallForwardSetting полная настройка переадресации
type CallForwardSetting struct {
	CallForwarding     CallForwarding `json:"callForwarding"`
	BusinessContinuity ForwardRule    `json:"businessContinuity"`
}

// VoicemailToggle вложенный флаг настройки голосовой почты
type VoicemailToggle struct {
	Enabled bool `json:"enabled"`
}

// UnansweredCalls голосовая почта для неотвеченных вызовов
type UnansweredCalls struct {
	Enabled       bool `json:"enabled"`
	NumberOfRings int  `json:"numberOfRings,omitempty"`
}

// VoicemailNotifications уведомления о новых сообщениях
type VoicemailNotifications struct {
	Enabled     bool   `json:"enabled"`
	Destination string `json:"destination,omitempty"`
}

// VoicemailSetting настройки голосовой почты
type VoicemailSetting struct {
	Enabled             bool                   `json:"enabled"`
	SendAllCalls        VoicemailToggle        `json:"sendAllCalls"`
	SendBusyCalls       VoicemailToggle        `json:"sendBusyCalls"`
	SendUnansweredCalls UnansweredCalls        `json:"sendUnansweredCalls"`
	Notifications       VoicemailNotifications `json:"notifications"`
	TransferToNumber    VoicemailToggle        `json:"transferToNumber"`
	EmailCopyOfMessage  VoicemailToggle        `json:"emailCopyOfMessage"`
	MessageStorage      struct {
		MwiEnabled  bool   `json:"mwiEnabled"`
		StorageType string `json:"storageType,omitempty"`
	} `json:"messageStorage"`
}

// UCM формат списка переадресаций по номерам
type ucmForwardEntry struct {
	DN                          string `json:"dn"`
	Destination                 string `json:"destination,omitempty"`
	DestinationVoicemailEnabled bool   `json:"destinationVoicemailEnabled"`
}

type ucmCallForwarding struct {
	CallForwarding struct {
		Always []ucmForwardEntry `json:"always"`
	} `json:"callForwarding"`
}
