package callhistory

import "time"

// Sort порядок записей
type Sort string

const (
	SortASC  Sort = "ASC"
	SortDESC Sort = "DESC"
)

// SortBy поле, по которому сортируются записи
type SortBy string

const (
	SortByEndTime   SortBy = "endTime"
	SortByStartTime SortBy = "startTime"
)

// Direction направление сессии в истории
type Direction string

const (
	DirectionIncoming Direction = "INCOMING"
	DirectionOutgoing Direction = "OUTGOING"
)

// Disposition итог сессии
type Disposition string

const (
	DispositionAnswered Disposition = "Answered"
	DispositionCanceled Disposition = "Canceled"
	DispositionMissed   Disposition = "MISSED"
)

// Links ссылки сессии
type Links struct {
	LocusURL        string `json:"locusUrl,omitempty"`
	ConversationURL string `json:"conversationUrl,omitempty"`
	CallbackAddress string `json:"callbackAddress,omitempty"`
}

// Party участник сессии
type Party struct {
	ID              string `json:"id,omitempty"`
	Name            string `json:"name,omitempty"`
	PhoneNumber     string `json:"phoneNumber,omitempty"`
	CallbackAddress string `json:"callbackAddress,omitempty"`
	IsPrivate       bool   `json:"isPrivate,omitempty"`
	SIPURL          string `json:"sipUrl,omitempty"`
	CucmDN          string `json:"cucmDN,omitempty"`
	UCMLineNumber   int    `json:"ucmLineNumber,omitempty"`
}

// UserSession запись истории вызовов Janus
type UserSession struct {
	ID                    string      `json:"id"`
	SessionID             string      `json:"sessionId"`
	Disposition           Disposition `json:"disposition,omitempty"`
	StartTime             time.Time   `json:"startTime"`
	EndTime               time.Time   `json:"endTime"`
	URL                   string      `json:"url,omitempty"`
	DurationSeconds       int         `json:"durationSeconds"`
	JoinedDurationSeconds int         `json:"joinedDurationSeconds,omitempty"`
	ParticipantCount      int         `json:"participantCount,omitempty"`
	IsDeleted             bool        `json:"isDeleted,omitempty"`
	IsPMR                 bool        `json:"isPMR,omitempty"`
	CorrelationIDs        []string    `json:"correlationIds,omitempty"`
	Links                 Links       `json:"links"`
	Self                  Party       `json:"self"`
	Other                 Party       `json:"other"`
	SessionType           string      `json:"sessionType,omitempty"`
	Direction             Direction   `json:"direction,omitempty"`
}

// Data данные ответа истории вызовов
type Data struct {
	UserSessions []UserSession `json:"userSessions,omitempty"`
	Error        string        `json:"error,omitempty"`
}

func setError(d *Data, msg string) {
	d.Error = msg
}
