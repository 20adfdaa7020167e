package voicemail

import "time"

// Sort порядок списка сообщений
type Sort string

const (
	SortASC  Sort = "ASC"
	SortDESC Sort = "DESC"
)

// CallingParty отправитель сообщения
type CallingParty struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
	UserID  string `json:"userId,omitempty"`
}

// Message сообщение голосовой почты
type Message struct {
	MessageID    string        `json:"messageId"`
	Duration     time.Duration `json:"duration"`
	CallingParty CallingParty  `json:"callingPartyInfo"`
	Time         time.Time     `json:"time"`
	Read         bool          `json:"read"`
}

// Summary количество сообщений
type Summary struct {
	NewMessages       int `json:"newMessages"`
	OldMessages       int `json:"oldMessages"`
	NewUrgentMessages int `json:"newUrgentMessages"`
	OldUrgentMessages int `json:"oldUrgentMessages"`
}

// Content содержимое сообщения, Content в base64
type Content struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Data данные ответа голосовой почты
type Data struct {
	VoicemailList       []Message `json:"voicemailList,omitempty"`
	MoreAvailable       bool      `json:"moreVMAvailable,omitempty"`
	VoicemailContent    *Content  `json:"voicemailContent,omitempty"`
	VoicemailSummary    *Summary  `json:"voicemailSummary,omitempty"`
	VoicemailTranscript *string   `json:"voicemailTranscript,omitempty"`
	Error               string    `json:"error,omitempty"`
}

func setError(d *Data, msg string) {
	d.Error = msg
}
