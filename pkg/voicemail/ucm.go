package voicemail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/arzzra/calling_client/pkg/webapi"
)

const vmrestInbox = "/vmrest/mailbox/folders/inbox/messages"

// ucmStore голосовая почта UCM через VMREST
type ucmStore struct {
	requester webapi.Requester
	endpoint  string
}

type ucmMessage struct {
	Subject string `json:"Subject"`
	Read    string `json:"Read"`
	MsgID   string `json:"MsgId"`
	From    struct {
		DisplayName  string `json:"DisplayName"`
		SmtpAddress  string `json:"SmtpAddress"`
		DtmfAccessID string `json:"DtmfAccessId"`
	} `json:"From"`
	CallerID struct {
		CallerNumber string `json:"CallerNumber"`
		CallerName   string `json:"CallerName"`
	} `json:"CallerId"`
	ArrivalTime string `json:"ArrivalTime"`
	Duration    string `json:"Duration"`
}

type ucmMessages struct {
	Total   string          `json:"@total"`
	Message json.RawMessage `json:"Message"`
}

func (s *ucmStore) inboxURL() string {
	return strings.TrimSuffix(s.endpoint, "/") + vmrestInbox
}

func (s *ucmStore) messageURL(messageID string) string {
	return s.inboxURL() + "/" + url.PathEscape(messageID)
}

func (s *ucmStore) list(ctx context.Context) ([]Message, error) {
	resp, err := s.requester.Do(ctx, webapi.Request{Method: http.MethodGet, URI: s.inboxURL()})
	if err != nil {
		return nil, err
	}
	var body ucmMessages
	if err := resp.Decode(&body); err != nil {
		return nil, errors.Wrap(err, "voicemail: разбор списка VMREST")
	}
	items, err := decodeOneOrMany[ucmMessage](body.Message)
	if err != nil {
		return nil, errors.Wrap(err, "voicemail: разбор списка VMREST")
	}

	out := make([]Message, 0, len(items))
	for _, m := range items {
		arrival, _ := strconv.ParseInt(m.ArrivalTime, 10, 64)
		duration, _ := strconv.ParseInt(m.Duration, 10, 64)
		name := m.CallerID.CallerName
		if name == "" {
			name = m.From.DisplayName
		}
		out = append(out, Message{
			MessageID: m.MsgID,
			Duration:  time.Duration(duration) * time.Millisecond,
			CallingParty: CallingParty{
				Name:    name,
				Address: m.CallerID.CallerNumber,
			},
			Time: time.UnixMilli(arrival).UTC(),
			Read: strings.EqualFold(m.Read, "true"),
		})
	}
	return out, nil
}

func (s *ucmStore) content(ctx context.Context, messageID string) (Content, error) {
	resp, err := s.requester.Do(ctx, webapi.Request{
		Method:  http.MethodGet,
		URI:     s.messageURL(messageID) + "/attachments/0",
		Headers: map[string]string{"Accept": "audio/wav"},
	})
	if err != nil {
		return Content{}, err
	}
	mediaType := "audio/wav"
	if resp.Header != nil && resp.Header.Get("Content-Type") != "" {
		mediaType = resp.Header.Get("Content-Type")
	}
	return Content{Type: mediaType, Content: base64.StdEncoding.EncodeToString(resp.Body)}, nil
}

func (s *ucmStore) summary(context.Context) (Summary, error) {
	return Summary{}, webapi.NotImplemented()
}

func (s *ucmStore) markRead(ctx context.Context, messageID string, read bool) error {
	_, err := s.requester.Do(ctx, webapi.Request{
		Method: http.MethodPut,
		URI:    s.messageURL(messageID),
		Body:   map[string]string{"Read": strconv.FormatBool(read)},
	})
	return err
}

func (s *ucmStore) delete(ctx context.Context, messageID string) error {
	_, err := s.requester.Do(ctx, webapi.Request{Method: http.MethodDelete, URI: s.messageURL(messageID)})
	return err
}

func (s *ucmStore) transcript(context.Context, string) (string, error) {
	return "", webapi.NotImplemented()
}
