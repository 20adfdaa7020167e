package voicemail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/arzzra/calling_client/pkg/webapi"
)

// xsiStore голосовая почта Webex Calling и Broadworks через XSI VoiceMessagingMessages
type xsiStore struct {
	requester webapi.Requester
	endpoint  string
	userID    string
}

type xsiString struct {
	Value string `json:"$"`
}

type xsiNumber struct {
	Value json.Number `json:"$"`
}

type xsiMessageInfo struct {
	Duration         xsiString `json:"duration"`
	CallingPartyInfo struct {
		Name    xsiString  `json:"name"`
		Address xsiString  `json:"address"`
		UserID  *xsiString `json:"userId,omitempty"`
	} `json:"callingPartyInfo"`
	Time      xsiNumber       `json:"time"`
	MessageID xsiString       `json:"messageId"`
	Read      json.RawMessage `json:"read,omitempty"`
}

// xsiMessageList messageInfo приходит объектом для одного сообщения и массивом для нескольких
type xsiMessageList struct {
	VoiceMessagingMessages struct {
		MessageInfoList struct {
			MessageInfo json.RawMessage `json:"messageInfo"`
		} `json:"messageInfoList"`
	} `json:"VoiceMessagingMessages"`
}

type xsiVoiceMessage struct {
	VoiceMessage struct {
		MessageMediaContent struct {
			MediaType xsiString `json:"mediaType"`
			Content   xsiString `json:"content"`
		} `json:"messageMediaContent"`
	} `json:"VoiceMessage"`
}

func (s *xsiStore) listURL() string {
	return fmt.Sprintf("%s/v2.0/user/%s/VoiceMessagingMessages?format=json",
		strings.TrimSuffix(s.endpoint, "/"), url.PathEscape(s.userID))
}

// messageURL messageId в XSI является путем относительно корня XSI
func (s *xsiStore) messageURL(messageID string) string {
	return strings.TrimSuffix(s.endpoint, "/") + "/" + strings.TrimPrefix(messageID, "/")
}

func (s *xsiStore) list(ctx context.Context) ([]Message, error) {
	resp, err := s.requester.Do(ctx, webapi.Request{Method: http.MethodGet, URI: s.listURL()})
	if err != nil {
		return nil, err
	}

	var body xsiMessageList
	if err := resp.Decode(&body); err != nil {
		return nil, errors.Wrap(err, "voicemail: разбор списка XSI")
	}

	infos, err := decodeOneOrMany[xsiMessageInfo](body.VoiceMessagingMessages.MessageInfoList.MessageInfo)
	if err != nil {
		return nil, errors.Wrap(err, "voicemail: разбор списка XSI")
	}

	out := make([]Message, 0, len(infos))
	for _, info := range infos {
		ms, _ := info.Time.Value.Int64()
		duration, _ := strconv.ParseInt(info.Duration.Value, 10, 64)
		msg := Message{
			MessageID: info.MessageID.Value,
			Duration:  time.Duration(duration) * time.Millisecond,
			CallingParty: CallingParty{
				Name:    info.CallingPartyInfo.Name.Value,
				Address: info.CallingPartyInfo.Address.Value,
			},
			Time: time.UnixMilli(ms).UTC(),
			// элемент read присутствует только у прочитанных сообщений
			Read: len(info.Read) > 0 && string(info.Read) != "null",
		}
		if info.CallingPartyInfo.UserID != nil {
			msg.CallingParty.UserID = info.CallingPartyInfo.UserID.Value
		}
		out = append(out, msg)
	}
	return out, nil
}

func (s *xsiStore) content(ctx context.Context, messageID string) (Content, error) {
	resp, err := s.requester.Do(ctx, webapi.Request{Method: http.MethodGet, URI: s.messageURL(messageID) + "?format=json"})
	if err != nil {
		return Content{}, err
	}
	var body xsiVoiceMessage
	if err := resp.Decode(&body); err != nil {
		return Content{}, errors.Wrap(err, "voicemail: разбор сообщения XSI")
	}
	media := body.VoiceMessage.MessageMediaContent
	return Content{Type: media.MediaType.Value, Content: media.Content.Value}, nil
}

// summary считается по списку сообщений
func (s *xsiStore) summary(ctx context.Context) (Summary, error) {
	msgs, err := s.list(ctx)
	if err != nil {
		return Summary{}, err
	}
	var sum Summary
	for _, m := range msgs {
		if m.Read {
			sum.OldMessages++
		} else {
			sum.NewMessages++
		}
	}
	return sum, nil
}

func (s *xsiStore) markRead(ctx context.Context, messageID string, read bool) error {
	action := "/MarkAsRead"
	if !read {
		action = "/MarkAsUnread"
	}
	_, err := s.requester.Do(ctx, webapi.Request{Method: http.MethodPut, URI: s.messageURL(messageID) + action})
	return err
}

func (s *xsiStore) delete(ctx context.Context, messageID string) error {
	_, err := s.requester.Do(ctx, webapi.Request{Method: http.MethodDelete, URI: s.messageURL(messageID)})
	return err
}

func (s *xsiStore) transcript(context.Context, string) (string, error) {
	return "", webapi.NotImplemented()
}

func decodeOneOrMany[T any](raw json.RawMessage) ([]T, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var many []T
		err := json.Unmarshal(raw, &many)
		return many, err
	}
	var one T
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, err
	}
	return []T{one}, nil
}
