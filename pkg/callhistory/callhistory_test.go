package callhistory

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arzzra/calling_client/pkg/backend"
	"github.com/arzzra/calling_client/pkg/webapi"
)

const janus = "https://janus-a.wbx2.com/janus/api/v1"

type mockRequester struct {
	mock.Mock
}

func (m *mockRequester) Do(ctx context.Context, req webapi.Request) (*webapi.Response, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*webapi.Response)
	return resp, args.Error(1)
}

const sessions = `{"userSessions":[
	{"id":"a","sessionId":"a","startTime":"2024-05-01T10:00:00.000Z","endTime":"2024-05-01T10:05:00.000Z","durationSeconds":300,"direction":"OUTGOING","disposition":"Answered","other":{"name":"Alice","phoneNumber":"+15550100"}},
	{"id":"b","sessionId":"b","startTime":"2024-05-03T09:00:00.000Z","endTime":"2024-05-03T09:00:30.000Z","durationSeconds":30,"direction":"INCOMING","disposition":"MISSED"},
	{"id":"c","sessionId":"c","startTime":"2024-05-02T08:00:00.000Z","endTime":"2024-05-02T08:20:00.000Z","durationSeconds":1200}
]}`

func newMockClock() *clock.Mock {
	clk := clock.NewMock()
	clk.Set(time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC))
	return clk
}

func TestGetCallHistoryData(t *testing.T) {
	req := &mockRequester{}
	req.On("Do", mock.Anything, webapi.Request{
		Method: http.MethodGet,
		URI:    janus + "/history/userSessions?from=2024-05-03T12%3A00%3A00.000Z&includeNewSessionTypes=true&limit=20&sort=ASC",
	}).Return(&webapi.Response{StatusCode: http.StatusOK, Body: []byte(sessions)}, nil).Once()

	h, err := New(janus+"/", req, WithClock(newMockClock()))
	require.NoError(t, err)

	resp := h.GetCallHistoryData(context.Background(), 7, 20, SortASC, SortByStartTime)
	require.True(t, resp.OK())
	assert.Equal(t, backend.MessageSuccess, resp.Message)
	require.Len(t, resp.Data.UserSessions, 3)

	ids := []string{}
	for _, s := range resp.Data.UserSessions {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"a", "c", "b"}, ids)
	assert.Equal(t, DirectionOutgoing, resp.Data.UserSessions[0].Direction)
	assert.Equal(t, "Alice", resp.Data.UserSessions[0].Other.Name)
	assert.Equal(t, 300, resp.Data.UserSessions[0].DurationSeconds)
	req.AssertExpectations(t)
}

func TestGetCallHistoryDataDefaults(t *testing.T) {
	req := &mockRequester{}
	req.On("Do", mock.Anything, webapi.Request{
		Method: http.MethodGet,
		URI:    janus + "/history/userSessions?from=2024-04-30T12%3A00%3A00.000Z&includeNewSessionTypes=true&limit=50&sort=DESC",
	}).Return(&webapi.Response{StatusCode: http.StatusOK, Body: []byte(sessions)}, nil).Once()

	h, err := New(janus, req, WithClock(newMockClock()))
	require.NoError(t, err)

	resp := h.GetCallHistoryData(context.Background(), 0, 0, "", "")
	require.True(t, resp.OK())

	// без сортировки по началу порядок сервера сохраняется
	require.Len(t, resp.Data.UserSessions, 3)
	assert.Equal(t, "a", resp.Data.UserSessions[0].ID)
	assert.Equal(t, "b", resp.Data.UserSessions[1].ID)
	req.AssertExpectations(t)
}

func TestGetCallHistoryDataSortStartDesc(t *testing.T) {
	req := &mockRequester{}
	req.On("Do", mock.Anything, mock.Anything).
		Return(&webapi.Response{StatusCode: http.StatusOK, Body: []byte(sessions)}, nil)

	h, err := New(janus, req, WithClock(newMockClock()))
	require.NoError(t, err)

	resp := h.GetCallHistoryData(context.Background(), 1, 10, SortDESC, SortByStartTime)
	require.True(t, resp.OK())
	assert.Equal(t, "b", resp.Data.UserSessions[0].ID)
	assert.Equal(t, "c", resp.Data.UserSessions[1].ID)
	assert.Equal(t, "a", resp.Data.UserSessions[2].ID)
}

func TestGetCallHistoryDataFailure(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		body    string
		status  int
		message string
	}{
		{"unauthorized", &webapi.StatusError{StatusCode: http.StatusUnauthorized}, "", http.StatusUnauthorized, webapi.MsgTokenExpired},
		{"unavailable", &webapi.StatusError{StatusCode: http.StatusServiceUnavailable}, "", http.StatusServiceUnavailable, webapi.MsgServiceUnavailable},
		{"malformed", nil, "{", http.StatusInternalServerError, webapi.MsgUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &mockRequester{}
			if tt.err != nil {
				req.On("Do", mock.Anything, mock.Anything).Return(nil, tt.err)
			} else {
				req.On("Do", mock.Anything, mock.Anything).
					Return(&webapi.Response{StatusCode: http.StatusOK, Body: []byte(tt.body)}, nil)
			}

			h, err := New(janus, req)
			require.NoError(t, err)

			resp := h.GetCallHistoryData(context.Background(), 1, 1, SortDESC, SortByEndTime)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, backend.MessageFailure, resp.Message)
			assert.Equal(t, tt.message, resp.Data.Error)
			assert.Empty(t, resp.Data.UserSessions)
		})
	}
}

func TestNewValidation(t *testing.T) {
	_, err := New("", &mockRequester{})
	assert.Error(t, err)

	_, err = New(janus, nil)
	assert.Error(t, err)
}

func TestSessionEvents(t *testing.T) {
	h, err := New(janus, &mockRequester{})
	require.NoError(t, err)

	events, unsubscribe := h.SubscribeSessions(1)
	defer unsubscribe()

	var ev SessionEvent
	require.NoError(t, json.Unmarshal([]byte(`{"id":"ev-1","data":{"userSessions":{"statusCode":200,"userSessions":[
		{"id":"a","sessionId":"a","startTime":"2024-05-01T10:00:00.000Z","endTime":"2024-05-01T10:05:00.000Z","direction":"OUTGOING"}]}}}`), &ev))

	assert.True(t, h.HandleSessionEvent(ev))
	select {
	case got := <-events:
		require.Len(t, got.Data.UserSessions.UserSessions, 1)
		assert.Equal(t, "a", got.Data.UserSessions.UserSessions[0].ID)
		assert.Equal(t, DirectionOutgoing, got.Data.UserSessions.UserSessions[0].Direction)
	case <-time.After(time.Second):
		t.Fatal("событие не получено")
	}

	// пустое событие не рассылается
	assert.False(t, h.HandleSessionEvent(SessionEvent{ID: "ev-2"}))
	assert.Empty(t, events)

	// заполненный буфер не блокирует издателя
	assert.True(t, h.HandleSessionEvent(ev))
	assert.True(t, h.HandleSessionEvent(ev))
	assert.Len(t, events, 1)

	h.Close()
	<-events
	_, ok := <-events
	assert.False(t, ok)

	closed, _ := h.SubscribeSessions(1)
	_, ok = <-closed
	assert.False(t, ok)
}
