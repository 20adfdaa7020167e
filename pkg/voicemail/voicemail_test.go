package voicemail

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arzzra/calling_client/pkg/backend"
	"github.com/arzzra/calling_client/pkg/webapi"
)

const (
	userID      = "8a67806f-fc4d-446b-a131-31e71ea5b0e9"
	xsiEndpoint = "https://xsi.example.com/com.broadsoft.xsi-actions"
	vmrest      = "https://cuc.example.com"
)

type route struct {
	body   string
	header http.Header
	err    error
}

type fakeRequester struct {
	mu       sync.Mutex
	routes   map[string]route
	requests []webapi.Request
}

func newFake(routes map[string]route) *fakeRequester {
	return &fakeRequester{routes: routes}
}

func (f *fakeRequester) Do(_ context.Context, req webapi.Request) (*webapi.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	r, ok := f.routes[req.Method+" "+req.URI]
	if !ok {
		return &webapi.Response{StatusCode: http.StatusOK}, nil
	}
	if r.err != nil {
		return nil, r.err
	}
	return &webapi.Response{StatusCode: http.StatusOK, Body: []byte(r.body), Header: r.header}, nil
}

func (f *fakeRequester) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeRequester) last() webapi.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

const xsiListURL = xsiEndpoint + "/v2.0/user/" + userID + "/VoiceMessagingMessages?format=json"

const xsiSingle = `{"VoiceMessagingMessages":{"messageInfoList":{"messageInfo":{
	"duration":{"$":"1000"},
	"callingPartyInfo":{"name":{"$":"Alice"},"address":{"$":"tel:+15550100"}},
	"time":{"$":"1700000000000"},
	"messageId":{"$":"/v2.0/user/u/VoiceMessagingMessages/m1"}}}}}`

const xsiMany = `{"VoiceMessagingMessages":{"messageInfoList":{"messageInfo":[
	{"duration":{"$":"1000"},"callingPartyInfo":{"name":{"$":"A"},"address":{"$":"1001"}},"time":{"$":"1700000000000"},"messageId":{"$":"/m/1"}},
	{"duration":{"$":"2000"},"callingPartyInfo":{"name":{"$":"B"},"address":{"$":"1002"}},"time":{"$":"1700000300000"},"messageId":{"$":"/m/2"},"read":{}},
	{"duration":{"$":"3000"},"callingPartyInfo":{"name":{"$":"C"},"address":{"$":"1003"},"userId":{"$":"uid-c"}},"time":{"$":"1700000100000"},"messageId":{"$":"/m/3"}}
]}}}`

func newClient(t *testing.T, kind backend.Kind, f *fakeRequester, opts ...Option) *Client {
	t.Helper()
	c, err := New(Config{
		Backend:        kind,
		UserID:         userID,
		XSIEndpoint:    xsiEndpoint,
		VMRESTEndpoint: vmrest,
	}, f, opts...)
	require.NoError(t, err)
	return c
}

func TestXSIListSingleMessage(t *testing.T) {
	f := newFake(map[string]route{"GET " + xsiListURL: {body: xsiSingle}})
	c := newClient(t, backend.KindWXC, f)

	resp := c.GetVoicemailList(context.Background(), 0, 10, SortDESC, true)
	require.True(t, resp.OK())
	require.Len(t, resp.Data.VoicemailList, 1)

	msg := resp.Data.VoicemailList[0]
	assert.Equal(t, "/v2.0/user/u/VoiceMessagingMessages/m1", msg.MessageID)
	assert.Equal(t, "Alice", msg.CallingParty.Name)
	assert.Equal(t, "tel:+15550100", msg.CallingParty.Address)
	assert.Equal(t, time.Second, msg.Duration)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), msg.Time)
	assert.False(t, msg.Read)
	assert.False(t, resp.Data.MoreAvailable)
}

func TestXSIListSortingAndPaging(t *testing.T) {
	f := newFake(map[string]route{"GET " + xsiListURL: {body: xsiMany}})
	c := newClient(t, backend.KindBWRKS, f)
	ctx := context.Background()

	first := c.GetVoicemailList(ctx, 0, 2, SortDESC, true)
	require.True(t, first.OK())
	require.Len(t, first.Data.VoicemailList, 2)
	assert.Equal(t, "/m/2", first.Data.VoicemailList[0].MessageID)
	assert.True(t, first.Data.VoicemailList[0].Read)
	assert.Equal(t, "/m/3", first.Data.VoicemailList[1].MessageID)
	assert.Equal(t, "uid-c", first.Data.VoicemailList[1].CallingParty.UserID)
	assert.True(t, first.Data.MoreAvailable)

	// следующая страница берется из кэша
	second := c.GetVoicemailList(ctx, 2, 2, SortDESC, false)
	require.True(t, second.OK())
	require.Len(t, second.Data.VoicemailList, 1)
	assert.Equal(t, "/m/1", second.Data.VoicemailList[0].MessageID)
	assert.False(t, second.Data.MoreAvailable)
	assert.Equal(t, 1, f.count())

	c.GetVoicemailList(ctx, 0, 2, SortDESC, true)
	assert.Equal(t, 2, f.count())

	asc := c.GetVoicemailList(ctx, 0, 3, SortASC, false)
	require.Len(t, asc.Data.VoicemailList, 3)
	assert.Equal(t, "/m/1", asc.Data.VoicemailList[0].MessageID)
	assert.Equal(t, 3, f.count())

	past := c.GetVoicemailList(ctx, 10, 2, SortASC, false)
	assert.True(t, past.OK())
	assert.Empty(t, past.Data.VoicemailList)
}

func TestXSIMarkAndDeleteUpdateCache(t *testing.T) {
	f := newFake(map[string]route{"GET " + xsiListURL: {body: xsiMany}})
	c := newClient(t, backend.KindWXC, f)
	ctx := context.Background()

	c.GetVoicemailList(ctx, 0, 10, SortDESC, true)

	resp := c.MarkAsRead(ctx, "/m/1")
	require.True(t, resp.OK())
	assert.Equal(t, http.MethodPut, f.last().Method)
	assert.Equal(t, xsiEndpoint+"/m/1/MarkAsRead", f.last().URI)

	resp = c.MarkAsUnread(ctx, "/m/2")
	require.True(t, resp.OK())
	assert.Equal(t, xsiEndpoint+"/m/2/MarkAsUnread", f.last().URI)

	resp = c.Delete(ctx, "/m/3")
	require.True(t, resp.OK())
	assert.Equal(t, http.MethodDelete, f.last().Method)
	assert.Equal(t, xsiEndpoint+"/m/3", f.last().URI)

	requests := f.count()
	list := c.GetVoicemailList(ctx, 0, 10, SortDESC, false)
	assert.Equal(t, requests, f.count())
	require.Len(t, list.Data.VoicemailList, 2)
	assert.Equal(t, "/m/2", list.Data.VoicemailList[0].MessageID)
	assert.False(t, list.Data.VoicemailList[0].Read)
	assert.Equal(t, "/m/1", list.Data.VoicemailList[1].MessageID)
	assert.True(t, list.Data.VoicemailList[1].Read)
}

func TestXSISummaryAndContent(t *testing.T) {
	f := newFake(map[string]route{
		"GET " + xsiListURL: {body: xsiMany},
		"GET " + xsiEndpoint + "/m/1?format=json": {body: `{"VoiceMessage":{"messageMediaContent":{
			"mediaType":{"$":"WAV"},"content":{"$":"UklGRg=="}}}}`},
	})
	c := newClient(t, backend.KindWXC, f)
	ctx := context.Background()

	sum := c.GetVoicemailSummary(ctx)
	require.True(t, sum.OK())
	require.NotNil(t, sum.Data.VoicemailSummary)
	assert.Equal(t, 2, sum.Data.VoicemailSummary.NewMessages)
	assert.Equal(t, 1, sum.Data.VoicemailSummary.OldMessages)

	content := c.GetVoicemailContent(ctx, "/m/1")
	require.True(t, content.OK())
	assert.Equal(t, &Content{Type: "WAV", Content: "UklGRg=="}, content.Data.VoicemailContent)
}

func TestTranscriptNotImplemented(t *testing.T) {
	for _, kind := range []backend.Kind{backend.KindWXC, backend.KindBWRKS, backend.KindUCM} {
		t.Run(string(kind), func(t *testing.T) {
			f := newFake(nil)
			c := newClient(t, kind, f)

			resp := c.GetTranscript(context.Background(), "m1")
			assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
			assert.Equal(t, backend.MessageFailure, resp.Message)
			assert.Equal(t, webapi.MsgNotImplemented, resp.Data.Error)
			assert.Zero(t, f.count())
		})
	}
}

func TestUCMVoicemail(t *testing.T) {
	inbox := vmrest + vmrestInbox
	f := newFake(map[string]route{
		"GET " + inbox: {body: `{"@total":"2","Message":[
			{"MsgId":"0:a","Read":"false","ArrivalTime":"1700000000000","Duration":"4000",
			 "CallerId":{"CallerNumber":"8001","CallerName":"Bob"}},
			{"MsgId":"0:b","Read":"true","ArrivalTime":"1700000500000","Duration":"1500",
			 "From":{"DisplayName":"Carol"},"CallerId":{"CallerNumber":"8002"}}]}`},
		"GET " + inbox + "/0:a/attachments/0": {
			body:   "RIFF",
			header: http.Header{"Content-Type": []string{"audio/x-wav"}},
		},
	})
	c := newClient(t, backend.KindUCM, f)
	ctx := context.Background()

	list := c.GetVoicemailList(ctx, 0, 5, SortDESC, true)
	require.True(t, list.OK())
	require.Len(t, list.Data.VoicemailList, 2)
	assert.Equal(t, "0:b", list.Data.VoicemailList[0].MessageID)
	assert.Equal(t, "Carol", list.Data.VoicemailList[0].CallingParty.Name)
	assert.True(t, list.Data.VoicemailList[0].Read)
	assert.Equal(t, 4*time.Second, list.Data.VoicemailList[1].Duration)

	content := c.GetVoicemailContent(ctx, "0:a")
	require.True(t, content.OK())
	assert.Equal(t, "audio/x-wav", content.Data.VoicemailContent.Type)
	assert.Equal(t, "UklGRg==", content.Data.VoicemailContent.Content)

	requests := f.count()
	sum := c.GetVoicemailSummary(ctx)
	assert.Equal(t, http.StatusNotImplemented, sum.StatusCode)
	assert.Equal(t, requests, f.count())

	require.True(t, c.MarkAsRead(ctx, "0:a").OK())
	assert.Equal(t, http.MethodPut, f.last().Method)
	assert.Equal(t, inbox+"/0:a", f.last().URI)
	assert.Equal(t, map[string]string{"Read": "true"}, f.last().Body)
}

func TestVoicemailFailure(t *testing.T) {
	f := newFake(map[string]route{
		"GET " + xsiListURL: {err: &webapi.StatusError{StatusCode: http.StatusServiceUnavailable}},
	})
	c := newClient(t, backend.KindWXC, f)

	resp := c.GetVoicemailList(context.Background(), 0, 10, SortDESC, false)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, backend.MessageFailure, resp.Message)
	assert.Equal(t, webapi.MsgServiceUnavailable, resp.Data.Error)
	assert.Empty(t, resp.Data.VoicemailList)
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{Backend: backend.KindWXC, UserID: userID}, newFake(nil))
	assert.Error(t, err)

	_, err = New(Config{Backend: backend.KindUCM}, newFake(nil))
	assert.Error(t, err)

	_, err = New(Config{Backend: "PBX"}, newFake(nil))
	assert.ErrorIs(t, err, backend.ErrUnknownBackend)

	_, err = New(Config{Backend: backend.KindUCM, VMRESTEndpoint: vmrest}, nil)
	assert.Error(t, err)
}

func TestCachedListConcurrentUpdates(t *testing.T) {
	f := newFake(map[string]route{"GET " + xsiListURL: {body: xsiMany}})
	c := newClient(t, backend.KindWXC, f)
	ctx := context.Background()

	require.True(t, c.GetVoicemailList(ctx, 0, 10, SortDESC, true).OK())
	first := c.GetVoicemailList(ctx, 0, 10, SortDESC, false)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			resp := c.GetVoicemailList(ctx, 0, 10, SortDESC, false)
			assert.True(t, resp.OK())
		}()
		go func(read bool) {
			defer wg.Done()
			if read {
				c.MarkAsRead(ctx, "/m/1")
			} else {
				c.MarkAsUnread(ctx, "/m/1")
			}
		}(i%2 == 0)
		go func() {
			defer wg.Done()
			c.Delete(ctx, "/m/missing")
		}()
	}
	wg.Wait()

	// выданные страницы не меняются при обновлении кэша
	require.Len(t, first.Data.VoicemailList, 3)
	assert.False(t, first.Data.VoicemailList[2].Read)

	assert.True(t, c.MarkAsRead(ctx, "/m/1").OK())
	list := c.GetVoicemailList(ctx, 0, 10, SortDESC, false)
	require.Len(t, list.Data.VoicemailList, 3)
	assert.Equal(t, "/m/1", list.Data.VoicemailList[2].MessageID)
	assert.True(t, list.Data.VoicemailList[2].Read)
}
