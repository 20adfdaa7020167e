package webapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arzzra/calling_client/pkg/auth"
)

func TestHTTPRequesterEnvelope(t *testing.T) {
	var got *http.Request
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	cfg := DefaultHTTPConfig()
	cfg.DeviceURI = "https://wdm/devices/1"
	r := NewHTTPRequester(cfg, auth.NewStaticToken("tok", nil), srv.Client(), nil)

	resp, err := r.Do(context.Background(), Request{
		Method: http.MethodPost,
		URI:    srv.URL + "/device",
		Body:   map[string]string{"userId": "u1"},
	})
	require.NoError(t, err)

	var decoded struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, resp.Decode(&decoded))
	assert.True(t, decoded.OK)

	require.NotNil(t, got)
	assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "https://wdm/devices/1", got.Header.Get(HeaderDeviceURL))
	assert.True(t, strings.HasPrefix(got.Header.Get(HeaderTrackingID), TrackingIDPrefix))
	assert.NotEmpty(t, got.Header.Get(HeaderUserAgent))

	var sent map[string]string
	require.NoError(t, json.Unmarshal(body, &sent))
	assert.Equal(t, "u1", sent["userId"])
}

func TestHTTPRequesterStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"expired"}`))
	}))
	defer srv.Close()

	r := NewHTTPRequester(DefaultHTTPConfig(), nil, srv.Client(), nil)
	_, err := r.Do(context.Background(), Request{Method: http.MethodGet, URI: srv.URL})
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, string(statusErr.Body), "expired")
	assert.True(t, Classify(err).Terminal())
}

func TestHTTPRequesterExpiredToken(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	tokens := auth.TokenFunc(func(context.Context) (string, error) {
		return "", auth.ErrTokenExpired
	})
	r := NewHTTPRequester(DefaultHTTPConfig(), tokens, srv.Client(), nil)
	_, err := r.Do(context.Background(), Request{Method: http.MethodGet, URI: srv.URL})

	assert.ErrorIs(t, err, auth.ErrTokenExpired)
	assert.False(t, called)
	assert.Equal(t, MsgTokenExpired, Classify(err).Message)
}

func TestHTTPRequesterConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	uri := srv.URL
	srv.Close()

	r := NewHTTPRequester(DefaultHTTPConfig(), nil, nil, nil)
	_, err := r.Do(context.Background(), Request{Method: http.MethodPost, URI: uri + "/device"})
	require.Error(t, err)
	assert.True(t, Classify(err).Retryable())
}

func TestRequesterFunc(t *testing.T) {
	var r Requester = RequesterFunc(func(_ context.Context, req Request) (*Response, error) {
		return &Response{StatusCode: http.StatusOK, Body: []byte(req.URI)}, nil
	})
	resp, err := r.Do(context.Background(), Request{URI: "x"})
	require.NoError(t, err)
	assert.Equal(t, "x", string(resp.Body))
}
