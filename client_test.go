package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpstreamClient_ForwardsAuthorization(t *testing.T) {
	var gotAuth, gotCookie, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCookie = r.Header.Get("Cookie")
		gotContentType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	u := newUpstreamClient(server.URL, 5*time.Second)

	inbound := http.Header{}
	inbound.Set("Authorization", "Bearer token-123")
	inbound.Set("Cookie", "session=abc") // must not cross the hop
	inbound.Set("X-Custom", "value")

	body, status, err := u.postFulfillment(context.Background(), fulfillmentPath, []byte(`{}`), inbound)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{}`, string(body))

	assert.Equal(t, "Bearer token-123", gotAuth)
	assert.Empty(t, gotCookie)
	assert.Equal(t, "application/json", gotContentType)
}

func TestUpstreamClient_ErrorStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	u := newUpstreamClient(server.URL, 5*time.Second)
	_, status, err := u.postFulfillment(context.Background(), fulfillmentPath, []byte(`{}`), http.Header{})

	require.NoError(t, err, "an HTTP error status still means the upstream answered")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUpstreamClient_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	u := newUpstreamClient(url, time.Second)
	_, status, err := u.postFulfillment(context.Background(), fulfillmentPath, []byte(`{}`), http.Header{})

	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestUpstreamClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	u := newUpstreamClient(server.URL, 50*time.Millisecond)
	_, status, err := u.postFulfillment(context.Background(), fulfillmentPath, []byte(`{}`), http.Header{})

	require.Error(t, err)
	assert.Equal(t, http.StatusGatewayTimeout, status)
}

func TestUpstreamClient_Reachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Even a 404 from the upstream root counts as reachable
		http.NotFound(w, r)
	}))
	u := newUpstreamClient(server.URL, time.Second)
	assert.True(t, u.reachable(context.Background()))

	server.Close()
	assert.False(t, u.reachable(context.Background()))
}

func TestUpstreamFailureStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"deadline exceeded", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"wrapped deadline", &url.Error{Op: "Post", URL: "http://x", Err: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{"net timeout", &net.OpError{Op: "dial", Err: &timeoutError{}}, http.StatusGatewayTimeout},
		{"connection refused", &url.Error{Op: "Post", URL: "http://x", Err: errors.New("connection refused")}, http.StatusBadGateway},
		{"other error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, upstreamFailureStatus(tt.err))
		})
	}
}

// timeoutError satisfies net.Error with Timeout() == true
type timeoutError struct{}

func (*timeoutError) Error() string   { return "timeout" }
func (*timeoutError) Timeout() bool   { return true }
func (*timeoutError) Temporary() bool { return true }
