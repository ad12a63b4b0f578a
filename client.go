package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// upstreamClient issues HTTP calls to the Home Assistant instance
// behind the tunnel. Each call carries a bounded timeout; failures are
// never retried synchronously (the assistant platform retries on its
// own schedule).
type upstreamClient struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// newUpstreamClient creates a client with pooled connections
func newUpstreamClient(baseURL string, timeout time.Duration) *upstreamClient {
	return &upstreamClient{
		baseURL: baseURL,
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        DefaultMaxIdleConns,
				MaxIdleConnsPerHost: DefaultIdleConnsPerHost,
				IdleConnTimeout:     DefaultIdleConnTimeout,
			},
		},
	}
}

// postFulfillment forwards a fulfillment body to the upstream assistant
// endpoint. Only Content-Type and Authorization cross the hop.
// Returns the response body and status; a non-nil error means the
// upstream was unreachable (timeout or connection failure).
func (u *upstreamClient) postFulfillment(ctx context.Context, path string, body []byte, inbound http.Header) (json.RawMessage, int, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	req.Header.Set("Content-Type", "application/json")
	if auth := inbound.Get("Authorization"); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, upstreamFailureStatus(err), err
	}
	defer safeClose(resp.Body)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, http.StatusBadGateway, err
	}
	return respBody, resp.StatusCode, nil
}

// proxyRequest forwards an arbitrary request (method, headers, body)
// to the upstream, used by the passthrough route class. Trust-sensitive
// proxy headers are stripped and X-Forwarded-For is set to the
// verified client IP. The response body is buffered before returning
// so the per-call context can be cancelled without cutting off the
// caller's copy to the client.
func (u *upstreamClient) proxyRequest(r *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(r.Context(), u.timeout)
	defer cancel()

	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, MaxRequestBodySize))
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, u.baseURL+r.URL.RequestURI(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header = r.Header.Clone()
	stripTrustHeaders(req.Header)
	req.Header.Set("X-Forwarded-For", GetClientIP(r))
	req.Host = "" // upstream sees its own host, not the edge's

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer safeClose(resp.Body)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(respBody))
	return resp, nil
}

// reachable probes the upstream with a short GET. Any HTTP response,
// including an error status, counts as reachable; only transport
// failures do not.
func (u *upstreamClient) reachable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, DefaultHealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.baseURL+"/", nil)
	if err != nil {
		return false
	}
	resp, err := u.client.Do(req)
	if err != nil {
		logger.Debug("Upstream probe failed", zap.Error(err))
		return false
	}
	safeClose(resp.Body)
	return true
}

// upstreamFailureStatus maps a transport error to the gateway status
// surfaced to the caller: timeouts to 504, connection failures to 502,
// anything else to 500.
func upstreamFailureStatus(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return http.StatusGatewayTimeout
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
