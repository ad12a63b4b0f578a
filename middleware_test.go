package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testAPIKey = "test-secret-key"

// newAuthedRouter builds a router with API key auth enabled
func newAuthedRouter(t *testing.T, upstreamURL string) (*chi.Mux, *authAttemptTracker) {
	t.Helper()
	p := newTestProxy(t, upstreamURL)
	tracker := newAuthAttemptTracker()
	router := newRouter(p, routerOptions{
		middlewareAuth: true,
		authKey:        testAPIKey,
		authTracker:    tracker,
		corsOrigins:    []string{"*"},
		corsMaxAge:     DefaultCORSMaxAge,
	})
	return router, tracker
}

// --- API Key Auth Tests ---

func TestAPIKeyAuth_MissingKey(t *testing.T) {
	upstream := newMockUpstream(t)
	router, _ := newAuthedRouter(t, upstream.server.URL)

	rec := doRequest(router, http.MethodGet, "/edge/stats", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.EqualValues(t, 0, upstream.calls.Load())
}

func TestAPIKeyAuth_InvalidKey(t *testing.T) {
	upstream := newMockUpstream(t)
	router, _ := newAuthedRouter(t, upstream.server.URL)

	req := httptest.NewRequest(http.MethodGet, "/edge/stats", nil)
	req.RemoteAddr = mockClientAddr
	req.Header.Set(HeaderXAPIKey, "wrong-key")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIKeyAuth_ValidKey(t *testing.T) {
	upstream := newMockUpstream(t)
	router, _ := newAuthedRouter(t, upstream.server.URL)

	req := httptest.NewRequest(http.MethodGet, "/edge/stats", nil)
	req.RemoteAddr = mockClientAddr
	req.Header.Set(HeaderXAPIKey, testAPIKey)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIKeyAuth_SuccessIsAudited(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	origLogger := logger
	logger = zap.New(core)
	defer func() { logger = origLogger }()

	upstream := newMockUpstream(t)
	router, _ := newAuthedRouter(t, upstream.server.URL)

	req := httptest.NewRequest(http.MethodGet, "/edge/stats", nil)
	req.RemoteAddr = mockClientAddr
	req.Header.Set(HeaderXAPIKey, testAPIKey)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	found := false
	for _, entry := range recorded.All() {
		if entry.Message != "AUDIT" {
			continue
		}
		if fields := entry.ContextMap(); fields["event"] == AuditEventAuthSuccess {
			assert.Equal(t, "203.0.113.10", fields["client_ip"])
			found = true
		}
	}
	assert.True(t, found, "successful authentication must leave an audit entry")
}

func TestAPIKeyAuth_HealthAndSwaggerExempt(t *testing.T) {
	upstream := newMockUpstream(t)
	router, _ := newAuthedRouter(t, upstream.server.URL)

	rec := doRequest(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code, "health must not require credentials")
}

func TestAPIKeyAuth_LockoutAfterRepeatedFailures(t *testing.T) {
	upstream := newMockUpstream(t)
	router, tracker := newAuthedRouter(t, upstream.server.URL)

	for i := 0; i < MaxFailedAuthAttempts; i++ {
		req := httptest.NewRequest(http.MethodGet, "/edge/stats", nil)
		req.RemoteAddr = mockClientAddr
		req.Header.Set(HeaderXAPIKey, "wrong-key")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	// Even the correct key is rejected while locked out
	req := httptest.NewRequest(http.MethodGet, "/edge/stats", nil)
	req.RemoteAddr = mockClientAddr
	req.Header.Set(HeaderXAPIKey, testAPIKey)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.True(t, tracker.isBlocked("203.0.113.10"))
}

// --- Auth Attempt Tracker Tests ---

func TestAuthAttemptTracker_SuccessClearsFailures(t *testing.T) {
	tracker := newAuthAttemptTracker()

	for i := 0; i < MaxFailedAuthAttempts-1; i++ {
		tracker.recordFailure("10.0.0.1")
	}
	tracker.recordSuccess("10.0.0.1")
	tracker.recordFailure("10.0.0.1")

	assert.False(t, tracker.isBlocked("10.0.0.1"))
}

func TestAuthAttemptTracker_Lockout(t *testing.T) {
	tracker := newAuthAttemptTracker()

	for i := 0; i < MaxFailedAuthAttempts; i++ {
		tracker.recordFailure("10.0.0.1")
	}

	assert.True(t, tracker.isBlocked("10.0.0.1"))
	assert.Greater(t, tracker.getRemainingLockout("10.0.0.1"), time.Duration(0))
	assert.False(t, tracker.isBlocked("10.0.0.2"))
}

func TestAuthAttemptTracker_CleanupIsSafeToStartTwice(t *testing.T) {
	tracker := newAuthAttemptTracker()
	tracker.cleanupInterval = 10 * time.Millisecond
	tracker.StartCleanup()
	tracker.StartCleanup()
	tracker.StopCleanup()
	tracker.StopCleanup()
}

// --- Security Headers / CORS Tests ---

func TestSecurityHeaders(t *testing.T) {
	upstream := newMockUpstream(t)
	p := newTestProxy(t, upstream.server.URL)
	router := newTestRouter(p)

	rec := doRequest(router, http.MethodGet, "/edge/stats", "")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Cache-Control"), "no-store")
}

func TestCORS_Preflight(t *testing.T) {
	upstream := newMockUpstream(t)
	p := newTestProxy(t, upstream.server.URL)
	router := newTestRouter(p)

	req := httptest.NewRequest(http.MethodOptions, "/api/google_assistant", nil)
	req.RemoteAddr = mockClientAddr
	req.Header.Set("Origin", "https://dashboard.example")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_SpecificOrigins(t *testing.T) {
	upstream := newMockUpstream(t)
	p := newTestProxy(t, upstream.server.URL)
	router := newRouter(p, routerOptions{
		corsOrigins: []string{"https://allowed.example"},
		corsMaxAge:  DefaultCORSMaxAge,
	})

	req := httptest.NewRequest(http.MethodGet, "/edge/stats", nil)
	req.RemoteAddr = mockClientAddr
	req.Header.Set("Origin", "https://denied.example")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://allowed.example")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://allowed.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

// --- Client IP Extraction ---

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.1:9999"
	assert.Equal(t, "192.0.2.1", GetClientIP(r))

	r.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", GetClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	assert.Equal(t, "203.0.113.5", GetClientIP(r), "first forwarded entry is the client")

	// Invalid forwarded values are not trusted
	r.Header.Set("X-Forwarded-For", "not-an-ip")
	assert.Equal(t, "198.51.100.7", GetClientIP(r))
}
