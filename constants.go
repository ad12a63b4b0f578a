package main

import "time"

// Google Assistant fulfillment intents
const (
	IntentSync    = "action.devices.SYNC"
	IntentQuery   = "action.devices.QUERY"
	IntentExecute = "action.devices.EXECUTE"
	IntentUnknown = "unknown"
)

// Webhook event types
const (
	EventSync            = "sync"
	EventExecute         = "execute"
	EventOfflineFallback = "offline_fallback"
)

// Request outcomes recorded in the audit trail
const (
	OutcomeHit      = "hit"
	OutcomeMiss     = "miss"
	OutcomeError    = "error"
	OutcomeFallback = "fallback"
)

// Audit event types
const (
	AuditEventRequest     = "request"
	AuditEventCacheClear  = "cache_clear"
	AuditEventAuthSuccess = "auth_success"
	AuditEventAuthFailure = "auth_failure"
	AuditEventAuthBlocked = "auth_blocked"
)

// Environment variable names
const (
	EnvServerAddr           = "SERVER_ADDR"
	EnvUpstreamURL          = "UPSTREAM_URL"
	EnvSyncCacheTTL         = "SYNC_CACHE_TTL"
	EnvQueryCacheTTL        = "QUERY_CACHE_TTL"
	EnvRateLimitRequests    = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow      = "RATE_LIMIT_WINDOW"
	EnvProxyRateLimitReqs   = "PROXY_RATE_LIMIT_REQUESTS"
	EnvProxyRateLimitWindow = "PROXY_RATE_LIMIT_WINDOW"
	EnvWebhookURL           = "WEBHOOK_URL"
	EnvLogRequests          = "LOG_REQUESTS"
	EnvMiddlewareAuth       = "MIDDLEWARE_AUTH"
	EnvAuthKey              = "AUTH_KEY"
	EnvCORSAllowedOrigins   = "CORS_ALLOWED_ORIGINS"
	EnvCORSMaxAge           = "CORS_MAX_AGE"
)

// HTTP and timeout configurations
const (
	DefaultServerAddr       = ":8081"
	DefaultUpstreamURL      = "http://127.0.0.1:9001"
	DefaultSyncCacheTTL     = 300 * time.Second
	DefaultQueryCacheTTL    = 60 * time.Second
	DefaultUpstreamTimeout  = 10 * time.Second
	DefaultHealthTimeout    = 3 * time.Second
	DefaultWebhookTimeout   = 5 * time.Second
	DefaultShutdownTimeout  = 30 * time.Second
	DefaultRequestTimeout   = 60 * time.Second
	DefaultMaxIdleConns     = 100
	DefaultIdleConnsPerHost = 20
	DefaultIdleConnTimeout  = 30 * time.Second
	DefaultWorkerCount      = 4
	DefaultQueueSize        = 100
	MaxRequestBodySize      = 1 << 20 // 1 MiB
)

// Rate limit defaults for general API traffic and for the stricter
// passthrough class used when proxying the dashboard.
const (
	DefaultRateLimitRequests      = 100
	DefaultRateLimitWindow        = 60 // seconds
	DefaultProxyRateLimitRequests = 10
	DefaultProxyRateLimitWindow   = 1 // seconds
	MaxRateLimiterEntries         = 10000
)

// Brute force protection for the optional API key middleware
const (
	MaxFailedAuthAttempts = 5
	AuthAttemptWindow     = 15 * time.Minute
	AuthLockoutDuration   = 15 * time.Minute
)

// CORS defaults
const (
	DefaultCORSAllowedOrigins = "*"
	DefaultCORSMaxAge         = 86400
)

// Headers
const (
	HeaderXAPIKey = "X-API-Key"
)

// Cache key used for SYNC requests that carry no agent user id
const DefaultAgentUserID = "default"

// HTTP response messages
const (
	StatusOK              = "OK"
	StatusBadRequest      = "Bad Request"
	StatusUnauthorized    = "Unauthorized"
	StatusTooManyRequests = "Too Many Requests"
	StatusBadGateway      = "Bad Gateway"
	StatusGatewayTimeout  = "Gateway Timeout"
)

// Error messages
const (
	ErrInvalidJSON         = "Invalid JSON format"
	ErrRequestBodyTooLarge = "Request body too large"
	ErrBodyTooLarge        = "http: request body too large"
	ErrMissingAPIKey       = "Missing API key"
	ErrInvalidAPIKey       = "Invalid API key"
	ErrRateLimitExceeded   = "rate_limit_exceeded"
	ErrUpstreamError       = "upstream_error"
	ErrUpstreamUnavailable = "upstream_unavailable"
	ErrProxyError          = "proxy_error"
)

// Success messages
const (
	MsgCacheCleared = "cleared"
)
