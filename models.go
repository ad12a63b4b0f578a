package main

import "encoding/json"

// Response is the standard JSON envelope for edge-local responses
// (errors, management endpoints). Fulfillment responses are passed
// through verbatim so the assistant platform sees the upstream shape.
type Response struct {
	Code   int         `json:"code"`
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// FulfillmentRequest is the envelope of a Google Assistant smart home
// fulfillment request.
type FulfillmentRequest struct {
	RequestID   string             `json:"requestId"`
	AgentUserID string             `json:"agentUserId,omitempty"`
	Inputs      []FulfillmentInput `json:"inputs"`
}

// FulfillmentInput carries one intent and its payload
type FulfillmentInput struct {
	Intent  string          `json:"intent"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// DeviceRef identifies a device within a QUERY or EXECUTE payload
type DeviceRef struct {
	ID string `json:"id"`
}

// QueryPayload is the payload of an action.devices.QUERY input
type QueryPayload struct {
	Devices []DeviceRef `json:"devices"`
}

// ExecutePayload is the payload of an action.devices.EXECUTE input
type ExecutePayload struct {
	Commands []json.RawMessage `json:"commands"`
}

// syncResponse mirrors the parts of an upstream SYNC response needed
// for audit logging and webhook payloads.
type syncResponse struct {
	RequestID string `json:"requestId"`
	Payload   struct {
		Devices []json.RawMessage `json:"devices"`
	} `json:"payload"`
}

// queryResponse mirrors an upstream QUERY response; device states are
// kept loosely typed since the proxy only annotates and re-serializes
// them.
type queryResponse struct {
	RequestID string       `json:"requestId"`
	Payload   queryDevices `json:"payload"`
}

type queryDevices struct {
	Devices map[string]map[string]interface{} `json:"devices"`
}

// WebhookEvent is the body POSTed to the configured webhook URL
type WebhookEvent struct {
	Type      string      `json:"type"`
	Timestamp string      `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// CacheStats describes one cache instance in the stats endpoint
type CacheStats struct {
	Count         int     `json:"count"`
	TTLSeconds    int     `json:"ttl_seconds"`
	AvgAgeSeconds float64 `json:"avg_age_seconds"`
}

// RateLimitStats describes the general rate limiter in the stats endpoint
type RateLimitStats struct {
	ActiveIPs     int `json:"active_ips"`
	Limit         int `json:"limit"`
	WindowSeconds int `json:"window_seconds"`
}

// EdgeStats is the body of GET /edge/stats
type EdgeStats struct {
	SyncCache    CacheStats     `json:"sync_cache"`
	QueryCache   CacheStats     `json:"query_cache"`
	RateLimiting RateLimitStats `json:"rate_limiting"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status            string   `json:"status"`
	Service           string   `json:"service"`
	UpstreamReachable bool     `json:"upstream_reachable"`
	Features          []string `json:"features"`
}
