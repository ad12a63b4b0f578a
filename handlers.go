package main

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// fulfillmentPath is the assistant endpoint mirrored on the upstream
const fulfillmentPath = "/api/google_assistant"

// fulfillmentHandler handles Google Assistant fulfillment requests with caching and fallback
//
//	@Summary		Google Assistant fulfillment
//	@Description	Proxies SYNC/QUERY/EXECUTE fulfillment intents to the upstream Home Assistant instance with per-intent caching and offline fallback
//	@Tags			Fulfillment
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	interface{}
//	@Failure		400	{object}	Response
//	@Failure		429	{object}	Response
//	@Failure		502	{object}	Response
//	@Failure		504	{object}	Response
//	@Router			/api/google_assistant [post]
func (p *edgeProxy) fulfillmentHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, freq, ok := parseFulfillmentRequest(w, r)
	if !ok {
		// Malformed requests are rejected before any upstream contact
		p.audit(r, IntentUnknown, "", OutcomeError, start, map[string]interface{}{"reason": "malformed"})
		return
	}

	intent := IntentUnknown
	if len(freq.Inputs) > 0 {
		intent = freq.Inputs[0].Intent
	}

	switch intent {
	case IntentSync:
		p.handleSync(w, r, body, freq, start)
	case IntentQuery:
		p.handleQuery(w, r, body, freq, start)
	case IntentExecute:
		p.handleExecute(w, r, body, freq, start)
	default:
		p.handlePassthroughIntent(w, r, body, freq, intent, start)
	}
}

// handleSync serves SYNC requests from the sync cache when fresh,
// otherwise forwards and caches the whole device list
func (p *edgeProxy) handleSync(w http.ResponseWriter, r *http.Request, body []byte, freq FulfillmentRequest, start time.Time) {
	userID := freq.AgentUserID
	if userID == "" {
		userID = DefaultAgentUserID
	}

	if cached, found := p.syncCache.get(userID); found {
		p.audit(r, IntentSync, freq.RequestID, OutcomeHit, start, nil)
		sendJSON(w, http.StatusOK, cached)
		return
	}

	respBody, status, err := p.upstream.postFulfillment(r.Context(), fulfillmentPath, body, r.Header)
	if err != nil || status >= http.StatusMultipleChoices {
		logger.Error("SYNC upstream call failed",
			zap.Int("status", status),
			zap.Error(err))
		p.audit(r, IntentSync, freq.RequestID, OutcomeError, start, nil)
		sendError(w, status, http.StatusText(status), ErrUpstreamError)
		return
	}

	// Store after the call completes so the entry's age reflects the
	// response, then notify
	p.syncCache.put(userID, respBody)

	deviceCount := syncDeviceCount(respBody)
	p.webhooks.Emit(EventSync, map[string]interface{}{
		"user_id":      userID,
		"device_count": deviceCount,
	})
	p.audit(r, IntentSync, freq.RequestID, OutcomeMiss, start, map[string]interface{}{"device_count": deviceCount})
	sendJSON(w, http.StatusOK, json.RawMessage(respBody))
}

// handleQuery serves QUERY requests from the per-device state cache
// when every requested device is fresh; otherwise it forwards, caches
// the returned states, and on upstream failure degrades to the last
// good states at any age.
func (p *edgeProxy) handleQuery(w http.ResponseWriter, r *http.Request, body []byte, freq FulfillmentRequest, start time.Time) {
	deviceIDs, ok := queryDeviceIDs(freq)
	if !ok {
		p.audit(r, IntentQuery, freq.RequestID, OutcomeError, start, map[string]interface{}{"reason": "malformed"})
		sendError(w, http.StatusBadRequest, StatusBadRequest, ErrInvalidJSON)
		return
	}

	// Cache check: a hit requires a fresh entry for every requested id
	if states, allFresh := p.freshStates(deviceIDs); allFresh {
		p.audit(r, IntentQuery, freq.RequestID, OutcomeHit, start, map[string]interface{}{"device_ids": headOf(deviceIDs, 5)})
		sendJSON(w, http.StatusOK, queryResponse{
			RequestID: freq.RequestID,
			Payload:   queryDevices{Devices: states},
		})
		return
	}

	respBody, status, err := p.upstream.postFulfillment(r.Context(), fulfillmentPath, body, r.Header)
	if err == nil && status < http.StatusMultipleChoices {
		p.cacheQueryStates(respBody)
		p.audit(r, IntentQuery, freq.RequestID, OutcomeMiss, start, map[string]interface{}{"device_ids": headOf(deviceIDs, 5)})
		sendJSON(w, http.StatusOK, json.RawMessage(respBody))
		return
	}

	// Offline fallback: serve the last good state for each requested
	// device regardless of freshness, tagged as cached
	if states := p.staleStates(deviceIDs); len(states) > 0 {
		logger.Warn("Upstream unavailable, returning cached states",
			zap.Int("devices", len(states)),
			zap.Int("status", status),
			zap.Error(err))
		p.webhooks.Emit(EventOfflineFallback, map[string]interface{}{"device_ids": deviceIDs})
		p.audit(r, IntentQuery, freq.RequestID, OutcomeFallback, start, map[string]interface{}{"device_ids": headOf(deviceIDs, 5)})
		sendJSON(w, http.StatusOK, queryResponse{
			RequestID: freq.RequestID,
			Payload:   queryDevices{Devices: states},
		})
		return
	}

	// First-ever query during an outage fails openly
	p.audit(r, IntentQuery, freq.RequestID, OutcomeError, start, nil)
	sendError(w, status, http.StatusText(status), ErrUpstreamUnavailable)
}

// handleExecute always forwards: command outcomes are never cached
func (p *edgeProxy) handleExecute(w http.ResponseWriter, r *http.Request, body []byte, freq FulfillmentRequest, start time.Time) {
	respBody, status, err := p.upstream.postFulfillment(r.Context(), fulfillmentPath, body, r.Header)
	if err != nil || status >= http.StatusMultipleChoices {
		logger.Error("EXECUTE upstream call failed",
			zap.Int("status", status),
			zap.Error(err))
		p.audit(r, IntentExecute, freq.RequestID, OutcomeError, start, nil)
		sendError(w, status, http.StatusText(status), ErrUpstreamError)
		return
	}

	var payload ExecutePayload
	if len(freq.Inputs) > 0 {
		_ = json.Unmarshal(freq.Inputs[0].Payload, &payload)
	}
	p.webhooks.Emit(EventExecute, map[string]interface{}{"commands": payload.Commands})
	p.audit(r, IntentExecute, freq.RequestID, OutcomeMiss, start, nil)
	sendJSON(w, http.StatusOK, json.RawMessage(respBody))
}

// handlePassthroughIntent forwards unrecognized intents unchanged
func (p *edgeProxy) handlePassthroughIntent(w http.ResponseWriter, r *http.Request, body []byte, freq FulfillmentRequest, intent string, start time.Time) {
	respBody, status, err := p.upstream.postFulfillment(r.Context(), fulfillmentPath, body, r.Header)
	if err != nil {
		p.audit(r, intent, freq.RequestID, OutcomeError, start, nil)
		sendError(w, status, http.StatusText(status), ErrUpstreamError)
		return
	}
	p.audit(r, intent, freq.RequestID, OutcomeMiss, start, nil)
	sendJSON(w, status, json.RawMessage(respBody))
}

// freshStates assembles fresh cached states for the given device ids.
// The second return is false as soon as any id misses or is expired.
func (p *edgeProxy) freshStates(deviceIDs []string) (map[string]map[string]interface{}, bool) {
	if len(deviceIDs) == 0 {
		return nil, false
	}
	states := make(map[string]map[string]interface{}, len(deviceIDs))
	for _, id := range deviceIDs {
		raw, found := p.queryCache.get(id)
		if !found {
			return nil, false
		}
		var state map[string]interface{}
		if err := json.Unmarshal(raw, &state); err != nil {
			return nil, false
		}
		states[id] = state
	}
	return states, true
}

// staleStates assembles cached states at any age for the given device
// ids, each tagged with _cached and _cached_at
func (p *edgeProxy) staleStates(deviceIDs []string) map[string]map[string]interface{} {
	states := make(map[string]map[string]interface{})
	for _, id := range deviceIDs {
		raw, cachedAt, found := p.queryCache.getStale(id)
		if !found {
			continue
		}
		var state map[string]interface{}
		if err := json.Unmarshal(raw, &state); err != nil {
			continue
		}
		state["_cached"] = true
		state["_cached_at"] = cachedAt.Unix()
		states[id] = state
	}
	return states
}

// cacheQueryStates stores every device state from a successful QUERY
// response under its device id
func (p *edgeProxy) cacheQueryStates(respBody []byte) {
	var resp queryResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		logger.Warn("Failed to parse QUERY response for caching", zap.Error(err))
		return
	}
	for id, state := range resp.Payload.Devices {
		raw, err := json.Marshal(state)
		if err != nil {
			continue
		}
		p.queryCache.put(id, raw)
	}
}

// audit emits one audit trail entry per request with outcome and latency
func (p *edgeProxy) audit(r *http.Request, intent, requestID, outcome string, start time.Time, extra map[string]interface{}) {
	if !p.cfg.LogRequests {
		return
	}
	fields := map[string]interface{}{
		"intent":      intent,
		"outcome":     outcome,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if requestID != "" {
		fields["request_id"] = requestID
	}
	for k, v := range extra {
		fields[k] = v
	}
	AuditLogWithFields(AuditEventRequest, GetClientIP(r), r.URL.Path, fields)
}

// parseFulfillmentRequest reads and decodes a fulfillment body with
// size limiting. Returns false after sending a client error response.
func parseFulfillmentRequest(w http.ResponseWriter, r *http.Request) ([]byte, FulfillmentRequest, bool) {
	var freq FulfillmentRequest

	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		if err.Error() == ErrBodyTooLarge {
			sendError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", ErrRequestBodyTooLarge)
			return nil, freq, false
		}
		sendError(w, http.StatusBadRequest, StatusBadRequest, ErrInvalidJSON)
		return nil, freq, false
	}

	if err := json.Unmarshal(body, &freq); err != nil {
		sendError(w, http.StatusBadRequest, StatusBadRequest, ErrInvalidJSON)
		return nil, freq, false
	}
	return body, freq, true
}

// queryDeviceIDs extracts the requested device ids from a QUERY input
func queryDeviceIDs(freq FulfillmentRequest) ([]string, bool) {
	if len(freq.Inputs) == 0 {
		return nil, false
	}
	var payload QueryPayload
	if err := json.Unmarshal(freq.Inputs[0].Payload, &payload); err != nil {
		return nil, false
	}
	ids := make([]string, 0, len(payload.Devices))
	for _, d := range payload.Devices {
		if d.ID != "" {
			ids = append(ids, d.ID)
		}
	}
	return ids, true
}

// syncDeviceCount counts the devices in a SYNC response payload
func syncDeviceCount(respBody []byte) int {
	var resp syncResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return 0
	}
	return len(resp.Payload.Devices)
}

// headOf returns at most n leading elements, used to keep audit
// entries bounded
func headOf(ids []string, n int) []string {
	if len(ids) <= n {
		return ids
	}
	return ids[:n]
}
