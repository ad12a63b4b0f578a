package main

import (
	"net/http"
)

// healthCheckHandler reports process liveness and upstream reachability
//
//	@Summary		Health check
//	@Description	Returns service liveness plus a flag indicating whether the upstream Home Assistant instance is reachable
//	@Tags			Management
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Router			/health [get]
func (p *edgeProxy) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, HealthResponse{
		Status:            "healthy",
		Service:           "edge-proxy",
		UpstreamReachable: p.upstream.reachable(r.Context()),
		Features:          []string{"sync_cache", "query_cache", "offline_fallback", "rate_limit", "webhooks"},
	})
}

// statsHandler reports cache and rate-limit statistics
//
//	@Summary		Edge proxy statistics
//	@Description	Returns entry counts and average age per cache plus active rate-limit key count and configured limits
//	@Tags			Management
//	@Produce		json
//	@Success		200	{object}	EdgeStats
//	@Router			/edge/stats [get]
func (p *edgeProxy) statsHandler(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, EdgeStats{
		SyncCache:    p.syncCache.stats(),
		QueryCache:   p.queryCache.stats(),
		RateLimiting: p.limiter.Stats(),
	})
}

// clearCacheHandler invalidates both caches to force a resync
//
//	@Summary		Clear caches
//	@Description	Atomically invalidates the sync and query caches; idempotent
//	@Tags			Management
//	@Produce		json
//	@Success		200	{object}	Response
//	@Router			/edge/cache/clear [post]
func (p *edgeProxy) clearCacheHandler(w http.ResponseWriter, r *http.Request) {
	p.clearCaches()
	AuditLog(AuditEventCacheClear, GetClientIP(r), r.URL.Path, "All caches cleared")
	sendResponse(w, http.StatusOK, StatusOK, map[string]string{"status": MsgCacheCleared})
}
