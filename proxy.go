package main

import (
	"time"
)

// proxyConfig carries the runtime configuration of the edge proxy,
// loaded from the environment in loadProxyConfig
type proxyConfig struct {
	UpstreamURL            string
	SyncCacheTTL           time.Duration
	QueryCacheTTL          time.Duration
	RateLimitRequests      int
	RateLimitWindow        time.Duration
	ProxyRateLimitRequests int
	ProxyRateLimitWindow   time.Duration
	WebhookURL             string
	LogRequests            bool
}

// loadProxyConfig reads proxy settings from the environment with
// documented defaults
func loadProxyConfig() proxyConfig {
	return proxyConfig{
		UpstreamURL:            getEnv(EnvUpstreamURL, DefaultUpstreamURL),
		SyncCacheTTL:           getEnvSeconds(EnvSyncCacheTTL, DefaultSyncCacheTTL),
		QueryCacheTTL:          getEnvSeconds(EnvQueryCacheTTL, DefaultQueryCacheTTL),
		RateLimitRequests:      getEnvInt(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:        getEnvSeconds(EnvRateLimitWindow, DefaultRateLimitWindow*time.Second),
		ProxyRateLimitRequests: getEnvInt(EnvProxyRateLimitReqs, DefaultProxyRateLimitRequests),
		ProxyRateLimitWindow:   getEnvSeconds(EnvProxyRateLimitWindow, DefaultProxyRateLimitWindow*time.Second),
		WebhookURL:             getEnv(EnvWebhookURL, ""),
		LogRequests:            getEnvBool(EnvLogRequests, true),
	}
}

// edgeProxy owns all shared mutable state of the edge layer: the two
// caches, the rate limiter tables, and the webhook dispatcher. All
// state is process-local and in-memory; a restart clears it by design.
// Handlers are methods so tests can construct isolated instances.
type edgeProxy struct {
	cfg          proxyConfig
	upstream     *upstreamClient
	syncCache    *ttlCache
	queryCache   *ttlCache
	limiter      *rateLimiter
	proxyLimiter *rateLimiter
	webhooks     *webhookDispatcher
}

// newEdgeProxy wires a proxy instance from configuration
func newEdgeProxy(cfg proxyConfig) *edgeProxy {
	return &edgeProxy{
		cfg:          cfg,
		upstream:     newUpstreamClient(cfg.UpstreamURL, DefaultUpstreamTimeout),
		syncCache:    newTTLCache(cfg.SyncCacheTTL),
		queryCache:   newTTLCache(cfg.QueryCacheTTL),
		limiter:      newRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		proxyLimiter: newRateLimiter(cfg.ProxyRateLimitRequests, cfg.ProxyRateLimitWindow),
		webhooks:     newWebhookDispatcher(cfg.WebhookURL),
	}
}

// Start launches the proxy's background goroutines: limiter cleanup
// and webhook delivery workers
func (p *edgeProxy) Start() {
	p.limiter.StartCleanup()
	p.proxyLimiter.StartCleanup()
	p.webhooks.Start()
}

// Stop shuts the background goroutines down
func (p *edgeProxy) Stop() {
	p.limiter.StopCleanup()
	p.proxyLimiter.StopCleanup()
	p.webhooks.Stop()
}

// clearCaches invalidates both caches, forcing a resync on the next
// fulfillment request. Both locks are held for the duration so no
// concurrent writer can land between the two clears. Idempotent.
// Lock order: sync cache first, then query cache.
func (p *edgeProxy) clearCaches() {
	p.syncCache.mu.Lock()
	defer p.syncCache.mu.Unlock()
	p.queryCache.mu.Lock()
	defer p.queryCache.mu.Unlock()

	p.syncCache.data = make(map[string]cacheEntry)
	p.queryCache.data = make(map[string]cacheEntry)
}
