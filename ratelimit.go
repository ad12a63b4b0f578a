package main

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// rateLimiter implements a fixed-window request counter per client IP.
// Counters reset at window boundaries; bursts straddling a boundary
// are tolerated. The proxy owns two instances: one for general API
// traffic and a stricter one for the passthrough class.
type rateLimiter struct {
	mu      sync.RWMutex
	clients map[string]*clientWindow
	limit   int           // requests per window
	window  time.Duration // window length
	stopCh  chan struct{} // signals the cleanup goroutine to stop
}

// clientWindow tracks the request count within the active window
type clientWindow struct {
	count       int
	windowStart time.Time
}

// newRateLimiter creates a rate limiter with the given per-window limit
func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		clients: make(map[string]*clientWindow),
		limit:   limit,
		window:  window,
	}
}

// Allow reports whether a request from the given IP fits within the
// active window, recording it if so
func (rl *rateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cw, exists := rl.clients[ip]

	if !exists {
		// Bound the table to prevent memory exhaustion from spoofed
		// source addresses. New IPs are rejected until cleanup runs.
		if len(rl.clients) >= MaxRateLimiterEntries {
			logger.Warn("Rate limiter at max capacity, rejecting new IP",
				zap.String("ip", ip),
				zap.Int("current_entries", len(rl.clients)))
			return false
		}
		rl.clients[ip] = &clientWindow{count: 1, windowStart: now}
		return true
	}

	// Window elapsed: reset the counter and anchor a new window
	if now.Sub(cw.windowStart) >= rl.window {
		cw.count = 1
		cw.windowStart = now
		return true
	}

	if cw.count < rl.limit {
		cw.count++
		return true
	}

	return false
}

// ActiveClients returns the number of tracked client windows
func (rl *rateLimiter) ActiveClients() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.clients)
}

// Stats reports the limiter configuration and active key count
func (rl *rateLimiter) Stats() RateLimitStats {
	return RateLimitStats{
		ActiveIPs:     rl.ActiveClients(),
		Limit:         rl.limit,
		WindowSeconds: int(rl.window.Seconds()),
	}
}

// StartCleanup starts a background goroutine that periodically removes
// stale IP entries so the table does not grow unboundedly
func (rl *rateLimiter) StartCleanup() {
	rl.stopCh = make(chan struct{})
	cleanupInterval := rl.window * 2

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				rl.cleanup()
			case <-rl.stopCh:
				return
			}
		}
	}()
}

// StopCleanup stops the background cleanup goroutine
func (rl *rateLimiter) StopCleanup() {
	if rl.stopCh != nil {
		close(rl.stopCh)
	}
}

// cleanup removes entries whose window ended at least one full window
// ago. Entries touched within the window are never removed, so Allow
// and cleanup cannot race on a live counter.
func (rl *rateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for ip, cw := range rl.clients {
		if now.Sub(cw.windowStart) >= rl.window*2 {
			delete(rl.clients, ip)
		}
	}
}
