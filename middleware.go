package main

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// authAttemptTracker tracks failed authentication attempts per IP for brute force protection
type authAttemptTracker struct {
	mu              sync.RWMutex
	attempts        map[string]*authAttempt
	stopCh          chan struct{}
	cleanupOnce     sync.Once     // Ensures StartCleanup is only called once
	stopOnce        sync.Once     // Ensures StopCleanup is only called once
	cleanupInterval time.Duration // Cleanup interval (defaults to AuthAttemptWindow)
}

// authAttempt tracks failed attempts and lockout status for an IP
type authAttempt struct {
	failedCount int
	firstFailed time.Time
	lockedUntil time.Time
}

// newAuthAttemptTracker creates a new auth attempt tracker
func newAuthAttemptTracker() *authAttemptTracker {
	return &authAttemptTracker{
		attempts: make(map[string]*authAttempt),
	}
}

// isBlocked checks if an IP is currently blocked due to too many failed attempts
func (at *authAttemptTracker) isBlocked(ip string) bool {
	at.mu.RLock()
	defer at.mu.RUnlock()

	attempt, exists := at.attempts[ip]
	if !exists {
		return false
	}
	return time.Now().Before(attempt.lockedUntil)
}

// recordFailure records a failed authentication attempt for an IP
func (at *authAttemptTracker) recordFailure(ip string) {
	at.mu.Lock()
	defer at.mu.Unlock()

	now := time.Now()
	attempt, exists := at.attempts[ip]

	if !exists {
		at.attempts[ip] = &authAttempt{
			failedCount: 1,
			firstFailed: now,
		}
		return
	}

	// Reset if outside the attempt window
	if now.Sub(attempt.firstFailed) > AuthAttemptWindow {
		attempt.failedCount = 1
		attempt.firstFailed = now
		attempt.lockedUntil = time.Time{}
		return
	}

	attempt.failedCount++

	// Lock out once max attempts exceeded
	if attempt.failedCount >= MaxFailedAuthAttempts {
		attempt.lockedUntil = now.Add(AuthLockoutDuration)
	}
}

// recordSuccess clears failed attempts for an IP on successful auth
func (at *authAttemptTracker) recordSuccess(ip string) {
	at.mu.Lock()
	defer at.mu.Unlock()
	delete(at.attempts, ip)
}

// getRemainingLockout returns the remaining lockout duration for an IP
func (at *authAttemptTracker) getRemainingLockout(ip string) time.Duration {
	at.mu.RLock()
	defer at.mu.RUnlock()

	attempt, exists := at.attempts[ip]
	if !exists {
		return 0
	}

	remaining := time.Until(attempt.lockedUntil)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// StartCleanup starts periodic cleanup of stale entries
// Uses sync.Once to prevent multiple cleanup goroutines from being started
func (at *authAttemptTracker) StartCleanup() {
	at.cleanupOnce.Do(func() {
		at.stopCh = make(chan struct{})

		interval := at.cleanupInterval
		if interval == 0 {
			interval = AuthAttemptWindow
		}

		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					at.cleanup()
				case <-at.stopCh:
					return
				}
			}
		}()
	})
}

// StopCleanup stops the cleanup goroutine
// Uses sync.Once to prevent double-closing the channel
func (at *authAttemptTracker) StopCleanup() {
	at.stopOnce.Do(func() {
		if at.stopCh != nil {
			close(at.stopCh)
		}
	})
}

// cleanup removes expired entries
func (at *authAttemptTracker) cleanup() {
	at.mu.Lock()
	defer at.mu.Unlock()

	now := time.Now()
	for ip, attempt := range at.attempts {
		if now.After(attempt.lockedUntil) && now.Sub(attempt.firstFailed) > AuthAttemptWindow {
			delete(at.attempts, ip)
		}
	}
}

// AuditLog logs security-relevant events for audit trail
func AuditLog(eventType, clientIP, route, details string) {
	logger.Info("AUDIT",
		zap.String("event", eventType),
		zap.String("client_ip", clientIP),
		zap.String("route", route),
		zap.String("details", details),
		zap.Time("timestamp", time.Now()),
	)
}

// AuditLogWithFields logs security-relevant events with additional fields
func AuditLogWithFields(eventType, clientIP, route string, fields map[string]interface{}) {
	zapFields := []zap.Field{
		zap.String("event", eventType),
		zap.String("client_ip", clientIP),
		zap.String("route", route),
		zap.Time("timestamp", time.Now()),
	}

	for k, v := range fields {
		zapFields = append(zapFields, zap.Any(k, v))
	}

	logger.Info("AUDIT", zapFields...)
}

// apiKeyAuthMiddleware validates X-API-Key header for incoming requests.
// Uses constant-time comparison to prevent timing attacks and implements
// brute force protection with per-IP lockout after max failed attempts.
// Disabled by default; the deployment's reverse proxy normally fronts auth.
func apiKeyAuthMiddleware(authKey string, tracker *authAttemptTracker) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := GetClientIP(r)

			if tracker.isBlocked(clientIP) {
				remaining := tracker.getRemainingLockout(clientIP)
				AuditLog(AuditEventAuthBlocked, clientIP, r.URL.Path, "IP temporarily blocked due to too many failed attempts")
				logger.Warn("Authentication blocked: IP temporarily banned",
					zap.String("ip", clientIP),
					zap.Duration("remaining", remaining))
				w.Header().Set("Retry-After", strconv.Itoa(int(remaining.Seconds())))
				sendError(w, http.StatusTooManyRequests, StatusTooManyRequests,
					"Too many failed authentication attempts. Please try again later.")
				return
			}

			apiKey := r.Header.Get(HeaderXAPIKey)
			if apiKey == "" {
				tracker.recordFailure(clientIP)
				AuditLog(AuditEventAuthFailure, clientIP, r.URL.Path, "Missing API key")
				sendError(w, http.StatusUnauthorized, StatusUnauthorized, ErrMissingAPIKey)
				return
			}

			if subtle.ConstantTimeCompare([]byte(apiKey), []byte(authKey)) != 1 {
				tracker.recordFailure(clientIP)
				AuditLog(AuditEventAuthFailure, clientIP, r.URL.Path, "Invalid API key")
				logger.Warn("Authentication failed: invalid API key",
					zap.String("ip", clientIP),
					zap.String("method", r.Method))
				sendError(w, http.StatusUnauthorized, StatusUnauthorized, ErrInvalidAPIKey)
				return
			}

			tracker.recordSuccess(clientIP)
			AuditLog(AuditEventAuthSuccess, clientIP, r.URL.Path, "API key authentication successful")
			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitMiddleware creates a middleware that limits requests per IP.
// Requests rejected here never reach the upstream.
func rateLimitMiddleware(rl *rateLimiter) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := GetClientIP(r)

			if !rl.Allow(ip) {
				logger.Warn("Rate limit exceeded", zap.String("ip", ip), zap.String("path", r.URL.Path))
				sendError(w, http.StatusTooManyRequests, StatusTooManyRequests, ErrRateLimitExceeded)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// corsMiddleware handles Cross-Origin Resource Sharing (CORS) for the API.
// Use "*" to allow all origins (default), or specify specific origins.
// maxAge specifies how long preflight responses can be cached (in seconds).
func corsMiddleware(allowedOrigins []string, maxAge int) func(next http.Handler) http.Handler {
	allowAll := len(allowedOrigins) == 1 && allowedOrigins[0] == "*"

	// Build a map for fast origin lookup (only if not allowing all)
	originMap := make(map[string]bool)
	if !allowAll {
		for _, origin := range allowedOrigins {
			if origin != "" {
				originMap[origin] = true
			}
		}
	}

	maxAgeStr := strconv.Itoa(maxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" {
				if allowAll {
					w.Header().Set("Access-Control-Allow-Origin", "*")
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
					w.Header().Set("Access-Control-Max-Age", maxAgeStr)
				} else if originMap[origin] {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
					w.Header().Set("Access-Control-Max-Age", maxAgeStr)
				}
			}

			// Handle preflight requests
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// securityHeadersMiddleware adds security headers to all responses
// to protect against common web vulnerabilities
func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")

		if strings.HasPrefix(r.URL.Path, "/swagger") {
			// Swagger UI needs inline styles/scripts and data URIs for images
			w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		} else {
			w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
			w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		}

		next.ServeHTTP(w, r)
	})
}
