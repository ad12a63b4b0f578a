package main

import (
	"io"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// GetClientIP extracts the client IP address from the request.
// It checks X-Forwarded-For first (set by the trusted reverse-proxy
// hop), then X-Real-IP, then falls back to RemoteAddr.
func GetClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// First entry is the original client; later entries are proxies
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if parsedIP := net.ParseIP(first); parsedIP != nil {
			return first
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		if parsedIP := net.ParseIP(realIP); parsedIP != nil {
			return realIP
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// safeClose safely closes an io.Closer resource and logs any errors
func safeClose(closer io.Closer) {
	if closer != nil {
		if err := closer.Close(); err != nil {
			logger.Warn("Failed to close resource", zap.Error(err))
		}
	}
}

// trustHeaders are inbound headers that assert proxy identity. They
// are stripped before forwarding so a client cannot spoof the trusted
// reverse-proxy hop toward the upstream.
var trustHeaders = []string{
	"X-Forwarded-For",
	"X-Forwarded-Host",
	"X-Forwarded-Proto",
	"X-Real-IP",
	"Forwarded",
}

// stripTrustHeaders removes proxy-trust headers from a header set
// about to be forwarded upstream
func stripTrustHeaders(h http.Header) {
	for _, name := range trustHeaders {
		h.Del(name)
	}
}
