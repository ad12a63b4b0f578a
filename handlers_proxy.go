package main

import (
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// hopHeaders are connection-scoped headers that must not be copied
// from the upstream response back to the client
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// passthroughHandler forwards any route the edge does not handle
// itself (dashboard assets, APIs, websockets fall back to polling)
// straight to the upstream. No caching; the stricter proxy-class rate
// limit applies via the router.
//
//	@Summary		Upstream passthrough
//	@Description	Forwards unclassified requests to the upstream Home Assistant instance with proxy-trust headers stripped
//	@Tags			Passthrough
//	@Success		200
//	@Failure		429	{object}	Response
//	@Failure		502	{object}	Response
//	@Router			/ [get]
func (p *edgeProxy) passthroughHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	resp, err := p.upstream.proxyRequest(r)
	if err != nil {
		logger.Error("Passthrough proxy error",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		p.audit(r, "passthrough", "", OutcomeError, start, nil)
		sendError(w, http.StatusBadGateway, StatusBadGateway, ErrProxyError)
		return
	}
	defer safeClose(resp.Body)

	header := w.Header()
	for name, values := range resp.Header {
		for _, v := range values {
			header.Add(name, v)
		}
	}
	for _, name := range hopHeaders {
		header.Del(name)
	}
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		// Client went away mid-copy; nothing left to salvage
		logger.Debug("Failed to write passthrough response", zap.Error(err))
	}
	p.audit(r, "passthrough", "", OutcomeMiss, start, map[string]interface{}{"status": resp.StatusCode})
}
