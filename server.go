package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	_ "github.com/gcp-tunnel/edge-proxy/docs"
)

// routerOptions carries the edge-level settings that shape the router:
// optional API key auth and CORS
type routerOptions struct {
	middlewareAuth bool
	authKey        string
	authTracker    *authAttemptTracker
	corsOrigins    []string
	corsMaxAge     int
}

// newRouter assembles the chi router around an edge proxy instance
func newRouter(p *edgeProxy, opts routerOptions) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(DefaultRequestTimeout))
	r.Use(securityHeadersMiddleware)
	r.Use(corsMiddleware(opts.corsOrigins, opts.corsMaxAge))

	// Health check endpoint - intentionally outside authentication and
	// rate limiting so load balancers can probe without credentials
	r.Get("/health", p.healthCheckHandler)

	// Swagger documentation endpoint - also outside authentication
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// Fulfillment and management routes share the general rate limit
	r.Group(func(r chi.Router) {
		r.Use(rateLimitMiddleware(p.limiter))
		if opts.middlewareAuth {
			r.Use(apiKeyAuthMiddleware(opts.authKey, opts.authTracker))
		}
		r.Post("/api/google_assistant", p.fulfillmentHandler)
		r.Get("/edge/stats", p.statsHandler)
		r.Post("/edge/cache/clear", p.clearCacheHandler)
	})

	// Everything else proxies to the upstream under the stricter
	// dashboard-class limit
	r.Group(func(r chi.Router) {
		r.Use(rateLimitMiddleware(p.proxyLimiter))
		r.Handle("/*", http.HandlerFunc(p.passthroughHandler))
	})

	return r
}

func runServer(addr string) error {
	loadDotEnv()

	serverAddr := getEnv(EnvServerAddr, addr)
	cfg := loadProxyConfig()

	// Load middleware authentication config (for incoming API requests)
	middlewareAuth := getEnvBool(EnvMiddlewareAuth, false)
	authKey := getEnv(EnvAuthKey, "")

	// Refuse to start in an insecure state
	if middlewareAuth && authKey == "" {
		return fmt.Errorf("MIDDLEWARE_AUTH is enabled but AUTH_KEY is not set. " +
			"Set AUTH_KEY environment variable or disable MIDDLEWARE_AUTH")
	}
	logger.Info("Middleware authentication", zap.Bool("enabled", middlewareAuth))

	// Load CORS config - default to "*" (allow all origins)
	originsStr := getEnv(EnvCORSAllowedOrigins, DefaultCORSAllowedOrigins)
	corsOrigins := strings.Split(originsStr, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	corsMaxAge := getEnvInt(EnvCORSMaxAge, DefaultCORSMaxAge)

	logger.Info("Starting edge proxy",
		zap.String("upstream_url", cfg.UpstreamURL),
		zap.Duration("sync_cache_ttl", cfg.SyncCacheTTL),
		zap.Duration("query_cache_ttl", cfg.QueryCacheTTL))
	logger.Info("Rate limiting configured",
		zap.Int("requests", cfg.RateLimitRequests),
		zap.Duration("window", cfg.RateLimitWindow),
		zap.Int("proxy_requests", cfg.ProxyRateLimitRequests),
		zap.Duration("proxy_window", cfg.ProxyRateLimitWindow))
	if cfg.WebhookURL != "" {
		logger.Info("Webhook notifications enabled", zap.String("url", cfg.WebhookURL))
	}

	proxy := newEdgeProxy(cfg)
	proxy.Start()
	defer proxy.Stop()

	// Auth attempt tracker cleanup for brute force protection
	authTracker := newAuthAttemptTracker()
	authTracker.StartCleanup()
	defer authTracker.StopCleanup()

	r := newRouter(proxy, routerOptions{
		middlewareAuth: middlewareAuth,
		authKey:        authKey,
		authTracker:    authTracker,
		corsOrigins:    corsOrigins,
		corsMaxAge:     corsMaxAge,
	})

	server := newHTTPServer(serverAddr, r)

	// start server
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case <-quit:
		logger.Info("Shutdown signal received, starting graceful shutdown...")

		ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()

		if err := serverShutdown(ctx, server); err != nil {
			return err
		}

		logger.Info("Server exited properly")
		return nil
	}
}

// newHTTPServer builds the HTTP server with sane timeouts
func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// serverShutdown is a package-level variable so tests can stub shutdown failures
var serverShutdown = func(ctx context.Context, server *http.Server) error {
	return server.Shutdown(ctx)
}
