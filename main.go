package main

import (
	"log"

	"go.uber.org/zap"
)

//	@title			Edge Proxy API
//	@version		1.0
//	@description	Caching and rate-limiting edge proxy in front of a Home Assistant instance, serving Google Assistant fulfillment with offline fallback.
//	@BasePath		/

//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						X-API-Key

func main() {
	if err := initLoggerWrapper(); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := runServer(DefaultServerAddr); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
