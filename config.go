package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Package-level logger, initialized by initLoggerWrapper before the
// server starts. Tests install their own instance in TestMain.
var logger *zap.Logger

// loadDotEnv loads a .env file if one is present in the working
// directory. Missing files are fine; the environment wins either way.
func loadDotEnv() {
	_ = godotenv.Load()
}

// getEnv retrieves environment variable value with fallback to default if not set
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves a positive integer environment variable with fallback
func getEnvInt(key string, defaultValue int) int {
	if value := getEnv(key, ""); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

// getEnvSeconds retrieves a duration expressed as whole seconds with fallback
func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := getEnv(key, ""); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable with fallback
func getEnvBool(key string, defaultValue bool) bool {
	if value := getEnv(key, ""); value != "" {
		return value == "true"
	}
	return defaultValue
}

// initLoggerWrapper handles logger initialization and returns error
func initLoggerWrapper() error {
	var err error
	logger, err = initLogger()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// Function to initialize logger (package-level variable for testing)
var initLogger = func() (*zap.Logger, error) {
	return zap.NewProduction()
}
