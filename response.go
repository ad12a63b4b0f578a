package main

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// sendResponse sends a standardized success response with JSON formatting
func sendResponse(w http.ResponseWriter, code int, status string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(Response{Code: code, Status: status, Data: data}); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// sendError sends a standardized error response with JSON formatting
func sendError(w http.ResponseWriter, code int, status string, errorMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(Response{Code: code, Status: status, Error: errorMsg}); err != nil {
		logger.Error("Failed to encode JSON error response", zap.Error(err))
	}
}

// sendJSON writes a raw or marshalable body without the envelope, used
// for fulfillment responses that must keep the upstream shape.
func sendJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	switch v := body.(type) {
	case json.RawMessage:
		if _, err := w.Write(v); err != nil {
			logger.Warn("Failed to write response body", zap.Error(err))
		}
	default:
		if err := json.NewEncoder(w).Encode(v); err != nil {
			logger.Error("Failed to encode JSON response", zap.Error(err))
		}
	}
}
