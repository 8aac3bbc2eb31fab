package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/illmade-knight/go-refdata/pkg/store"
	"github.com/rs/zerolog"
)

// Envelope is the body of every response.
type Envelope struct {
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Success bool   `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, env Envelope, logger zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		logger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func success(w http.ResponseWriter, data any, logger zerolog.Logger) {
	writeJSON(w, http.StatusOK, Envelope{Data: data, Success: true}, logger)
}

func failure(w http.ResponseWriter, status int, message string, logger zerolog.Logger) {
	writeJSON(w, status, Envelope{Error: message}, logger)
}

// StatusFor maps a service error onto an HTTP status.
func StatusFor(err error) int {
	var cfgErr *store.ConfigError
	var queryErr *store.QueryError
	switch {
	case errors.As(err, &cfgErr), errors.Is(err, store.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.As(err, &queryErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Client-facing messages for service errors. The underlying error is only logged.
const (
	msgNotConfigured = "reference data source is not configured"
	msgQueryFailed   = "reference data source query failed"
	msgInternal      = "internal error"
)

func serviceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	status := StatusFor(err)
	logger.Error().Err(err).Int("status", status).Msg("Reference data request failed")
	message := msgInternal
	switch status {
	case http.StatusServiceUnavailable:
		message = msgNotConfigured
	case http.StatusBadGateway:
		message = msgQueryFailed
	}
	failure(w, status, message, logger)
}
