package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Checkmk/checkmk-sub072/internal/discovery"
	"github.com/Checkmk/checkmk-sub072/internal/domain"
	"github.com/Checkmk/checkmk-sub072/internal/httpserver/deps"
	"github.com/Checkmk/checkmk-sub072/internal/logger"
	"github.com/Checkmk/checkmk-sub072/internal/sources/snapshot"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, d deps.Deps, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		d.Logger.Debug("failed to write response", logger.Error(err))
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, snapshot.ErrNoSnapshot):
		return http.StatusNotFound
	case errors.Is(err, discovery.ErrHostBusy):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidLabel):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrConfiguration):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, d deps.Deps, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		d.Logger.Error("request failed", logger.Error(err))
	}
	writeJSON(w, d, status, errorResponse{Error: err.Error()})
}
