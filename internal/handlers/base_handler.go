// Package handlers exposes the HTTP API
package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// BaseHandler provides common handler functionality
type BaseHandler struct {
	Logger *zap.Logger
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"error": message})
}

// errorStatus maps service errors onto HTTP status codes by their message
func errorStatus(err error) int {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not found"),
		strings.Contains(msg, "has no quiz"),
		strings.Contains(msg, "has no file"),
		strings.Contains(msg, "no rewards available"):
		return http.StatusNotFound
	case strings.Contains(msg, "not enough xp"),
		strings.Contains(msg, "not available"):
		return http.StatusBadRequest
	case strings.Contains(msg, "already exists"),
		strings.Contains(msg, "cannot be empty"),
		strings.Contains(msg, "invalid"),
		strings.Contains(msg, "must be"),
		strings.Contains(msg, "is required"),
		strings.Contains(msg, "at least"),
		strings.Contains(msg, "not allowed"),
		strings.Contains(msg, "no users selected"),
		strings.Contains(msg, "cannot delete your own account"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
