// Package http provides the alert HTTP endpoints.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	alertapp "risk-radar/internal/alerts/application"
)

const defaultListLimit = 100

// Handler provides alert HTTP endpoints.
type Handler struct {
	log alertapp.AlertLog
}

// NewHandler constructs a handler.
func NewHandler(log alertapp.AlertLog) (*Handler, error) {
	if log == nil {
		return nil, errors.New("alerts handler: nil alert log")
	}
	return &Handler{log: log}, nil
}

// ServeHTTP handles GET /api/v1/alerts.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	alerts, err := h.log.ListRecent(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(alerts)
}
