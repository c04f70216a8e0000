package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"freightdeck/internal/shipments"
)

// DashboardHandler serves the aggregate views: status cards, recent list,
// and the status histogram.
type DashboardHandler struct {
	service *shipments.Service
	logger  *slog.Logger
}

// NewDashboardHandler creates a handler.
func NewDashboardHandler(service *shipments.Service, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{service: service, logger: logger}
}

// Summary returns the per-status counts for the user's shipments.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	summary, err := h.service.Summary(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("dashboard summary", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute summary")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Recent returns the most recently created shipments, newest first.
func (h *DashboardHandler) Recent(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	limit := 0
	if rawLimit := strings.TrimSpace(r.URL.Query().Get("limit")); rawLimit != "" {
		value, err := strconv.Atoi(rawLimit)
		if err != nil || value < 1 || value > 50 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = value
	}

	recent, err := h.service.Recent(r.Context(), user.ID, limit)
	if err != nil {
		h.logger.Error("dashboard recent", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list recent shipments")
		return
	}
	if recent == nil {
		recent = []shipments.Shipment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"shipments": recent})
}

// Statistics returns histogram buckets of status values in the order each
// status first appears in the user's shipment history.
func (h *DashboardHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	buckets, err := h.service.Histogram(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("dashboard statistics", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compute statistics")
		return
	}
	if buckets == nil {
		buckets = []shipments.StatusCount{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"statistics": buckets})
}
