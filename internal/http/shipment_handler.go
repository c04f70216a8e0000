package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"freightdeck/internal/exporter"
	"freightdeck/internal/platform/metrics"
	"freightdeck/internal/shipments"
)

// ShipmentHandler exposes shipment CRUD, search, and CSV export.
type ShipmentHandler struct {
	service  *shipments.Service
	exporter *exporter.CSVExporter
	logger   *slog.Logger
}

// NewShipmentHandler creates a handler.
func NewShipmentHandler(service *shipments.Service, exporter *exporter.CSVExporter, logger *slog.Logger) *ShipmentHandler {
	return &ShipmentHandler{service: service, exporter: exporter, logger: logger}
}

// List returns one page of the user's shipments with pagination metadata.
func (h *ShipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	opts, err := parseListOptions(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	opts.OwnerID = user.ID

	result, err := h.service.List(r.Context(), opts)
	if err != nil {
		h.logger.Error("list shipments", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list shipments")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func parseListOptions(values url.Values) (shipments.ListOptions, error) {
	opts := shipments.ListOptions{Page: 1}
	const maxSearchQueryLength = 500

	if rawStatus := strings.TrimSpace(values.Get("status")); rawStatus != "" && rawStatus != "All" {
		status := shipments.Status(rawStatus)
		if !shipments.ValidStatus(status) {
			return shipments.ListOptions{}, fmt.Errorf("invalid status filter")
		}
		opts.Status = &status
	}

	if rawQuery := strings.TrimSpace(values.Get("q")); rawQuery != "" {
		if len(rawQuery) > maxSearchQueryLength {
			return shipments.ListOptions{}, fmt.Errorf("query too long (max %d characters)", maxSearchQueryLength)
		}
		opts.Query = rawQuery
	}

	if rawPage := strings.TrimSpace(values.Get("page")); rawPage != "" {
		page, err := strconv.Atoi(rawPage)
		if err != nil || page < 1 {
			return shipments.ListOptions{}, fmt.Errorf("invalid page")
		}
		opts.Page = page
	}

	return opts, nil
}

// Create stores a new shipment for the user.
func (h *ShipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	var payload struct {
		Origin         string `json:"origin"`
		Destination    string `json:"destination"`
		TrackingNumber string `json:"tracking_number"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	shipment, err := h.service.Create(r.Context(), user.ID, shipments.CreateShipmentInput{
		Origin:         payload.Origin,
		Destination:    payload.Destination,
		TrackingNumber: payload.TrackingNumber,
	})
	if err != nil {
		h.handleError(w, err, "create shipment")
		return
	}

	metrics.ShipmentMutationsTotal.WithLabelValues("create").Inc()
	writeJSON(w, http.StatusCreated, shipment)
}

// Get returns a single shipment.
func (h *ShipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	shipment, err := h.service.Get(r.Context(), id, user.ID)
	if err != nil {
		h.handleError(w, err, "get shipment")
		return
	}
	writeJSON(w, http.StatusOK, shipment)
}

// Update modifies the editable fields of a shipment.
func (h *ShipmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	var payload struct {
		Origin         string `json:"origin"`
		Destination    string `json:"destination"`
		TrackingNumber string `json:"tracking_number"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	shipment, err := h.service.Update(r.Context(), id, user.ID, shipments.UpdateShipmentInput{
		Origin:         payload.Origin,
		Destination:    payload.Destination,
		TrackingNumber: payload.TrackingNumber,
	})
	if err != nil {
		h.handleError(w, err, "update shipment")
		return
	}

	metrics.ShipmentMutationsTotal.WithLabelValues("update").Inc()
	writeJSON(w, http.StatusOK, shipment)
}

// UpdateStatus moves a shipment to a new status.
func (h *ShipmentHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}

	shipment, err := h.service.UpdateStatus(r.Context(), id, user.ID, shipments.Status(payload.Status))
	if err != nil {
		h.handleError(w, err, "update shipment status")
		return
	}

	metrics.ShipmentMutationsTotal.WithLabelValues("update_status").Inc()
	writeJSON(w, http.StatusOK, shipment)
}

// Delete removes a shipment.
func (h *ShipmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id, user.ID); err != nil {
		h.handleError(w, err, "delete shipment")
		return
	}

	metrics.ShipmentMutationsTotal.WithLabelValues("delete").Inc()
	w.WriteHeader(http.StatusNoContent)
}

// Export streams the user's entire shipment set as a CSV attachment,
// ignoring any search or status filters. An empty set yields 404 so the
// client can tell the user there is nothing to export.
func (h *ShipmentHandler) Export(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		unauthorized(w)
		return
	}

	list, err := h.service.ExportList(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("export shipments", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export shipments")
		return
	}
	if len(list) == 0 {
		writeError(w, http.StatusNotFound, "no shipments to export")
		return
	}

	filename := fmt.Sprintf("shipments-%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	if err := h.exporter.Export(w, list); err != nil {
		// Headers are already sent, all we can do is log.
		h.logger.Error("write shipment export", "error", err)
		return
	}
	metrics.ExportsTotal.Inc()
}

func (h *ShipmentHandler) handleError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, shipments.ErrNotFound):
		writeError(w, http.StatusNotFound, "shipment not found")
	case errors.Is(err, shipments.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(action, "error", err)
		writeError(w, http.StatusInternalServerError, "unexpected error")
	}
}
