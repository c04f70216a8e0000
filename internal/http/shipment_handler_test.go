package http

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"freightdeck/internal/exporter"
	"freightdeck/internal/shipments"
)

func newShipmentHandler(t *testing.T) (*ShipmentHandler, *shipments.Service) {
	t.Helper()
	svc := shipments.NewService(shipments.NewInMemoryRepository(nil))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewShipmentHandler(svc, exporter.NewCSVExporter(), logger), svc
}

func seedShipments(t *testing.T, svc *shipments.Service, count int) []shipments.Shipment {
	t.Helper()
	created := make([]shipments.Shipment, 0, count)
	for i := 0; i < count; i++ {
		s, err := svc.Create(context.Background(), testOwnerID, shipments.CreateShipmentInput{
			Origin:      fmt.Sprintf("Origin %d", i),
			Destination: fmt.Sprintf("Destination %d", i),
		})
		if err != nil {
			t.Fatalf("seed shipment: %v", err)
		}
		created = append(created, s)
	}
	return created
}

func TestShipmentCreateDefaultsAndStatus(t *testing.T) {
	handler, _ := newShipmentHandler(t)

	body := strings.NewReader(`{"origin":" Oslo ","destination":"Bergen","tracking_number":"  "}`)
	req := reqWithUser(httptest.NewRequest(http.MethodPost, "/api/shipments", body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var s shipments.Shipment
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if s.Origin != "Oslo" {
		t.Fatalf("expected trimmed origin, got %q", s.Origin)
	}
	if s.Status != shipments.StatusPending {
		t.Fatalf("expected default status Pending, got %q", s.Status)
	}
	if s.TrackingNumber != nil {
		t.Fatalf("expected blank tracking number to be null, got %q", *s.TrackingNumber)
	}
}

func TestShipmentCreateValidation(t *testing.T) {
	handler, _ := newShipmentHandler(t)

	body := strings.NewReader(`{"origin":"","destination":"Bergen"}`)
	req := reqWithUser(httptest.NewRequest(http.MethodPost, "/api/shipments", body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestShipmentListPaginationMetadata(t *testing.T) {
	handler, svc := newShipmentHandler(t)
	seedShipments(t, svc, 13)

	req := reqWithUser(httptest.NewRequest(http.MethodGet, "/api/shipments?page=2", nil))
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result shipments.ListResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.TotalCount != 13 || result.TotalPages != 3 || result.Page != 2 {
		t.Fatalf("unexpected pagination: %+v", result)
	}
	if len(result.Shipments) != shipments.PageSize {
		t.Fatalf("expected a full page of %d, got %d", shipments.PageSize, len(result.Shipments))
	}
	if len(result.PageNumbers) != 3 {
		t.Fatalf("expected page numbers [1 2 3], got %v", result.PageNumbers)
	}
}

func TestShipmentListRejectsBadFilters(t *testing.T) {
	handler, _ := newShipmentHandler(t)

	for _, target := range []string{
		"/api/shipments?status=Bogus",
		"/api/shipments?page=0",
		"/api/shipments?page=x",
	} {
		req := reqWithUser(httptest.NewRequest(http.MethodGet, target, nil))
		rec := httptest.NewRecorder()
		handler.List(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected status 400, got %d", target, rec.Code)
		}
	}
}

func TestShipmentListAllStatusMeansNoFilter(t *testing.T) {
	handler, svc := newShipmentHandler(t)
	seeded := seedShipments(t, svc, 2)
	if _, err := svc.UpdateStatus(context.Background(), seeded[0].ID, testOwnerID, shipments.StatusDelivered); err != nil {
		t.Fatalf("update status: %v", err)
	}

	req := reqWithUser(httptest.NewRequest(http.MethodGet, "/api/shipments?status=All", nil))
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	var result shipments.ListResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.TotalCount != 2 {
		t.Fatalf("expected both shipments with status=All, got %d", result.TotalCount)
	}
}

func TestShipmentGetInvalidAndMissingID(t *testing.T) {
	handler, _ := newShipmentHandler(t)

	req := reqWithUser(httptest.NewRequest(http.MethodGet, "/api/shipments/nope", nil))
	req = reqWithURLParam(req, "id", "nope")
	rec := httptest.NewRecorder()
	handler.Get(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for invalid id, got %d", rec.Code)
	}

	missing := uuid.New().String()
	req = reqWithUser(httptest.NewRequest(http.MethodGet, "/api/shipments/"+missing, nil))
	req = reqWithURLParam(req, "id", missing)
	rec = httptest.NewRecorder()
	handler.Get(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for unknown id, got %d", rec.Code)
	}
}

func TestShipmentUpdateStatus(t *testing.T) {
	handler, svc := newShipmentHandler(t)
	seeded := seedShipments(t, svc, 1)
	id := seeded[0].ID.String()

	body := strings.NewReader(`{"status":"In Transit"}`)
	req := reqWithUser(httptest.NewRequest(http.MethodPut, "/api/shipments/"+id+"/status", body))
	req = reqWithURLParam(req, "id", id)
	rec := httptest.NewRecorder()

	handler.UpdateStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var s shipments.Shipment
	if err := json.Unmarshal(rec.Body.Bytes(), &s); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if s.Status != shipments.StatusInTransit {
		t.Fatalf("expected status In Transit, got %q", s.Status)
	}
}

func TestShipmentUpdateStatusRejectsUnknownValue(t *testing.T) {
	handler, svc := newShipmentHandler(t)
	seeded := seedShipments(t, svc, 1)
	id := seeded[0].ID.String()

	body := strings.NewReader(`{"status":"Lost"}`)
	req := reqWithUser(httptest.NewRequest(http.MethodPut, "/api/shipments/"+id+"/status", body))
	req = reqWithURLParam(req, "id", id)
	rec := httptest.NewRecorder()

	handler.UpdateStatus(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestShipmentDelete(t *testing.T) {
	handler, svc := newShipmentHandler(t)
	seeded := seedShipments(t, svc, 1)
	id := seeded[0].ID.String()

	req := reqWithUser(httptest.NewRequest(http.MethodDelete, "/api/shipments/"+id, nil))
	req = reqWithURLParam(req, "id", id)
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if _, err := svc.Get(context.Background(), seeded[0].ID, testOwnerID); err == nil {
		t.Fatal("expected shipment to be deleted")
	}
}

func TestShipmentExportStreamsCSV(t *testing.T) {
	handler, svc := newShipmentHandler(t)
	seedShipments(t, svc, 3)

	req := reqWithUser(httptest.NewRequest(http.MethodGet, "/api/shipments/export", nil))
	rec := httptest.NewRecorder()

	handler.Export(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected text/csv content type, got %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Fatalf("expected attachment disposition, got %q", cd)
	}

	records, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("parse exported CSV: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(records))
	}
}

func TestShipmentExportEmptySetIs404(t *testing.T) {
	handler, _ := newShipmentHandler(t)

	req := reqWithUser(httptest.NewRequest(http.MethodGet, "/api/shipments/export", nil))
	rec := httptest.NewRecorder()

	handler.Export(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "no shipments to export") {
		t.Fatalf("expected no-data message, got %s", rec.Body.String())
	}
}

func TestShipmentEndpointsRequireUser(t *testing.T) {
	handler, _ := newShipmentHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/shipments", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}
