package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"freightdeck/internal/shipments"
)

// csvColumns defines the column order for shipment exports.
var csvColumns = []string{
	"id",
	"origin",
	"destination",
	"status",
	"tracking_number",
	"created_at",
	"updated_at",
}

// CSVExporter serializes shipments to CSV.
type CSVExporter struct{}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Export writes the shipments to the given writer in CSV format, header first.
func (e *CSVExporter) Export(w io.Writer, list []shipments.Shipment) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(csvColumns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, s := range list {
		if err := writer.Write(e.shipmentToRow(s)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	return writer.Error()
}

func (e *CSVExporter) shipmentToRow(s shipments.Shipment) []string {
	tracking := ""
	if s.TrackingNumber != nil {
		tracking = *s.TrackingNumber
	}
	return []string{
		s.ID.String(),
		s.Origin,
		s.Destination,
		string(s.Status),
		tracking,
		formatTime(s.CreatedAt),
		formatTime(s.UpdatedAt),
	}
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Format(time.RFC3339)
}
