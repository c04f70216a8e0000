package main

import (
	"time"

	"github.com/google/uuid"

	"freightdeck/internal/shipments"
)

// demoOwnerID owns the seeded shipments. Sign-in is usually disabled in
// memory mode, so the fixed owner keeps local API exploration predictable.
var demoOwnerID = uuid.MustParse("11111111-1111-1111-1111-111111111111")

// seedLocalShipments returns demo shipments for local development.
func seedLocalShipments() []shipments.Shipment {
	now := time.Now().UTC()
	track := func(t string) *string { return &t }

	rows := []struct {
		origin      string
		destination string
		status      shipments.Status
		tracking    *string
	}{
		{"Rotterdam, NL", "Hamburg, DE", shipments.StatusInTransit, track("FD-2481-EU")},
		{"Shanghai, CN", "Los Angeles, US", shipments.StatusInTransit, track("FD-9930-TP")},
		{"Oslo, NO", "Aberdeen, UK", shipments.StatusPending, nil},
		{"Gdansk, PL", "Gothenburg, SE", shipments.StatusDelivered, track("FD-1105-BA")},
		{"Singapore, SG", "Colombo, LK", shipments.StatusDelivered, track("FD-7718-IO")},
		{"Valparaiso, CL", "Yokohama, JP", shipments.StatusCancelled, track("FD-3322-PA")},
		{"Antwerp, BE", "Montreal, CA", shipments.StatusPending, nil},
		{"Santos, BR", "Lagos, NG", shipments.StatusInTransit, track("FD-5544-AT")},
	}

	seeded := make([]shipments.Shipment, 0, len(rows))
	for i, row := range rows {
		created := now.Add(-time.Duration(len(rows)-i) * 26 * time.Hour)
		seeded = append(seeded, shipments.Shipment{
			ID:             uuid.New(),
			OwnerID:        demoOwnerID,
			Origin:         row.origin,
			Destination:    row.destination,
			Status:         row.status,
			TrackingNumber: row.tracking,
			CreatedAt:      created,
			UpdatedAt:      created,
		})
	}
	return seeded
}
