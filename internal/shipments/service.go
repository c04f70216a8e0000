package shipments

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service orchestrates validation and persistence for shipments.
type Service struct {
	repo Repository
}

// NewService wires a Service with the provided repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and persists a new shipment for the owner. Status always
// starts at Pending; an empty tracking number is stored as null.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, input CreateShipmentInput) (Shipment, error) {
	origin, destination, tracking, err := normalizeFields(input.Origin, input.Destination, input.TrackingNumber)
	if err != nil {
		return Shipment{}, err
	}

	now := time.Now().UTC()
	shipment := Shipment{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Origin:         origin,
		Destination:    destination,
		Status:         StatusPending,
		TrackingNumber: tracking,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	return s.repo.Create(ctx, shipment)
}

// List returns one page of the owner's shipments plus pagination metadata.
// Pages are 1-indexed; out-of-range pages are clamped.
func (s *Service) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	opts.Query = strings.TrimSpace(opts.Query)

	items, total, err := s.repo.List(ctx, opts)
	if err != nil {
		return ListResult{}, err
	}

	totalPages := (total + PageSize - 1) / PageSize

	return ListResult{
		Shipments:   items,
		TotalCount:  total,
		Page:        opts.Page,
		PageSize:    PageSize,
		TotalPages:  totalPages,
		PageNumbers: PageNumbers(totalPages, opts.Page),
	}, nil
}

// Get retrieves a single shipment scoped to its owner.
func (s *Service) Get(ctx context.Context, id, ownerID uuid.UUID) (Shipment, error) {
	return s.repo.Get(ctx, id, ownerID)
}

// Update applies a field edit and returns the stored row read back after the
// write, so server-applied changes are always reflected.
func (s *Service) Update(ctx context.Context, id, ownerID uuid.UUID, input UpdateShipmentInput) (Shipment, error) {
	origin, destination, tracking, err := normalizeFields(input.Origin, input.Destination, input.TrackingNumber)
	if err != nil {
		return Shipment{}, err
	}

	existing, err := s.repo.Get(ctx, id, ownerID)
	if err != nil {
		return Shipment{}, err
	}

	existing.Origin = origin
	existing.Destination = destination
	existing.TrackingNumber = tracking
	existing.UpdatedAt = time.Now().UTC()

	if _, err := s.repo.Update(ctx, existing); err != nil {
		return Shipment{}, err
	}
	return s.repo.Get(ctx, id, ownerID)
}

// UpdateStatus moves a shipment to a new lifecycle status.
func (s *Service) UpdateStatus(ctx context.Context, id, ownerID uuid.UUID, status Status) (Shipment, error) {
	if !ValidStatus(status) {
		return Shipment{}, validationErr("status must be one of Pending, In Transit, Delivered, or Cancelled")
	}

	existing, err := s.repo.Get(ctx, id, ownerID)
	if err != nil {
		return Shipment{}, err
	}

	existing.Status = status
	existing.UpdatedAt = time.Now().UTC()

	if _, err := s.repo.Update(ctx, existing); err != nil {
		return Shipment{}, err
	}
	return s.repo.Get(ctx, id, ownerID)
}

// Delete removes a shipment. Deletion is immediate and irreversible.
func (s *Service) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	return s.repo.Delete(ctx, id, ownerID)
}

// ExportList returns the owner's entire shipment set, ignoring any search or
// status filters, for CSV export.
func (s *Service) ExportList(ctx context.Context, ownerID uuid.UUID) ([]Shipment, error) {
	return s.repo.ListAll(ctx, ownerID)
}

// Recent returns the owner's most recently created shipments.
func (s *Service) Recent(ctx context.Context, ownerID uuid.UUID, limit int) ([]Shipment, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.repo.Recent(ctx, ownerID, limit)
}

// Summary reduces the owner's status values into the fixed dashboard
// buckets. A status outside the known enum still counts toward Total.
func (s *Service) Summary(ctx context.Context, ownerID uuid.UUID) (Summary, error) {
	values, err := s.repo.StatusValues(ctx, ownerID)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Total: len(values)}
	for _, v := range values {
		switch v {
		case StatusPending:
			summary.Pending++
		case StatusInTransit:
			summary.InTransit++
		case StatusDelivered:
			summary.Delivered++
		case StatusCancelled:
			summary.Cancelled++
		}
	}
	return summary, nil
}

// Histogram groups the owner's shipments by status string, with buckets
// ordered by first encounter over rows walked in creation order.
func (s *Service) Histogram(ctx context.Context, ownerID uuid.UUID) ([]StatusCount, error) {
	values, err := s.repo.StatusValues(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	order := make([]string, 0, 4)
	for _, v := range values {
		key := string(v)
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	histogram := make([]StatusCount, 0, len(order))
	for _, key := range order {
		histogram = append(histogram, StatusCount{Status: key, Count: counts[key]})
	}
	return histogram, nil
}

func validationErr(msg string) error {
	return &ValidationError{Message: msg}
}

// normalizeFields trims and validates the user-editable shipment fields.
// The empty tracking number is coerced to null.
func normalizeFields(origin, destination, tracking string) (string, string, *string, error) {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return "", "", nil, validationErr("origin is required")
	}

	destination = strings.TrimSpace(destination)
	if destination == "" {
		return "", "", nil, validationErr("destination is required")
	}

	tracking = strings.TrimSpace(tracking)
	if tracking == "" {
		return origin, destination, nil, nil
	}
	return origin, destination, &tracking, nil
}
