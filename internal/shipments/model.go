package shipments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a shipment cannot be located for the caller.
// A row owned by someone else is reported the same way as a missing row.
var ErrNotFound = errors.New("shipment not found")

// ErrValidation is returned when input validation fails.
var ErrValidation = errors.New("validation error")

// ValidationError wraps a validation message so callers can distinguish
// client errors from internal failures.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Status tracks a shipment through its delivery lifecycle.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusInTransit Status = "In Transit"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

// Statuses lists the valid status values in lifecycle order.
var Statuses = []Status{StatusPending, StatusInTransit, StatusDelivered, StatusCancelled}

// ValidStatus reports whether value is one of the known statuses.
func ValidStatus(value Status) bool {
	switch value {
	case StatusPending, StatusInTransit, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// PageSize is the fixed page window for shipment listings.
const PageSize = 6

// Shipment is a tracked consignment owned by a single user.
type Shipment struct {
	ID             uuid.UUID `db:"id" json:"id"`
	OwnerID        uuid.UUID `db:"owner_id" json:"-"`
	Origin         string    `db:"origin" json:"origin"`
	Destination    string    `db:"destination" json:"destination"`
	Status         Status    `db:"status" json:"status"`
	TrackingNumber *string   `db:"tracking_number" json:"tracking_number"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// CreateShipmentInput captures the data needed to create a new shipment.
type CreateShipmentInput struct {
	Origin         string
	Destination    string
	TrackingNumber string
}

// UpdateShipmentInput captures the editable fields of an existing shipment.
type UpdateShipmentInput struct {
	Origin         string
	Destination    string
	TrackingNumber string
}

// ListOptions describes filters for listing shipments. OwnerID is mandatory:
// every query is scoped to the requesting user.
type ListOptions struct {
	OwnerID uuid.UUID
	Status  *Status
	Query   string
	Page    int
}

// ListResult is one page of shipments plus the pagination metadata the list
// view renders from.
type ListResult struct {
	Shipments   []Shipment `json:"shipments"`
	TotalCount  int        `json:"totalCount"`
	Page        int        `json:"page"`
	PageSize    int        `json:"pageSize"`
	TotalPages  int        `json:"totalPages"`
	PageNumbers []int      `json:"pageNumbers"`
}

// Summary holds the per-status counts for the dashboard cards. Unknown
// status values count toward Total only.
type Summary struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	InTransit int `json:"inTransit"`
	Delivered int `json:"delivered"`
	Cancelled int `json:"cancelled"`
}

// StatusCount is one histogram bucket.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Repository defines persistence operations for shipments. Every method
// filters by the owner identifier it is given.
type Repository interface {
	Create(ctx context.Context, shipment Shipment) (Shipment, error)
	Get(ctx context.Context, id, ownerID uuid.UUID) (Shipment, error)
	List(ctx context.Context, opts ListOptions) ([]Shipment, int, error)
	ListAll(ctx context.Context, ownerID uuid.UUID) ([]Shipment, error)
	Update(ctx context.Context, shipment Shipment) (Shipment, error)
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
	Recent(ctx context.Context, ownerID uuid.UUID, limit int) ([]Shipment, error)
	StatusValues(ctx context.Context, ownerID uuid.UUID) ([]Status, error)
}
