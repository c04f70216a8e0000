package profile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no profile row exists for a user.
var ErrNotFound = errors.New("profile not found")

// ErrValidation is returned when input validation fails.
var ErrValidation = errors.New("validation error")

// ErrBusy is returned when an avatar operation is already in flight for the user.
var ErrBusy = errors.New("another avatar operation is in progress")

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

// Profile holds the user-editable identity fields, one-to-one with a user.
type Profile struct {
	ID        uuid.UUID `db:"id" json:"-"`
	FirstName *string   `db:"first_name" json:"first_name"`
	LastName  *string   `db:"last_name" json:"last_name"`
	AvatarURL *string   `db:"avatar_url" json:"avatar_url"`
	UpdatedAt time.Time `db:"updated_at" json:"-"`
}

// Repository defines persistence operations for profiles.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (Profile, error)
	EnsureProfile(ctx context.Context, id uuid.UUID) error
	UpdateNames(ctx context.Context, id uuid.UUID, firstName, lastName string) (Profile, error)
	UpdateAvatarURL(ctx context.Context, id uuid.UUID, url *string) (Profile, error)
}
