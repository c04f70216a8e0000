package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PostgresRepository persists profiles to a Postgres database.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository constructs a repository backed by sqlx.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get retrieves a profile by user ID.
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (Profile, error) {
	var p Profile
	query := `SELECT id, first_name, last_name, avatar_url, updated_at FROM profiles WHERE id = $1`
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// EnsureProfile creates an empty profile row for the user if none exists.
func (r *PostgresRepository) EnsureProfile(ctx context.Context, id uuid.UUID) error {
	query := `INSERT INTO profiles (id, updated_at) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("ensure profile: %w", err)
	}
	return nil
}

// UpdateNames stores the name fields and returns the stored row.
func (r *PostgresRepository) UpdateNames(ctx context.Context, id uuid.UUID, firstName, lastName string) (Profile, error) {
	query := `UPDATE profiles SET first_name = $2, last_name = $3, updated_at = $4 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, firstName, lastName, time.Now().UTC())
	if err != nil {
		return Profile{}, fmt.Errorf("update profile names: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return Profile{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

// UpdateAvatarURL stores the avatar URL (nil clears it) and returns the stored row.
func (r *PostgresRepository) UpdateAvatarURL(ctx context.Context, id uuid.UUID, url *string) (Profile, error) {
	query := `UPDATE profiles SET avatar_url = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, url, time.Now().UTC())
	if err != nil {
		return Profile{}, fmt.Errorf("update avatar url: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return Profile{}, ErrNotFound
	}
	return r.Get(ctx, id)
}
