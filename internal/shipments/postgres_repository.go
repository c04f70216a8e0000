package shipments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// PostgresRepository persists shipments to a Postgres database.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository constructs a repository backed by sqlx.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const baseSelect = `
SELECT id, owner_id, origin, destination, status, tracking_number, created_at, updated_at
FROM shipments
`

// Create inserts a new row and returns the stored representation.
func (r *PostgresRepository) Create(ctx context.Context, shipment Shipment) (Shipment, error) {
	const insert = `
INSERT INTO shipments (id, owner_id, origin, destination, status, tracking_number, created_at, updated_at)
VALUES (:id, :owner_id, :origin, :destination, :status, :tracking_number, :created_at, :updated_at)`

	if _, err := r.db.NamedExecContext(ctx, insert, shipment); err != nil {
		return Shipment{}, fmt.Errorf("insert shipment: %w", err)
	}

	return r.Get(ctx, shipment.ID, shipment.OwnerID)
}

// Get retrieves a row by primary key and owner.
func (r *PostgresRepository) Get(ctx context.Context, id, ownerID uuid.UUID) (Shipment, error) {
	var shipment Shipment
	if err := r.db.GetContext(ctx, &shipment, baseSelect+" WHERE id = $1 AND owner_id = $2", id, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Shipment{}, ErrNotFound
		}
		return Shipment{}, fmt.Errorf("get shipment: %w", err)
	}
	return shipment, nil
}

// List returns one page of rows ordered by creation timestamp descending,
// plus the total count matching the filters.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) ([]Shipment, int, error) {
	clauses := []string{}
	args := []any{}

	// Owner scoping is not optional.
	clauses = append(clauses, fmt.Sprintf("owner_id = $%d", len(args)+1))
	args = append(args, opts.OwnerID)

	if opts.Status != nil {
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *opts.Status)
	}

	if opts.Query != "" {
		pattern := "%" + escapeLike(opts.Query) + "%"
		n := len(args) + 1
		clauses = append(clauses, fmt.Sprintf(
			"(origin ILIKE $%d OR destination ILIKE $%d OR tracking_number ILIKE $%d)", n, n, n))
		args = append(args, pattern)
	}

	where := " WHERE " + strings.Join(clauses, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM shipments"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count shipments: %w", err)
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * PageSize

	query := baseSelect + where + fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, PageSize, offset)

	rows := []Shipment{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list shipments: %w", err)
	}
	return rows, total, nil
}

// ListAll returns every row for the owner, newest first.
func (r *PostgresRepository) ListAll(ctx context.Context, ownerID uuid.UUID) ([]Shipment, error) {
	rows := []Shipment{}
	query := baseSelect + " WHERE owner_id = $1 ORDER BY created_at DESC"
	if err := r.db.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, fmt.Errorf("list all shipments: %w", err)
	}
	return rows, nil
}

// Update replaces the mutable columns of an existing row.
func (r *PostgresRepository) Update(ctx context.Context, shipment Shipment) (Shipment, error) {
	const update = `
UPDATE shipments
SET origin = :origin, destination = :destination, status = :status,
    tracking_number = :tracking_number, updated_at = :updated_at
WHERE id = :id AND owner_id = :owner_id`

	result, err := r.db.NamedExecContext(ctx, update, shipment)
	if err != nil {
		return Shipment{}, fmt.Errorf("update shipment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return Shipment{}, fmt.Errorf("update shipment: %w", err)
	}
	if affected == 0 {
		return Shipment{}, ErrNotFound
	}

	return r.Get(ctx, shipment.ID, shipment.OwnerID)
}

// Delete removes a row by primary key and owner.
func (r *PostgresRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM shipments WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete shipment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete shipment: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Recent returns the owner's newest rows up to limit.
func (r *PostgresRepository) Recent(ctx context.Context, ownerID uuid.UUID, limit int) ([]Shipment, error) {
	rows := []Shipment{}
	query := baseSelect + " WHERE owner_id = $1 ORDER BY created_at DESC LIMIT $2"
	if err := r.db.SelectContext(ctx, &rows, query, ownerID, limit); err != nil {
		return nil, fmt.Errorf("recent shipments: %w", err)
	}
	return rows, nil
}

// StatusValues returns the owner's status column in creation order.
func (r *PostgresRepository) StatusValues(ctx context.Context, ownerID uuid.UUID) ([]Status, error) {
	values := []Status{}
	query := `SELECT status FROM shipments WHERE owner_id = $1 ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &values, query, ownerID); err != nil {
		return nil, fmt.Errorf("status values: %w", err)
	}
	return values, nil
}

// escapeLike neutralizes LIKE metacharacters in user-supplied search terms.
func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}
