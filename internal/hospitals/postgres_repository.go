package hospitals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PgxDB is the subset of pgxpool.Pool the repository uses. pgxmock satisfies
// it for tests.
type PgxDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository stores hospitals in the relational database.
type PostgresRepository struct {
	db PgxDB
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db PgxDB) *PostgresRepository {
	if db == nil {
		panic("hospitals: pgx db required")
	}
	return &PostgresRepository{db: db}
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, req *UpsertHospitalRequest) (*Hospital, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	query := `
		INSERT INTO hospitals (id, name, city, discount_percent)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	var createdAt, updatedAt time.Time
	if err := r.db.QueryRow(ctx, query, id, req.Name, req.City, req.DiscountPercent).
		Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("hospitals: insert failed: %w", err)
	}

	return &Hospital{
		ID:              id,
		Name:            req.Name,
		City:            req.City,
		DiscountPercent: req.DiscountPercent,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}, nil
}

// Update replaces the mutable fields of a hospital.
func (r *PostgresRepository) Update(ctx context.Context, id string, req *UpsertHospitalRequest) (*Hospital, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	query := `
		UPDATE hospitals
		SET name = $2, city = $3, discount_percent = $4, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at
	`
	var createdAt, updatedAt time.Time
	if err := r.db.QueryRow(ctx, query, id, req.Name, req.City, req.DiscountPercent).
		Scan(&createdAt, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHospitalNotFound
		}
		return nil, fmt.Errorf("hospitals: update failed: %w", err)
	}

	return &Hospital{
		ID:              id,
		Name:            req.Name,
		City:            req.City,
		DiscountPercent: req.DiscountPercent,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}, nil
}

// GetByID fetches a hospital.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Hospital, error) {
	query := `
		SELECT id, name, city, discount_percent, created_at, updated_at
		FROM hospitals
		WHERE id = $1
	`
	var h Hospital
	err := r.db.QueryRow(ctx, query, id).Scan(
		&h.ID, &h.Name, &h.City, &h.DiscountPercent, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHospitalNotFound
		}
		return nil, fmt.Errorf("hospitals: select failed: %w", err)
	}
	return &h, nil
}

// List returns all hospitals ordered by name.
func (r *PostgresRepository) List(ctx context.Context) ([]*Hospital, error) {
	query := `
		SELECT id, name, city, discount_percent, created_at, updated_at
		FROM hospitals
		ORDER BY name
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("hospitals: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Hospital
	for rows.Next() {
		var h Hospital
		if err := rows.Scan(&h.ID, &h.Name, &h.City, &h.DiscountPercent, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("hospitals: scan failed: %w", err)
		}
		out = append(out, &h)
	}
	return out, rows.Err()
}

var _ Repository = (*PostgresRepository)(nil)
