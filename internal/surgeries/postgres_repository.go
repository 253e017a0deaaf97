package surgeries

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// PgxDB is the subset of pgxpool.Pool the repository uses.
type PgxDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository reads the surgery catalog from the relational database.
type PostgresRepository struct {
	db PgxDB
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db PgxDB) *PostgresRepository {
	if db == nil {
		panic("surgeries: pgx db required")
	}
	return &PostgresRepository{db: db}
}

// List returns the catalog sorted by name.
func (r *PostgresRepository) List(ctx context.Context) ([]*Surgery, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, slug FROM surgeries ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("surgeries: list failed: %w", err)
	}
	defer rows.Close()
	return scanAll(rows)
}

// GetByID fetches a surgery.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Surgery, error) {
	var s Surgery
	err := r.db.QueryRow(ctx, `SELECT id, name, slug FROM surgeries WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSurgeryNotFound
		}
		return nil, fmt.Errorf("surgeries: select failed: %w", err)
	}
	return &s, nil
}

// ListByDoctor returns the surgeries linked to a doctor.
func (r *PostgresRepository) ListByDoctor(ctx context.Context, doctorID string) ([]*Surgery, error) {
	query := `
		SELECT s.id, s.name, s.slug
		FROM surgeries s
		JOIN doctor_surgeries ds ON ds.surgery_id = s.id
		WHERE ds.doctor_id = $1
		ORDER BY s.name
	`
	rows, err := r.db.Query(ctx, query, doctorID)
	if err != nil {
		return nil, fmt.Errorf("surgeries: list by doctor failed: %w", err)
	}
	defer rows.Close()
	return scanAll(rows)
}

func scanAll(rows pgx.Rows) ([]*Surgery, error) {
	var out []*Surgery
	for rows.Next() {
		var s Surgery
		if err := rows.Scan(&s.ID, &s.Name, &s.Slug); err != nil {
			return nil, fmt.Errorf("surgeries: scan failed: %w", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

var _ Repository = (*PostgresRepository)(nil)
