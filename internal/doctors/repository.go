package doctors

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
)

// Repository defines read access to doctor profiles. Account management is an
// external admin concern.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Doctor, error)
}

// InMemoryRepository is a map-backed Repository for tests and development.
type InMemoryRepository struct {
	mu      sync.RWMutex
	doctors map[string]*Doctor
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{doctors: make(map[string]*Doctor)}
}

// Put adds a doctor profile.
func (r *InMemoryRepository) Put(d Doctor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doctors[d.ID] = &d
}

// GetByID retrieves a doctor profile.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Doctor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	copy := *d
	return &copy, nil
}

// PgxDB is the subset of pgxpool.Pool the repository uses.
type PgxDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository reads doctor profiles from the relational database.
type PostgresRepository struct {
	db PgxDB
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db PgxDB) *PostgresRepository {
	if db == nil {
		panic("doctors: pgx db required")
	}
	return &PostgresRepository{db: db}
}

// GetByID fetches a doctor profile.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Doctor, error) {
	var d Doctor
	err := r.db.QueryRow(ctx,
		`SELECT id, name, email, specialty FROM doctors WHERE id = $1`, id).
		Scan(&d.ID, &d.Name, &d.Email, &d.Specialty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("doctors: select failed: %w", err)
	}
	return &d, nil
}

var _ Repository = (*InMemoryRepository)(nil)
var _ Repository = (*PostgresRepository)(nil)
