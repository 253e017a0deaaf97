package hospitals

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for hospital storage
type Repository interface {
	Create(ctx context.Context, req *UpsertHospitalRequest) (*Hospital, error)
	Update(ctx context.Context, id string, req *UpsertHospitalRequest) (*Hospital, error)
	GetByID(ctx context.Context, id string) (*Hospital, error)
	List(ctx context.Context) ([]*Hospital, error)
}

// InMemoryRepository is a Repository backed by an in-memory map, used in
// tests and development.
type InMemoryRepository struct {
	mu        sync.RWMutex
	hospitals map[string]*Hospital
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{hospitals: make(map[string]*Hospital)}
}

// Create adds a new hospital
func (r *InMemoryRepository) Create(ctx context.Context, req *UpsertHospitalRequest) (*Hospital, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	h := &Hospital{
		ID:              uuid.New().String(),
		Name:            req.Name,
		City:            req.City,
		DiscountPercent: req.DiscountPercent,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	r.mu.Lock()
	r.hospitals[h.ID] = h
	r.mu.Unlock()

	return h, nil
}

// Update replaces the mutable fields of a hospital
func (r *InMemoryRepository) Update(ctx context.Context, id string, req *UpsertHospitalRequest) (*Hospital, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.hospitals[id]
	if !ok {
		return nil, ErrHospitalNotFound
	}
	h.Name = req.Name
	h.City = req.City
	h.DiscountPercent = req.DiscountPercent
	h.UpdatedAt = time.Now().UTC()

	copy := *h
	return &copy, nil
}

// GetByID retrieves a hospital by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Hospital, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.hospitals[id]
	if !ok {
		return nil, ErrHospitalNotFound
	}
	copy := *h
	return &copy, nil
}

// List returns all hospitals
func (r *InMemoryRepository) List(ctx context.Context) ([]*Hospital, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Hospital, 0, len(r.hospitals))
	for _, h := range r.hospitals {
		copy := *h
		out = append(out, &copy)
	}
	return out, nil
}
