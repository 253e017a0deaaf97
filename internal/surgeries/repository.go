package surgeries

import (
	"context"
	"sort"
	"sync"
)

// Repository defines read access to the surgery catalog. The catalog is
// maintained out-of-band; this core only reads it.
type Repository interface {
	List(ctx context.Context) ([]*Surgery, error)
	GetByID(ctx context.Context, id string) (*Surgery, error)
	ListByDoctor(ctx context.Context, doctorID string) ([]*Surgery, error)
}

// InMemoryRepository is a map-backed Repository for tests and development.
type InMemoryRepository struct {
	mu        sync.RWMutex
	surgeries map[string]*Surgery
	byDoctor  map[string][]string
}

// NewInMemoryRepository creates an empty in-memory catalog.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		surgeries: make(map[string]*Surgery),
		byDoctor:  make(map[string][]string),
	}
}

// Put adds a surgery to the catalog.
func (r *InMemoryRepository) Put(s Surgery) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surgeries[s.ID] = &s
}

// Link associates a surgery with a doctor.
func (r *InMemoryRepository) Link(doctorID, surgeryID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byDoctor[doctorID] = append(r.byDoctor[doctorID], surgeryID)
}

// List returns the catalog sorted by name.
func (r *InMemoryRepository) List(ctx context.Context) ([]*Surgery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Surgery, 0, len(r.surgeries))
	for _, s := range r.surgeries {
		copy := *s
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetByID retrieves a surgery.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Surgery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.surgeries[id]
	if !ok {
		return nil, ErrSurgeryNotFound
	}
	copy := *s
	return &copy, nil
}

// ListByDoctor returns the surgeries linked to a doctor.
func (r *InMemoryRepository) ListByDoctor(ctx context.Context, doctorID string) ([]*Surgery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Surgery
	for _, id := range r.byDoctor[doctorID] {
		if s, ok := r.surgeries[id]; ok {
			copy := *s
			out = append(out, &copy)
		}
	}
	return out, nil
}
