package leads

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/caregate/lead-platform/internal/session"
)

// Repository defines the interface for lead storage. Every read and write is
// constructed through a session scope: a lead outside the scope behaves as if
// it did not exist. Update is a conditional write on the lead's version.
type Repository interface {
	Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error)
	FindByID(ctx context.Context, scope session.Scope, id string) (*Lead, error)
	List(ctx context.Context, scope session.Scope, filter ListFilter) ([]*Lead, error)
	FindLatestByPhone(ctx context.Context, phone string) (*Lead, error)
	Update(ctx context.Context, scope session.Scope, id string, patch UpdatePatch, expectedVersion int64) (*Lead, error)
}

// InMemoryRepository is a Repository backed by an in-memory map, used in
// tests and development.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{leads: make(map[string]*Lead)}
}

// Create creates a new lead in status NEW with a fresh reference id.
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	lead := &Lead{
		ID:          uuid.New().String(),
		ReferenceID: NewReferenceID(),
		SurgeryID:   req.SurgeryID,
		Status:      StatusNew,
		HasCard:     req.HasCard,
		IsEmergency: req.IsEmergency,
		Notes:       req.Notes,
		FullName:    req.FullName,
		Phone:       req.Phone,
		Email:       req.Email,
		City:        req.City,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	r.mu.Lock()
	r.leads[lead.ID] = lead
	r.mu.Unlock()

	copy := *lead
	return &copy, nil
}

// FindByID retrieves a lead visible inside the scope.
func (r *InMemoryRepository) FindByID(ctx context.Context, scope session.Scope, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok || !scope.AllowsLead(lead.ID, lead.HospitalID) {
		return nil, ErrLeadNotFound
	}
	copy := *lead
	return &copy, nil
}

// List returns the leads visible inside the scope, newest first.
func (r *InMemoryRepository) List(ctx context.Context, scope session.Scope, filter ListFilter) ([]*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Lead
	for _, lead := range r.leads {
		if !scope.AllowsLead(lead.ID, lead.HospitalID) {
			continue
		}
		if filter.Status != "" && lead.Status != filter.Status {
			continue
		}
		copy := *lead
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// FindLatestByPhone returns the most recent lead for a phone number. Used
// only by the OTP login flow, which runs before any session exists.
func (r *InMemoryRepository) FindLatestByPhone(ctx context.Context, phone string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *Lead
	for _, lead := range r.leads {
		if lead.Phone != phone {
			continue
		}
		if latest == nil || lead.CreatedAt.After(latest.CreatedAt) {
			latest = lead
		}
	}
	if latest == nil {
		return nil, ErrLeadNotFound
	}
	copy := *latest
	return &copy, nil
}

// Update applies the patch if the lead is inside the scope and its version
// matches. A lost race returns ErrVersionConflict and writes nothing.
func (r *InMemoryRepository) Update(ctx context.Context, scope session.Scope, id string, patch UpdatePatch, expectedVersion int64) (*Lead, error) {
	if scope.ReadOnly {
		return nil, session.ErrForbidden
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok || !scope.AllowsLead(lead.ID, lead.HospitalID) {
		return nil, ErrLeadNotFound
	}
	if lead.Version != expectedVersion {
		return nil, ErrVersionConflict
	}

	applyPatch(lead, patch)
	lead.Version++
	lead.UpdatedAt = time.Now().UTC()

	copy := *lead
	return &copy, nil
}

func applyPatch(lead *Lead, patch UpdatePatch) {
	if patch.Status != nil {
		lead.Status = *patch.Status
	}
	if patch.HospitalID != nil {
		lead.HospitalID = *patch.HospitalID
	}
	if patch.OriginalCost != nil {
		cost := *patch.OriginalCost
		lead.OriginalCost = &cost
	}
	if patch.HasCard != nil {
		lead.HasCard = *patch.HasCard
	}
	if patch.Discount != nil {
		lead.Discount = *patch.Discount
	}
	if patch.DiscountedCost != nil {
		lead.DiscountedCost = *patch.DiscountedCost
	}
	if patch.Revenue != nil {
		lead.Revenue = *patch.Revenue
	}
	if patch.FullName != nil {
		lead.FullName = *patch.FullName
	}
	if patch.Phone != nil {
		lead.Phone = *patch.Phone
	}
	if patch.Email != nil {
		lead.Email = *patch.Email
	}
	if patch.City != nil {
		lead.City = *patch.City
	}
	if patch.Notes != nil {
		lead.Notes = *patch.Notes
	}
	if patch.IsEmergency != nil {
		lead.IsEmergency = *patch.IsEmergency
	}
}
