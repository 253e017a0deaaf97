package leads

import (
	"context"
	"errors"
	"fmt"

	"github.com/caregate/lead-platform/internal/hospitals"
	"github.com/caregate/lead-platform/internal/observability/metrics"
	"github.com/caregate/lead-platform/internal/session"
	"github.com/caregate/lead-platform/pkg/logging"
)

// Notifier is told about committed status changes. Implementations dispatch
// asynchronously; the service never waits on them.
type Notifier interface {
	LeadStatusChanged(lead *Lead, previous Status)
}

// Service is the authorization boundary for lead access. Every operation
// resolves the caller's principal into a scope first and passes that scope to
// the repository, so there is no unfiltered id lookup anywhere in the flow.
type Service struct {
	repo      Repository
	hospitals hospitals.Repository
	machine   *StateMachine
	notifier  Notifier
	metrics   *metrics.PlatformMetrics
	logger    *logging.Logger
}

// NewService creates a lead service. notifier and metrics may be nil.
func NewService(repo Repository, hospitalRepo hospitals.Repository, machine *StateMachine, notifier Notifier, m *metrics.PlatformMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:      repo,
		hospitals: hospitalRepo,
		machine:   machine,
		notifier:  notifier,
		metrics:   m,
		logger:    logger,
	}
}

// Create handles the public intake flow. No session is involved; the lead
// starts in NEW with zeroed money fields.
func (s *Service) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	lead, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info("lead created", "lead_id", lead.ID, "reference_id", lead.ReferenceID)
	return lead, nil
}

// Get returns one lead visible to the principal.
func (s *Service) Get(ctx context.Context, p session.Principal, id string) (*Lead, error) {
	scope, err := session.Authorize(p, session.OpReadLeads)
	if err != nil {
		return nil, err
	}
	lead, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		return nil, maskNotFound(scope, err)
	}
	return lead, nil
}

// GetOwn returns the single lead a patient session is scoped to.
func (s *Service) GetOwn(ctx context.Context, p session.Principal) (*Lead, error) {
	scope, err := session.Authorize(p, session.OpReadLeads)
	if err != nil {
		return nil, err
	}
	if scope.LeadID == "" {
		return nil, session.ErrForbidden
	}
	return s.repo.FindByID(ctx, scope, scope.LeadID)
}

// List returns the leads visible to the principal.
func (s *Service) List(ctx context.Context, p session.Principal, filter ListFilter) ([]*Lead, error) {
	scope, err := session.Authorize(p, session.OpReadLeads)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, scope, filter)
}

// UpdateDetails corrects contact details, notes and flags. Admin only; it
// cannot touch status or any money field.
func (s *Service) UpdateDetails(ctx context.Context, p session.Principal, id string, req *UpdateDetailsRequest) (*Lead, error) {
	scope, err := session.Authorize(p, session.OpWriteLead)
	if err != nil {
		return nil, err
	}
	if !scope.Unrestricted() {
		return nil, session.ErrForbidden
	}

	lead, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	patch := UpdatePatch{
		FullName:    req.FullName,
		Phone:       req.Phone,
		Email:       req.Email,
		City:        req.City,
		Notes:       req.Notes,
		IsEmergency: req.IsEmergency,
	}
	return s.repo.Update(ctx, scope, id, patch, lead.Version)
}

// Transition moves a lead to a new status on behalf of the principal. The
// status change and any refreshed money fields are persisted in one
// conditional write; a racing writer surfaces as ErrVersionConflict with
// nothing persisted. Notification dispatch happens after the commit and can
// never fail the call.
func (s *Service) Transition(ctx context.Context, p session.Principal, id string, req TransitionRequest) (*Lead, error) {
	scope, err := session.Authorize(p, session.OpWriteLead)
	if err != nil {
		s.metrics.ObserveTransition(string(req.To), string(p.Role), "forbidden")
		return nil, err
	}

	lead, err := s.repo.FindByID(ctx, scope, id)
	if err != nil {
		s.metrics.ObserveTransition(string(req.To), string(scope.Role), "not_found")
		return nil, maskNotFound(scope, err)
	}
	previous := lead.Status

	hospital, err := s.hospitalForTransition(ctx, lead, req)
	if err != nil {
		s.metrics.ObserveTransition(string(req.To), string(scope.Role), "rejected")
		return nil, err
	}

	next, err := s.machine.Apply(lead, req, scope.Role, hospital)
	if err != nil {
		s.metrics.ObserveTransition(string(req.To), string(scope.Role), "rejected")
		return nil, err
	}

	updated, err := s.repo.Update(ctx, scope, id, s.machine.Patch(next), lead.Version)
	if err != nil {
		s.metrics.ObserveTransition(string(req.To), string(scope.Role), "conflict")
		return nil, maskNotFound(scope, err)
	}

	s.metrics.ObserveTransition(string(req.To), string(scope.Role), "ok")
	s.logger.Info("lead transitioned",
		"lead_id", updated.ID,
		"from", string(previous),
		"to", string(updated.Status),
		"role", string(scope.Role),
	)

	if s.notifier != nil {
		s.notifier.LeadStatusChanged(updated, previous)
	}
	return updated, nil
}

// hospitalForTransition resolves the hospital record for the lead's
// post-transition assignment, or nil when it stays unassigned.
func (s *Service) hospitalForTransition(ctx context.Context, lead *Lead, req TransitionRequest) (*hospitals.Hospital, error) {
	hospitalID := lead.HospitalID
	if req.HospitalID != nil {
		hospitalID = *req.HospitalID
	}
	if hospitalID == "" {
		return nil, nil
	}
	hospital, err := s.hospitals.GetByID(ctx, hospitalID)
	if err != nil {
		if errors.Is(err, hospitals.ErrHospitalNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownHospital, hospitalID)
		}
		return nil, err
	}
	return hospital, nil
}

// maskNotFound hides existence from restricted scopes: a lead a partner or
// patient cannot see answers Forbidden whether or not it exists.
func maskNotFound(scope session.Scope, err error) error {
	if errors.Is(err, ErrLeadNotFound) && !scope.Unrestricted() {
		return session.ErrForbidden
	}
	return err
}
