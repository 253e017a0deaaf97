package leads

import (
	"time"

	"github.com/caregate/lead-platform/internal/hospitals"
	"github.com/caregate/lead-platform/internal/session"
)

// StateMachine validates and applies status transitions. It enforces which
// role may trigger which transition and recomputes the derived money fields
// whenever hospital, cost or card inputs change, so the resulting patch
// always carries a consistent money state.
type StateMachine struct {
	calc Calculator
}

// NewStateMachine creates a state machine using the given calculator.
func NewStateMachine(calc Calculator) *StateMachine {
	return &StateMachine{calc: calc}
}

// allowed reports whether actor may move a lead from one status to another.
//
//	NEW -> CONTACTED -> QUALIFIED -> ASSIGNED -> SCHEDULED -> COMPLETED -> CLOSED
//
// CLOSED is reachable from any state but terminal. COMPLETED only moves to
// CLOSED, and only by admin. Partner drives ASSIGNED -> SCHEDULED ->
// COMPLETED and may close; everything else is admin's, and admin may force
// any transition as an override.
func (m *StateMachine) allowed(actor session.Role, from, to Status) bool {
	if from == StatusClosed {
		return false
	}
	if from == StatusCompleted {
		return to == StatusClosed && actor == session.RoleAdmin
	}

	switch actor {
	case session.RoleAdmin:
		return true
	case session.RolePartner:
		if to == StatusClosed {
			return true
		}
		switch {
		case from == StatusAssigned && to == StatusScheduled:
			return true
		case from == StatusScheduled && to == StatusCompleted:
			return true
		}
		return false
	}
	return false
}

// Apply validates the transition and returns the lead's post-state. The
// input lead is not mutated; on any error nothing is written anywhere.
// hospital must be the record for the lead's post-transition hospital
// assignment, or nil when unassigned.
func (m *StateMachine) Apply(lead *Lead, req TransitionRequest, actor session.Role, hospital *hospitals.Hospital) (*Lead, error) {
	if !req.To.Valid() {
		return nil, ErrInvalidStatus
	}
	if actor != session.RoleAdmin && actor != session.RolePartner {
		return nil, session.ErrForbidden
	}
	if req.HospitalID != nil && actor != session.RoleAdmin {
		// Assignment belongs to admin; partners only work leads already
		// assigned to them.
		return nil, session.ErrForbidden
	}
	if !m.allowed(actor, lead.Status, req.To) {
		return nil, &TransitionError{From: lead.Status, To: req.To}
	}

	next := *lead
	next.Status = req.To

	financeChanged := false
	if req.HospitalID != nil && *req.HospitalID != lead.HospitalID {
		next.HospitalID = *req.HospitalID
		financeChanged = true
	}
	if req.OriginalCost != nil {
		cost := *req.OriginalCost
		next.OriginalCost = &cost
		financeChanged = true
	}
	if req.HasCard != nil && *req.HasCard != lead.HasCard {
		next.HasCard = *req.HasCard
		financeChanged = true
	}
	if req.Notes != nil {
		next.Notes = *req.Notes
	}

	if financeChanged {
		if next.HospitalID != "" && (hospital == nil || hospital.ID != next.HospitalID) {
			return nil, ErrUnknownHospital
		}
		var hosp *hospitals.Hospital
		if next.HospitalID != "" {
			hosp = hospital
		}
		breakdown, err := m.calc.Compute(next.OriginalCost, next.HasCard, hosp)
		if err != nil {
			return nil, err
		}
		next.Discount = breakdown.Discount
		next.DiscountedCost = breakdown.DiscountedCost
		next.Revenue = breakdown.Revenue
	}

	next.UpdatedAt = time.Now().UTC()
	return &next, nil
}

// Patch renders the post-state as a conditional-update patch. The status and
// every derived money field travel together in a single write.
func (m *StateMachine) Patch(next *Lead) UpdatePatch {
	status := next.Status
	hospitalID := next.HospitalID
	hasCard := next.HasCard
	discount := next.Discount
	discounted := next.DiscountedCost
	revenue := next.Revenue
	notes := next.Notes

	patch := UpdatePatch{
		Status:         &status,
		HospitalID:     &hospitalID,
		HasCard:        &hasCard,
		Discount:       &discount,
		DiscountedCost: &discounted,
		Revenue:        &revenue,
		Notes:          &notes,
	}
	if next.OriginalCost != nil {
		cost := *next.OriginalCost
		patch.OriginalCost = &cost
	}
	return patch
}
