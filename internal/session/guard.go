package session

import "errors"

// ErrForbidden is returned whenever a resolved scope excludes the requested
// operation or record. It deliberately carries no detail about whether the
// record exists.
var ErrForbidden = errors.New("session: forbidden")

// Operation names a class of access the service layer wants to perform.
type Operation string

const (
	OpReadLeads     Operation = "leads.read"
	OpWriteLead     Operation = "leads.write"
	OpReadHospitals Operation = "hospitals.read"
	OpWriteHospital Operation = "hospitals.write"
	OpReadDoctor    Operation = "doctor.read"
)

// Scope is the query filter derived from a session. Repositories apply it at
// the query layer: a restricted scope narrows every lookup, it is never a
// post-hoc check on a fetched record.
type Scope struct {
	Role Role

	// HospitalID, when set, restricts lead queries to that hospital.
	HospitalID string

	// LeadID, when set, restricts lead queries to that single lead.
	LeadID string

	// DoctorID, when set, restricts doctor/surgery queries.
	DoctorID string

	// ReadOnly forbids mutations through this scope.
	ReadOnly bool
}

// Unrestricted reports whether the scope covers all leads and hospitals.
func (s Scope) Unrestricted() bool {
	return s.Role == RoleAdmin
}

// AllowsLead reports whether a lead with the given id and hospital assignment
// falls inside the scope. Used by the in-memory repository; the Postgres
// repository expresses the same predicate in SQL.
func (s Scope) AllowsLead(leadID, hospitalID string) bool {
	switch {
	case s.Unrestricted():
		return true
	case s.LeadID != "":
		return s.LeadID == leadID
	case s.HospitalID != "":
		return s.HospitalID == hospitalID
	}
	return false
}

// Authorize resolves the principal and requested operation into a Scope.
// The switch over roles is exhaustive: adding a role without updating every
// arm is a bug here, not in the callers.
func Authorize(p Principal, op Operation) (Scope, error) {
	if err := p.Validate(); err != nil {
		return Scope{}, ErrForbidden
	}

	switch p.Role {
	case RoleAdmin:
		// Unrestricted read/write over leads and hospitals.
		switch op {
		case OpReadLeads, OpWriteLead, OpReadHospitals, OpWriteHospital:
			return Scope{Role: RoleAdmin}, nil
		}
		return Scope{}, ErrForbidden

	case RoleDoctor:
		// Read-only over the doctor's own profile and linked surgeries.
		// No lead access.
		if op == OpReadDoctor {
			return Scope{Role: RoleDoctor, DoctorID: p.DoctorID, ReadOnly: true}, nil
		}
		return Scope{}, ErrForbidden

	case RolePartner:
		// Leads belonging to the partner's hospital, and its own hospital
		// record. Never another hospital's anything.
		switch op {
		case OpReadLeads, OpWriteLead:
			return Scope{Role: RolePartner, HospitalID: p.HospitalID}, nil
		case OpReadHospitals:
			return Scope{Role: RolePartner, HospitalID: p.HospitalID, ReadOnly: true}, nil
		}
		return Scope{}, ErrForbidden

	case RolePatient:
		// The single lead the session was issued for, read-only.
		if op == OpReadLeads {
			return Scope{Role: RolePatient, LeadID: p.LeadID, ReadOnly: true}, nil
		}
		return Scope{}, ErrForbidden
	}

	return Scope{}, ErrForbidden
}
