package session

import "fmt"

// Role identifies one of the four principal types that can hold a session.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePartner Role = "partner"
	RolePatient Role = "patient"
)

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePartner, RolePatient:
		return true
	}
	return false
}

// Principal is a verified identity. Exactly one id field is populated,
// matching the role; a session never carries another principal's id.
type Principal struct {
	Role       Role
	UserID     string
	DoctorID   string
	HospitalID string
	LeadID     string
}

// AdminPrincipal returns a Principal for a platform staff user.
func AdminPrincipal(userID string) Principal {
	return Principal{Role: RoleAdmin, UserID: userID}
}

// DoctorPrincipal returns a Principal for a doctor account.
func DoctorPrincipal(doctorID string) Principal {
	return Principal{Role: RoleDoctor, DoctorID: doctorID}
}

// PartnerPrincipal returns a Principal for a hospital account.
func PartnerPrincipal(hospitalID string) Principal {
	return Principal{Role: RolePartner, HospitalID: hospitalID}
}

// PatientPrincipal returns a Principal scoped to a single lead.
func PatientPrincipal(leadID string) Principal {
	return Principal{Role: RolePatient, LeadID: leadID}
}

// SubjectID returns the one id relevant to the principal's role.
func (p Principal) SubjectID() string {
	switch p.Role {
	case RoleAdmin:
		return p.UserID
	case RoleDoctor:
		return p.DoctorID
	case RolePartner:
		return p.HospitalID
	case RolePatient:
		return p.LeadID
	}
	return ""
}

// Validate checks that the principal carries a known role and the id
// matching that role, and no other.
func (p Principal) Validate() error {
	if !p.Role.Valid() {
		return fmt.Errorf("session: unknown role %q", p.Role)
	}
	if p.SubjectID() == "" {
		return fmt.Errorf("session: %s principal missing subject id", p.Role)
	}
	ids := 0
	for _, id := range []string{p.UserID, p.DoctorID, p.HospitalID, p.LeadID} {
		if id != "" {
			ids++
		}
	}
	if ids != 1 {
		return fmt.Errorf("session: principal must carry exactly one id, has %d", ids)
	}
	return nil
}

func principalFor(role Role, subject string) Principal {
	switch role {
	case RoleAdmin:
		return AdminPrincipal(subject)
	case RoleDoctor:
		return DoctorPrincipal(subject)
	case RolePartner:
		return PartnerPrincipal(subject)
	case RolePatient:
		return PatientPrincipal(subject)
	}
	return Principal{Role: role}
}
