package leads

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// Status is a lead's position in its case lifecycle.
type Status string

const (
	StatusNew       Status = "NEW"
	StatusContacted Status = "CONTACTED"
	StatusQualified Status = "QUALIFIED"
	StatusAssigned  Status = "ASSIGNED"
	StatusScheduled Status = "SCHEDULED"
	StatusCompleted Status = "COMPLETED"
	StatusClosed    Status = "CLOSED"
)

// statusOrder defines the forward direction of the lifecycle. CLOSED sits
// outside the order; it is reachable from anywhere and terminal.
var statusOrder = map[Status]int{
	StatusNew:       0,
	StatusContacted: 1,
	StatusQualified: 2,
	StatusAssigned:  3,
	StatusScheduled: 4,
	StatusCompleted: 5,
}

// Valid reports whether s is a defined status.
func (s Status) Valid() bool {
	if s == StatusClosed {
		return true
	}
	_, ok := statusOrder[s]
	return ok
}

// Lead is a patient's surgery inquiry tracked through its lifecycle.
// Discount, DiscountedCost and Revenue are derived inside the state machine;
// they are never accepted as input. All money amounts are integer paise.
type Lead struct {
	ID          string `json:"id"`
	ReferenceID string `json:"reference_id"`

	SurgeryID  string `json:"surgery_id"`
	HospitalID string `json:"hospital_id,omitempty"`

	Status Status `json:"status"`

	OriginalCost   *int64 `json:"original_cost,omitempty"`
	HasCard        bool   `json:"has_card"`
	Discount       int64  `json:"discount"`
	DiscountedCost int64  `json:"discounted_cost"`
	Revenue        int64  `json:"revenue"`

	IsEmergency bool   `json:"is_emergency"`
	Notes       string `json:"notes,omitempty"`

	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
	City     string `json:"city"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateLeadRequest is the public intake request body.
type CreateLeadRequest struct {
	SurgeryID   string `json:"surgery_id"`
	FullName    string `json:"full_name"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	City        string `json:"city"`
	HasCard     bool   `json:"has_card"`
	IsEmergency bool   `json:"is_emergency"`
	Notes       string `json:"notes"`
}

// Validate validates the intake request.
func (r *CreateLeadRequest) Validate() error {
	if strings.TrimSpace(r.FullName) == "" {
		return ErrInvalidName
	}
	if strings.TrimSpace(r.Phone) == "" {
		return ErrMissingPhone
	}
	if strings.TrimSpace(r.SurgeryID) == "" {
		return ErrMissingSurgery
	}
	return nil
}

// UpdateDetailsRequest is the admin request for correcting contact details
// and flags. It deliberately has no money or status fields.
type UpdateDetailsRequest struct {
	FullName    *string `json:"full_name,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Email       *string `json:"email,omitempty"`
	City        *string `json:"city,omitempty"`
	Notes       *string `json:"notes,omitempty"`
	IsEmergency *bool   `json:"is_emergency,omitempty"`
}

// TransitionRequest asks the state machine to move a lead to a new status,
// optionally changing the finance inputs in the same step.
type TransitionRequest struct {
	To           Status  `json:"to"`
	HospitalID   *string `json:"hospital_id,omitempty"`
	OriginalCost *int64  `json:"original_cost,omitempty"`
	HasCard      *bool   `json:"has_card,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

// ListFilter narrows admin/partner lead listings.
type ListFilter struct {
	Status Status
	Limit  int
	Offset int
}

// UpdatePatch is the post-state a conditional update writes. Pointers mark
// fields to change; derived money fields are always written together with the
// status so the stored figures can never disagree with their inputs.
type UpdatePatch struct {
	Status         *Status
	HospitalID     *string
	OriginalCost   *int64
	HasCard        *bool
	Discount       *int64
	DiscountedCost *int64
	Revenue        *int64

	FullName    *string
	Phone       *string
	Email       *string
	City        *string
	Notes       *string
	IsEmergency *bool
}

// NewReferenceID generates the externally shown lead identifier. Assigned
// exactly once at creation, never mutated.
func NewReferenceID() string {
	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the process has bigger problems than a
		// reference id.
		panic(err)
	}
	return "LD-" + strings.ToUpper(hex.EncodeToString(b))
}
