package hospitals

import (
	"strings"
	"time"
)

// Hospital is a partner facility that fulfills surgery leads. DiscountPercent
// is the cashless-card discount it has agreed to extend.
type Hospital struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	City            string    `json:"city"`
	DiscountPercent int       `json:"discount_percent"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// UpsertHospitalRequest is the admin request body for creating or updating a
// hospital.
type UpsertHospitalRequest struct {
	Name            string `json:"name"`
	City            string `json:"city"`
	DiscountPercent int    `json:"discount_percent"`
}

// Validate validates the request.
func (r *UpsertHospitalRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if r.DiscountPercent < 0 || r.DiscountPercent > 100 {
		return ErrInvalidDiscount
	}
	return nil
}
