package hospitals

import "errors"

var (
	// ErrInvalidName is returned when the hospital name is missing
	ErrInvalidName = errors.New("hospital name is required")

	// ErrInvalidDiscount is returned when the discount is outside 0..100
	ErrInvalidDiscount = errors.New("discount percent must be between 0 and 100")

	// ErrHospitalNotFound is returned when a hospital is not found
	ErrHospitalNotFound = errors.New("hospital not found")
)
