package doctors

import "errors"

// Doctor is a consulting doctor coordinating cases on the platform.
type Doctor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Specialty string `json:"specialty"`
}

// ErrDoctorNotFound is returned when a doctor is not found
var ErrDoctorNotFound = errors.New("doctor not found")
