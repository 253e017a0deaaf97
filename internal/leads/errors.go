package leads

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidName is returned when the patient name is missing
	ErrInvalidName = errors.New("full name is required")

	// ErrMissingPhone is returned when the phone number is missing
	ErrMissingPhone = errors.New("phone is required")

	// ErrMissingSurgery is returned when no surgery is selected
	ErrMissingSurgery = errors.New("surgery is required")

	// ErrLeadNotFound is returned when a lead is not found inside the scope
	ErrLeadNotFound = errors.New("lead not found")

	// ErrInvalidCost is returned for a negative original cost
	ErrInvalidCost = errors.New("original cost must not be negative")

	// ErrUnknownHospital is returned when a transition references a hospital
	// that does not exist
	ErrUnknownHospital = errors.New("unknown hospital")

	// ErrInvalidStatus is returned for a status outside the defined set
	ErrInvalidStatus = errors.New("unknown lead status")

	// ErrInvalidTransition is the sentinel all transition rejections unwrap to
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrVersionConflict is returned when a conditional update loses a race.
	// Retryable: re-read the lead and re-apply.
	ErrVersionConflict = errors.New("lead was modified concurrently")
)

// TransitionError reports a rejected transition with the current and
// requested status for diagnostics. It unwraps to ErrInvalidTransition.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }
