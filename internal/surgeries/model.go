package surgeries

import "errors"

// Surgery is a catalog procedure a lead can be raised for.
type Surgery struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ErrSurgeryNotFound is returned when a surgery is not found
var ErrSurgeryNotFound = errors.New("surgery not found")
