package handlers

import (
	"errors"
	"net/http"

	"github.com/caregate/lead-platform/internal/doctors"
	"github.com/caregate/lead-platform/internal/session"
	"github.com/caregate/lead-platform/internal/surgeries"
	"github.com/caregate/lead-platform/pkg/logging"
)

// DoctorHandler serves a doctor's own profile and linked surgeries. Doctors
// have no lead access at all; these two reads are their whole surface.
type DoctorHandler struct {
	doctors   doctors.Repository
	surgeries surgeries.Repository
	logger    *logging.Logger
}

// NewDoctorHandler creates the doctor handler.
func NewDoctorHandler(doctorRepo doctors.Repository, surgeryRepo surgeries.Repository, logger *logging.Logger) *DoctorHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &DoctorHandler{doctors: doctorRepo, surgeries: surgeryRepo, logger: logger}
}

// Profile handles GET /doctor/profile.
func (h *DoctorHandler) Profile(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.doctorScope(w, r)
	if !ok {
		return
	}

	doctor, err := h.doctors.GetByID(r.Context(), scope.DoctorID)
	if err != nil {
		if errors.Is(err, doctors.ErrDoctorNotFound) {
			http.Error(w, "profile not found", http.StatusNotFound)
			return
		}
		h.logger.Error("doctor profile lookup failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, doctor)
}

// Surgeries handles GET /doctor/surgeries.
func (h *DoctorHandler) Surgeries(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.doctorScope(w, r)
	if !ok {
		return
	}

	linked, err := h.surgeries.ListByDoctor(r.Context(), scope.DoctorID)
	if err != nil {
		h.logger.Error("doctor surgeries lookup failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"surgeries": linked})
}

func (h *DoctorHandler) doctorScope(w http.ResponseWriter, r *http.Request) (session.Scope, bool) {
	principal, ok := session.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "missing session", http.StatusUnauthorized)
		return session.Scope{}, false
	}
	scope, err := session.Authorize(principal, session.OpReadDoctor)
	if err != nil {
		http.Error(w, "forbidden", http.StatusForbidden)
		return session.Scope{}, false
	}
	return scope, true
}
