package hospitals

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/caregate/lead-platform/internal/session"
	"github.com/caregate/lead-platform/pkg/logging"
)

// Handler handles HTTP requests for hospitals. Admin manages the roster;
// a partner can read only its own record.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new hospitals handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// Create handles POST /admin/hospitals.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, session.OpWriteHospital); !ok {
		return
	}

	var req UpsertHospitalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	hospital, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("hospital created", "hospital_id", hospital.ID)
	writeJSON(w, http.StatusCreated, hospital)
}

// Update handles PUT /admin/hospitals/{hospitalID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorize(w, r, session.OpWriteHospital); !ok {
		return
	}

	var req UpsertHospitalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	hospital, err := h.repo.Update(r.Context(), chi.URLParam(r, "hospitalID"), &req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hospital)
}

// Get handles GET /admin/hospitals/{hospitalID} and GET /partner/hospital.
// A partner scope only ever resolves its own record.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.authorize(w, r, session.OpReadHospitals)
	if !ok {
		return
	}

	id := chi.URLParam(r, "hospitalID")
	if id == "" {
		id = scope.HospitalID
	}
	if !scope.Unrestricted() && id != scope.HospitalID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	hospital, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hospital)
}

// List handles GET /admin/hospitals.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.authorize(w, r, session.OpReadHospitals)
	if !ok {
		return
	}
	if !scope.Unrestricted() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	out, err := h.repo.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hospitals": out, "count": len(out)})
}

func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, op session.Operation) (session.Scope, bool) {
	principal, ok := session.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "missing session", http.StatusUnauthorized)
		return session.Scope{}, false
	}
	scope, err := session.Authorize(principal, op)
	if err != nil {
		http.Error(w, "forbidden", http.StatusForbidden)
		return session.Scope{}, false
	}
	return scope, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrHospitalNotFound):
		http.Error(w, "hospital not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidName), errors.Is(err, ErrInvalidDiscount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("hospital request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
