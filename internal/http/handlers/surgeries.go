package handlers

import (
	"net/http"

	"github.com/caregate/lead-platform/internal/surgeries"
	"github.com/caregate/lead-platform/pkg/logging"
)

// SurgeriesHandler serves the public surgery catalog backing the intake form.
type SurgeriesHandler struct {
	surgeries surgeries.Repository
	logger    *logging.Logger
}

// NewSurgeriesHandler creates the catalog handler.
func NewSurgeriesHandler(repo surgeries.Repository, logger *logging.Logger) *SurgeriesHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &SurgeriesHandler{surgeries: repo, logger: logger}
}

// List handles GET /surgeries.
func (h *SurgeriesHandler) List(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.surgeries.List(r.Context())
	if err != nil {
		h.logger.Error("surgery catalog lookup failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"surgeries": catalog})
}
