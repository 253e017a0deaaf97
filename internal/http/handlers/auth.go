package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/caregate/lead-platform/internal/auth"
	"github.com/caregate/lead-platform/internal/session"
	"github.com/caregate/lead-platform/pkg/logging"
)

// AuthHandler serves the password login endpoints for admin, doctor and
// partner accounts, plus session renewal and logout.
type AuthHandler struct {
	verifier *auth.Verifier
	issuer   *session.Issuer
	logger   *logging.Logger
}

// NewAuthHandler creates the staff auth handler.
func NewAuthHandler(verifier *auth.Verifier, issuer *session.Issuer, logger *logging.Logger) *AuthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AuthHandler{verifier: verifier, issuer: issuer, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned by every endpoint that mints a token.
type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Role      string    `json:"role"`
	Name      string    `json:"name,omitempty"`
}

// AdminLogin handles POST /auth/admin/login.
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, session.RoleAdmin)
}

// DoctorLogin handles POST /auth/doctor/login.
func (h *AuthHandler) DoctorLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, session.RoleDoctor)
}

// PartnerLogin handles POST /auth/partner/login.
func (h *AuthHandler) PartnerLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, session.RolePartner)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, role session.Role) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	principal, name, err := h.verifier.Verify(r.Context(), role, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredential) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.Error("credential lookup failed", "error", err, "role", string(role))
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}

	token, expiresAt, err := h.issuer.Issue(principal)
	if err != nil {
		h.logger.Error("token issue failed", "error", err, "role", string(role))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("login succeeded", "role", string(role), "subject", principal.SubjectID())
	writeJSON(w, http.StatusOK, SessionResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Role:      string(role),
		Name:      name,
	})
}

// Renew handles POST /auth/renew. There is no sliding expiry; a client that
// wants a longer session asks for a fresh token while the current one is
// still valid.
func (h *AuthHandler) Renew(w http.ResponseWriter, r *http.Request) {
	principal, ok := session.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "missing session", http.StatusUnauthorized)
		return
	}

	token, expiresAt, err := h.issuer.Issue(principal)
	if err != nil {
		h.logger.Error("token renew failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, SessionResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Role:      string(principal.Role),
	})
}

// Logout handles POST /auth/logout. Tokens are not tracked server side; the
// short TTL bounds exposure and the client discards its copy.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
