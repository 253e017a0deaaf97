package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/caregate/lead-platform/internal/auth"
	"github.com/caregate/lead-platform/internal/leads"
	"github.com/caregate/lead-platform/internal/notify"
	"github.com/caregate/lead-platform/internal/observability/metrics"
	"github.com/caregate/lead-platform/internal/session"
	"github.com/caregate/lead-platform/pkg/logging"
)

// PatientAuthHandler serves the OTP login flow. A patient proves control of
// the phone number on their inquiry; the session that comes out is scoped to
// that one lead.
type PatientAuthHandler struct {
	otp     *auth.OTPStore
	leads   leads.Repository
	issuer  *session.Issuer
	email   notify.EmailSender
	metrics *metrics.PlatformMetrics
	logger  *logging.Logger
}

// NewPatientAuthHandler creates the patient OTP handler. email and metrics
// may be nil.
func NewPatientAuthHandler(otp *auth.OTPStore, leadRepo leads.Repository, issuer *session.Issuer, email notify.EmailSender, m *metrics.PlatformMetrics, logger *logging.Logger) *PatientAuthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &PatientAuthHandler{
		otp:     otp,
		leads:   leadRepo,
		issuer:  issuer,
		email:   email,
		metrics: m,
		logger:  logger,
	}
}

type otpRequest struct {
	Phone string `json:"phone"`
}

type otpVerifyRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// RequestOTP handles POST /auth/patient/otp. The response is 202 whether or
// not a lead exists for the phone, so the endpoint cannot be used to probe
// which numbers have inquiries.
func (h *PatientAuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Phone == "" {
		http.Error(w, "phone required", http.StatusBadRequest)
		return
	}

	lead, err := h.leads.FindLatestByPhone(r.Context(), req.Phone)
	if err != nil {
		if !errors.Is(err, leads.ErrLeadNotFound) {
			h.logger.Error("otp lead lookup failed", "error", err)
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
		return
	}

	code, err := h.otp.Issue(r.Context(), req.Phone, lead.ID)
	if err != nil {
		h.logger.Error("otp issue failed", "error", err)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	h.metrics.ObserveOTPIssued()
	h.logger.Info("otp issued", "lead_id", lead.ID)

	h.deliver(r.Context(), lead, code)
	w.WriteHeader(http.StatusAccepted)
}

// VerifyOTP handles POST /auth/patient/verify. A correct, unconsumed,
// unexpired code yields a patient session scoped to the lead the challenge
// was issued for.
func (h *PatientAuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req otpVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Phone == "" || req.Code == "" {
		http.Error(w, "phone and code required", http.StatusBadRequest)
		return
	}

	leadID, err := h.otp.Verify(r.Context(), req.Phone, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrOTPExpired):
			h.metrics.ObserveOTPVerified("expired")
			http.Error(w, "code expired, request a new one", http.StatusUnauthorized)
		case errors.Is(err, auth.ErrOTPAlreadyUsed):
			h.metrics.ObserveOTPVerified("reused")
			http.Error(w, "code already used", http.StatusUnauthorized)
		case errors.Is(err, auth.ErrOTPMismatch):
			h.metrics.ObserveOTPVerified("mismatch")
			http.Error(w, "invalid code", http.StatusUnauthorized)
		default:
			h.logger.Error("otp verify failed", "error", err)
			http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		}
		return
	}

	token, expiresAt, err := h.issuer.Issue(session.PatientPrincipal(leadID))
	if err != nil {
		h.logger.Error("patient token issue failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.metrics.ObserveOTPVerified("ok")
	h.logger.Info("patient session issued", "lead_id", leadID)
	writeJSON(w, http.StatusOK, SessionResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Role:      string(session.RolePatient),
	})
}

// deliver emails the code to the address on the lead. Phones with no email on
// file still get a challenge stored; delivery over other channels can hang off
// this same hook.
func (h *PatientAuthHandler) deliver(ctx context.Context, lead *leads.Lead, code string) {
	if h.email == nil || lead.Email == "" {
		return
	}
	msg := notify.EmailMessage{
		To:      lead.Email,
		ToName:  lead.FullName,
		Subject: "Your verification code",
		Body:    fmt.Sprintf("Hello %s,\n\nYour login code is %s. It expires in a few minutes and works once.\n", lead.FullName, code),
	}
	if err := h.email.Send(ctx, msg); err != nil {
		h.logger.Error("otp delivery failed", "error", err, "lead_id", lead.ID)
	}
}
