package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/caregate/lead-platform/internal/hospitals"
	"github.com/caregate/lead-platform/internal/http/handlers"
	httpmiddleware "github.com/caregate/lead-platform/internal/http/middleware"
	"github.com/caregate/lead-platform/internal/leads"
	"github.com/caregate/lead-platform/internal/session"
	"github.com/caregate/lead-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger           *logging.Logger
	Issuer           *session.Issuer
	AuthHandler      *handlers.AuthHandler
	PatientAuth      *handlers.PatientAuthHandler
	LeadsHandler     *leads.Handler
	HospitalsHandler *hospitals.Handler
	DoctorHandler    *handlers.DoctorHandler
	SurgeriesHandler *handlers.SurgeriesHandler
	MetricsHandler   http.Handler

	CORSAllowedOrigins []string

	// IntakeRateLimit throttles the public intake and OTP endpoints per IP.
	// Zero disables the limiter.
	IntakeRateLimit float64
	IntakeBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	sessionAuth := httpmiddleware.SessionAuth(cfg.Issuer, cfg.Logger)

	// Public endpoints: intake, catalog, logins.
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}

		public.Get("/surgeries", cfg.SurgeriesHandler.List)

		// The intake form and OTP login face the open internet; throttle them.
		public.Group(func(throttled chi.Router) {
			if cfg.IntakeRateLimit > 0 {
				throttled.Use(httpmiddleware.RateLimit(cfg.IntakeRateLimit, cfg.IntakeBurst))
			}
			throttled.Post("/leads", cfg.LeadsHandler.CreateLead)
			throttled.Post("/auth/patient/otp", cfg.PatientAuth.RequestOTP)
			throttled.Post("/auth/patient/verify", cfg.PatientAuth.VerifyOTP)
		})

		public.Post("/auth/admin/login", cfg.AuthHandler.AdminLogin)
		public.Post("/auth/doctor/login", cfg.AuthHandler.DoctorLogin)
		public.Post("/auth/partner/login", cfg.AuthHandler.PartnerLogin)
		public.Post("/auth/logout", cfg.AuthHandler.Logout)
	})

	// Session-holding endpoints.
	r.Group(func(authed chi.Router) {
		authed.Use(sessionAuth)

		authed.Post("/auth/renew", cfg.AuthHandler.Renew)

		authed.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.RequireRole(session.RoleAdmin))

			admin.Route("/leads", func(r chi.Router) {
				r.Get("/", cfg.LeadsHandler.ListLeads)
				r.Get("/{leadID}", cfg.LeadsHandler.GetLead)
				r.Patch("/{leadID}", cfg.LeadsHandler.UpdateLead)
				r.Post("/{leadID}/transition", cfg.LeadsHandler.TransitionLead)
			})

			admin.Route("/hospitals", func(r chi.Router) {
				r.Get("/", cfg.HospitalsHandler.List)
				r.Post("/", cfg.HospitalsHandler.Create)
				r.Get("/{hospitalID}", cfg.HospitalsHandler.Get)
				r.Put("/{hospitalID}", cfg.HospitalsHandler.Update)
			})
		})

		authed.Route("/partner", func(partner chi.Router) {
			partner.Use(httpmiddleware.RequireRole(session.RolePartner))

			partner.Get("/hospital", cfg.HospitalsHandler.Get)
			partner.Route("/leads", func(r chi.Router) {
				r.Get("/", cfg.LeadsHandler.ListLeads)
				r.Get("/{leadID}", cfg.LeadsHandler.GetLead)
				r.Post("/{leadID}/transition", cfg.LeadsHandler.TransitionLead)
			})
		})

		authed.Route("/doctor", func(doctor chi.Router) {
			doctor.Use(httpmiddleware.RequireRole(session.RoleDoctor))
			doctor.Get("/profile", cfg.DoctorHandler.Profile)
			doctor.Get("/surgeries", cfg.DoctorHandler.Surgeries)
		})

		authed.Route("/patient", func(patient chi.Router) {
			patient.Use(httpmiddleware.RequireRole(session.RolePatient))
			patient.Get("/lead", cfg.LeadsHandler.GetOwnLead)
		})
	})

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
