package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/caregate/lead-platform/internal/api/router"
	"github.com/caregate/lead-platform/internal/auth"
	appconfig "github.com/caregate/lead-platform/internal/config"
	"github.com/caregate/lead-platform/internal/doctors"
	"github.com/caregate/lead-platform/internal/hospitals"
	"github.com/caregate/lead-platform/internal/http/handlers"
	"github.com/caregate/lead-platform/internal/leads"
	"github.com/caregate/lead-platform/internal/notify"
	"github.com/caregate/lead-platform/internal/observability/metrics"
	"github.com/caregate/lead-platform/internal/session"
	"github.com/caregate/lead-platform/internal/surgeries"
	"github.com/caregate/lead-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting lead-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	secret := cfg.SessionSecret
	if secret == "" {
		if cfg.Env != "development" {
			logger.Error("SESSION_SECRET is required outside development")
			os.Exit(1)
		}
		secret = "dev-only-session-secret"
		logger.Warn("SESSION_SECRET not set, using development default")
	}

	issuer, err := session.NewIssuer(secret, cfg.StaffSessionTTL, cfg.PatientSessionTTL)
	if err != nil {
		logger.Error("session issuer init failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Storage: Postgres when configured, in-memory for local development.
	var (
		leadRepo     leads.Repository
		hospitalRepo hospitals.Repository
		doctorRepo   doctors.Repository
		surgeryRepo  surgeries.Repository
		credStore    auth.CredentialStore
	)
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("postgres connect failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Error("postgres ping failed", "error", err)
			os.Exit(1)
		}
		leadRepo = leads.NewPostgresRepository(pool)
		hospitalRepo = hospitals.NewPostgresRepository(pool)
		doctorRepo = doctors.NewPostgresRepository(pool)
		surgeryRepo = surgeries.NewPostgresRepository(pool)
		credStore = auth.NewPostgresCredentialStore(pool)
		logger.Info("storage ready", "backend", "postgres")
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory storage")
		leadRepo = leads.NewInMemoryRepository()
		hospitalRepo = hospitals.NewInMemoryRepository()
		doctorRepo = doctors.NewInMemoryRepository()
		surgeryRepo = surgeries.NewInMemoryRepository()
		credStore = devCredentialStore(logger)
	}

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("redis ping failed", "error", err, "addr", cfg.RedisAddr)
		os.Exit(1)
	}

	platformMetrics := metrics.NewPlatformMetrics(prometheus.DefaultRegisterer)

	emailSender := buildEmailSender(ctx, cfg, logger)
	dispatcher := notify.NewDispatcher(emailSender, platformMetrics, logger)

	calc := leads.Calculator{CommissionPercent: cfg.CommissionPercent}
	leadService := leads.NewService(leadRepo, hospitalRepo, leads.NewStateMachine(calc), dispatcher, platformMetrics, logger)

	otpStore := auth.NewOTPStore(redisClient, cfg.OTPTTL, cfg.OTPLength, nil)
	verifier := auth.NewVerifier(credStore, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		Issuer:             issuer,
		AuthHandler:        handlers.NewAuthHandler(verifier, issuer, logger),
		PatientAuth:        handlers.NewPatientAuthHandler(otpStore, leadRepo, issuer, emailSender, platformMetrics, logger),
		LeadsHandler:       leads.NewHandler(leadService, logger),
		HospitalsHandler:   hospitals.NewHandler(hospitalRepo, logger),
		DoctorHandler:      handlers.NewDoctorHandler(doctorRepo, surgeryRepo, logger),
		SurgeriesHandler:   handlers.NewSurgeriesHandler(surgeryRepo, logger),
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		IntakeRateLimit:    cfg.IntakeRateLimit,
		IntakeBurst:        cfg.IntakeRateBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Let in-flight notification sends drain before the process exits.
	dispatcher.Wait()

	logger.Info("server stopped")
}

// buildEmailSender picks the notification transport from configuration.
func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender != nil {
			logger.Info("email transport ready", "provider", "sendgrid")
			return sender
		}
		logger.Warn("sendgrid selected but not configured, falling back to stub")
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Warn("SES selected but AWS config failed, falling back to stub", "error", err)
			break
		}
		sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
		if sender != nil {
			logger.Info("email transport ready", "provider", "ses")
			return sender
		}
	}
	return notify.NewStubEmailSender(logger)
}

// devCredentialStore seeds a single admin login for in-memory development
// runs, taken from DEV_ADMIN_EMAIL / DEV_ADMIN_PASSWORD.
func devCredentialStore(logger *logging.Logger) auth.CredentialStore {
	store := auth.NewInMemoryCredentialStore()
	email := os.Getenv("DEV_ADMIN_EMAIL")
	password := os.Getenv("DEV_ADMIN_PASSWORD")
	if email == "" || password == "" {
		logger.Warn("no DEV_ADMIN_EMAIL/DEV_ADMIN_PASSWORD set, staff login disabled")
		return store
	}
	hash, err := auth.HashPassword(password, auth.DefaultArgonParams())
	if err != nil {
		logger.Error("dev admin hash failed", "error", err)
		return store
	}
	store.PutAdmin(auth.Credential{ID: "dev-admin", Name: "Dev Admin", Email: email, PasswordHash: hash})
	logger.Info("seeded development admin", "email", email)
	return store
}
