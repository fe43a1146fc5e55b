package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/meridianlabs/clinic-api/internal/config"
	"github.com/meridianlabs/clinic-api/internal/email"
	appointmentHandler "github.com/meridianlabs/clinic-api/internal/handler/appointment"
	authHandler "github.com/meridianlabs/clinic-api/internal/handler/auth"
	doctorHandler "github.com/meridianlabs/clinic-api/internal/handler/doctor"
	healthHandler "github.com/meridianlabs/clinic-api/internal/handler/health"
	patientHandler "github.com/meridianlabs/clinic-api/internal/handler/patient"
	prescriptionHandler "github.com/meridianlabs/clinic-api/internal/handler/prescription"
	"github.com/meridianlabs/clinic-api/internal/middleware"
	"github.com/meridianlabs/clinic-api/internal/repository/postgres"
	"github.com/meridianlabs/clinic-api/internal/router"
	appointmentService "github.com/meridianlabs/clinic-api/internal/service/appointment"
	authService "github.com/meridianlabs/clinic-api/internal/service/auth"
	doctorService "github.com/meridianlabs/clinic-api/internal/service/doctor"
	eventService "github.com/meridianlabs/clinic-api/internal/service/event"
	patientService "github.com/meridianlabs/clinic-api/internal/service/patient"
	prescriptionService "github.com/meridianlabs/clinic-api/internal/service/prescription"
	tokenService "github.com/meridianlabs/clinic-api/internal/service/token"
	"github.com/meridianlabs/clinic-api/pkg/logger"
	"github.com/meridianlabs/clinic-api/pkg/metrics"
	"github.com/meridianlabs/clinic-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	doctorRepo := postgres.NewDoctorRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	adminRepo := postgres.NewAdminRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	prescriptionRepo := postgres.NewPrescriptionRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	m := metrics.NewMetrics("clinic_api")
	hasher := security.NewBcryptHasher(0)

	tokenOpts := []tokenService.Option{}
	if cfg.JWT.ExpiryHours > 0 {
		tokenOpts = append(tokenOpts, tokenService.WithExpiry(time.Duration(cfg.JWT.ExpiryHours)*time.Hour))
	}
	tokens, err := tokenService.NewService(cfg.JWT.Secret, tokenOpts...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token service")
	}

	var mailer email.Service = email.NoopService{}
	if cfg.SMTP.Host != "" {
		mailer = email.NewSMTPService(email.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}

	authSvc := authService.NewService(tokens, adminRepo, doctorRepo, patientRepo, hasher)
	doctorSvc := doctorService.NewService(doctorRepo, appointmentRepo, hasher, m)
	patientSvc := patientService.NewService(patientRepo, appointmentRepo, tokens, hasher)
	eventSvc := eventService.NewService(outboxRepo)
	appointmentSvc := appointmentService.NewService(
		appointmentRepo, doctorRepo, patientRepo, tokens, eventSvc, mailer, appLogger, m)
	prescriptionSvc := prescriptionService.NewService(prescriptionRepo, appointmentSvc, tokens)

	authMW := middleware.NewAuthMiddleware(authSvc)

	r := router.NewRouter(
		authMW,
		authHandler.NewHandler(authSvc),
		doctorHandler.NewHandler(doctorSvc),
		patientHandler.NewHandler(patientSvc),
		appointmentHandler.NewHandler(appointmentSvc),
		prescriptionHandler.NewHandler(prescriptionSvc),
		healthHandler.NewHandler(db),
		m,
		router.Config{
			RateLimit: rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst: cfg.RateLimit.Burst,
			CORS:      middleware.DefaultCORSConfig(),
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
