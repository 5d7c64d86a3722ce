package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/medcohort/eligibility-api/config"
	clinicalHandler "github.com/medcohort/eligibility-api/internal/handler/clinical"
	eligibilityHandler "github.com/medcohort/eligibility-api/internal/handler/eligibility"
	healthHandler "github.com/medcohort/eligibility-api/internal/handler/health"
	patientHandler "github.com/medcohort/eligibility-api/internal/handler/patient"
	reviewHandler "github.com/medcohort/eligibility-api/internal/handler/review"
	"github.com/medcohort/eligibility-api/internal/middleware"
	"github.com/medcohort/eligibility-api/internal/repository/postgres"
	"github.com/medcohort/eligibility-api/internal/router"
	clinicalService "github.com/medcohort/eligibility-api/internal/service/clinical"
	eligibilityService "github.com/medcohort/eligibility-api/internal/service/eligibility"
	patientService "github.com/medcohort/eligibility-api/internal/service/patient"
	reviewService "github.com/medcohort/eligibility-api/internal/service/review"
	"github.com/medcohort/eligibility-api/pkg/circuitbreaker"
	"github.com/medcohort/eligibility-api/pkg/logger"
	"github.com/medcohort/eligibility-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := logger.NewLogger(&logger.Config{
		Level:      level,
		TimeFormat: time.RFC3339,
		Pretty:     cfg.Log.Pretty,
		Output:     os.Stdout,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	m := metrics.New("medcohort")

	patientStore := postgres.NewPatientStore(db)
	recordStore := postgres.NewRecordStore(db)
	medicationStore := postgres.NewMedicationStore(db)

	patientSvc := patientService.NewService(patientStore)
	clinicalSvc := clinicalService.NewService(patientStore, recordStore)
	eligibilitySvc := eligibilityService.NewService(patientStore, recordStore, log, m, cfg.Eligibility.Workers)
	completer := reviewService.NewBreakerCompleter(
		reviewService.NewOpenAICompleter(cfg.OpenAI.APIKey, cfg.OpenAI.Model),
		circuitbreaker.New(circuitbreaker.Settings{
			Name:        "openai",
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		}),
	)
	reviewSvc := reviewService.NewService(eligibilitySvc, patientStore, recordStore, medicationStore, completer, log)

	r := router.NewRouter(
		log,
		healthHandler.NewHandler(db),
		router.Config{
			RateLimit:     rate.Limit(cfg.RateLimit.RPS),
			RateBurst:     cfg.RateLimit.Burst,
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "medcohort_http",
		},
		patientHandler.NewHandler(patientSvc),
		clinicalHandler.NewHandler(clinicalSvc),
		eligibilityHandler.NewHandler(eligibilitySvc, cfg.Eligibility.CacheTTL),
		reviewHandler.NewHandler(reviewSvc),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.ZL.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal(err, "server forced to shutdown")
	}

	log.Info("server exited properly")
}
