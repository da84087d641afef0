// Package main provides the entrypoint for the Mahatati event worker. It
// consumes station events and keeps the public directory snapshot fresh.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mahatati/mahatati/internal/api/handler"
	"github.com/mahatati/mahatati/internal/api/middleware"
	"github.com/mahatati/mahatati/internal/api/response"
	"github.com/mahatati/mahatati/internal/config"
	"github.com/mahatati/mahatati/internal/database"
	"github.com/mahatati/mahatati/internal/export"
	"github.com/mahatati/mahatati/internal/resilience"
	"github.com/mahatati/mahatati/internal/station"
	"github.com/mahatati/mahatati/internal/telemetry"
	"github.com/mahatati/mahatati/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "mahatati-worker"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if !cfg.PubSub.Enabled() {
		log.Fatal().Msg("PUBSUB_PROJECT_ID is required for the worker")
	}
	if !cfg.Export.Enabled() {
		log.Fatal().Msg("EXPORT_BUCKET is required for the worker")
	}

	log.Info().Str("build_time", BuildTime).Msg("starting Mahatati worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	instruments, err := telemetry.NewInstruments(tp.Meter)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize directory metrics")
	}

	// Snapshot source
	var (
		stationRepo station.Repository
		checks      []handler.ReadinessCheck
	)
	if cfg.Storage == config.StorageMemory {
		log.Warn().Msg("using in-memory storage - snapshots will be empty")
		stationRepo = station.NewInMemoryRepository()
	} else {
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		stationRepo = station.NewPostgresRepository(pool)
		checks = append(checks, handler.ReadinessCheck{Name: "database", Check: pool.Ping})
	}
	stations := station.NewService(station.ServiceConfig{Repository: stationRepo, Logger: log})

	// Snapshot sink
	s3Client, err := export.NewS3Client(ctx, export.S3Options{
		Region:   cfg.Export.Region,
		Endpoint: cfg.Export.Endpoint,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create S3 client")
	}

	registry := resilience.NewRegistry()
	s3Executor := resilience.NewExecutor(resilience.DefaultConfig("s3"))
	registry.Register(s3Executor)

	exporter := export.NewSnapshotExporter(export.Config{
		Client:   s3Client,
		Bucket:   cfg.Export.Bucket,
		Key:      cfg.Export.Key,
		TTL:      cfg.Export.TTL,
		Executor: s3Executor,
		Logger:   log,
	})

	job := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config: worker.RefreshConfig{
			Timeout:     cfg.Worker.RefreshTimeout,
			MinInterval: cfg.Worker.RefreshMinInterval,
		},
		Source:   stations,
		Sink:     exporter,
		Logger:   log,
		Recorder: instruments,
	})

	handlerPS, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
		ProjectID:        cfg.PubSub.ProjectID,
		SubscriptionName: cfg.PubSub.Subscription,
		Receive:          worker.DefaultReceiveConfig(),
		Processor:        worker.NewEventProcessor(job, log),
		Logger:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create pubsub handler")
	}
	defer func() {
		if err := handlerPS.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close pubsub handler")
		}
	}()

	// The snapshot should exist before the first event arrives.
	if _, err := job.Run(ctx, "startup", true); err != nil {
		log.Error().Err(err).Msg("initial snapshot refresh failed")
	}
	checks = append(checks, handler.ReadinessCheck{Name: "snapshot", Check: exporter.Check})

	// Health endpoints for Cloud Run
	ops := handler.NewOpsHandler(Version, BuildTime, checks, registry)
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Get("/health", ops.HealthCheck)
	r.Get("/ready", ops.ReadinessCheck)
	r.Get("/status", ops.SystemStatus)
	r.Get("/metrics/refresh", func(w http.ResponseWriter, req *http.Request) {
		response.JSON(w, req, http.StatusOK, job.MetricsSnapshot())
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	receiveErr := make(chan error, 1)
	go func() {
		receiveErr <- handlerPS.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info().Msg("shutting down worker")
	case err := <-receiveErr:
		if err != nil {
			log.Error().Err(err).Msg("subscription stopped")
		}
	}
	cancel()
	job.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
