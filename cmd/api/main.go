// Package main provides the entrypoint for the Mahatati API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/mahatati/mahatati/internal/api"
	"github.com/mahatati/mahatati/internal/api/handler"
	"github.com/mahatati/mahatati/internal/api/middleware"
	"github.com/mahatati/mahatati/internal/auth"
	"github.com/mahatati/mahatati/internal/cache"
	"github.com/mahatati/mahatati/internal/config"
	"github.com/mahatati/mahatati/internal/database"
	"github.com/mahatati/mahatati/internal/events"
	"github.com/mahatati/mahatati/internal/profile"
	"github.com/mahatati/mahatati/internal/resilience"
	"github.com/mahatati/mahatati/internal/station"
	"github.com/mahatati/mahatati/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "mahatati-api"

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

	log.Info().
		Str("build_time", BuildTime).
		Str("environment", cfg.Environment).
		Str("storage", cfg.Storage).
		Msg("starting Mahatati API")

	ctx := context.Background()

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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}
	instruments, err := telemetry.NewInstruments(tp.Meter)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize directory metrics")
	}

	// Storage
	var (
		stationRepo station.Repository
		profileRepo profile.Repository
		checks      []handler.ReadinessCheck
	)
	switch cfg.Storage {
	case config.StorageMemory:
		log.Warn().Msg("using in-memory storage - data is lost on restart")
		stationRepo = station.NewInMemoryRepository()
		profileRepo = profile.NewInMemoryRepository()
	default:
		pool, err := connectDatabase(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()

		stationRepo = station.NewPostgresRepository(pool)
		profileRepo = profile.NewPostgresRepository(pool)
		checks = append(checks, handler.ReadinessCheck{Name: "database", Check: pool.Ping})
	}

	listCache, err := cache.New[[]*station.Station](cfg.Cache.Size, cfg.Cache.TTL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create station cache")
	}
	if err := middleware.RegisterCacheMetrics("stations", func() (uint64, uint64, int) {
		s := listCache.Stats()
		return s.Hits, s.Misses, s.Size
	}); err != nil {
		log.Error().Err(err).Msg("failed to register cache metrics")
	}

	// Events
	registry := resilience.NewRegistry()
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.PubSub.Enabled() {
		ps, err := events.NewPubSubPublisher(ctx, events.PubSubConfig{
			ProjectID: cfg.PubSub.ProjectID,
			Topic:     cfg.PubSub.Topic,
			Logger:    log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub publisher")
		}
		defer func() {
			if err := ps.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close pubsub publisher")
			}
		}()

		executor := resilience.NewExecutor(resilience.DefaultConfig("pubsub"))
		registry.Register(executor)
		publisher = events.NewResilientPublisher(ps, executor)

		log.Info().
			Str("project_id", cfg.PubSub.ProjectID).
			Str("topic", cfg.PubSub.Topic).
			Msg("station events enabled")
	} else {
		log.Warn().Msg("PUBSUB_PROJECT_ID not set - station events are discarded")
	}

	profileService := profile.NewService(profileRepo, log)
	stationService := station.NewService(station.ServiceConfig{
		Repository: stationRepo,
		Cache:      listCache,
		Publisher:  publisher,
		Owners:     profileService,
		Recorder:   instruments,
		Logger:     log,
	})

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SigningKey: cfg.Auth.SigningKey,
		Issuer:     cfg.Auth.Issuer,
		Audience:   cfg.Auth.Audience,
	})
	if cfg.Auth.SigningKey == config.DevSigningKey {
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	var devTokens *auth.JWTService
	if cfg.DevTokens {
		devTokens = jwtService
		log.Warn().Msg("development token endpoint enabled")
	}

	router := api.NewRouter(api.RouterConfig{
		Version:         Version,
		BuildTime:       BuildTime,
		Logger:          log,
		ServiceName:     serviceName,
		Metrics:         metrics,
		RequireTLS:      cfg.RequireTLS,
		Verifier:        jwtService,
		StationService:  stationService,
		ProfileService:  profileService,
		ReadinessChecks: checks,
		Registry:        registry,
		DevTokens:       devTokens,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}

// connectDatabase opens the pool and applies the schema.
func connectDatabase(ctx context.Context, cfg database.Config, log zerolog.Logger) (*pgxpool.Pool, error) {
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := database.ApplySchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("database connected")
	return pool, nil
}
