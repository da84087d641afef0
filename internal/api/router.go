// Package api provides the HTTP API for Mahatati.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/mahatati/mahatati/internal/api/handler"
	"github.com/mahatati/mahatati/internal/api/middleware"
	"github.com/mahatati/mahatati/internal/auth"
	"github.com/mahatati/mahatati/internal/profile"
	"github.com/mahatati/mahatati/internal/resilience"
	"github.com/mahatati/mahatati/internal/station"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics
	RequireTLS  bool

	Verifier       middleware.TokenVerifier
	StationService *station.Service
	ProfileService *profile.Service

	ReadinessChecks []handler.ReadinessCheck
	Registry        *resilience.Registry

	// DevTokens mounts POST /v1/dev/tokens when set.
	DevTokens *auth.JWTService
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "mahatati-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.RequireJSON)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.ReadinessChecks, cfg.Registry).
		WithCounters(
			handler.Counter{Name: "stations", Count: cfg.StationService.Count},
			handler.Counter{Name: "owners", Count: cfg.ProfileService.Count},
		)
	stationHandler := handler.NewStationHandler(cfg.StationService)
	ownerHandler := handler.NewOwnerStationHandler(cfg.StationService)
	adminHandler := handler.NewAdminHandler(cfg.StationService)
	profileHandler := handler.NewProfileHandler(cfg.ProfileService)

	authMiddleware := middleware.Auth(cfg.Verifier)
	publicRateLimit := middleware.RateLimitByIP(middleware.PublicRateLimit)
	userRateLimit := middleware.RateLimitByUser(middleware.StandardRateLimit)
	writeRateLimit := middleware.RateLimitByUser(middleware.WriteRateLimit)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(authMiddleware, middleware.RequireAdmin).Get("/status", opsHandler.SystemStatus)
		})

		// Public directory
		r.Route("/stations", func(r chi.Router) {
			r.Use(publicRateLimit)
			r.Get("/", stationHandler.Search)
			r.Get("/{stationId}", stationHandler.Get)
		})

		r.Route("/me", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(userRateLimit)

			r.Get("/profile", profileHandler.GetProfile)
			r.With(writeRateLimit).Put("/profile", profileHandler.UpdateProfile)

			r.Route("/stations", func(r chi.Router) {
				r.Get("/", ownerHandler.List)
				r.Group(func(r chi.Router) {
					r.Use(writeRateLimit)
					r.Post("/", ownerHandler.Create)
					r.Put("/{stationId}", ownerHandler.Update)
					r.Post("/{stationId}/toggle-active", ownerHandler.ToggleActive)
					r.Delete("/{stationId}", ownerHandler.Delete)
				})
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RequireAdmin)
			r.Use(userRateLimit)

			r.Route("/stations", func(r chi.Router) {
				r.Get("/", adminHandler.ListStations)
				r.Put("/{stationId}/verification", adminHandler.SetVerification)
				r.Delete("/{stationId}", adminHandler.DeleteStation)
			})
		})

		if cfg.DevTokens != nil {
			devHandler := handler.NewDevTokenHandler(cfg.DevTokens)
			r.With(publicRateLimit).Post("/dev/tokens", devHandler.IssueToken)
		}
	})

	return r
}
