// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mahatati/mahatati/internal/database"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// DevSigningKey is the fallback JWT key for local development.
const DevSigningKey = "local-dev-signing-key-change-in-production"

// Config holds configuration shared by the API and worker binaries.
type Config struct {
	Port        string
	Environment string
	RequireTLS  bool
	// DevTokens enables the development token endpoint. Never honoured in production.
	DevTokens bool

	Storage  string
	Database database.Config

	Telemetry TelemetryConfig
	Auth      AuthConfig
	Cache     CacheConfig
	PubSub    PubSubConfig
	Export    ExportConfig
	Worker    WorkerConfig
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	SampleRatio  float64
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
}

// CacheConfig configures the station list cache.
type CacheConfig struct {
	Size int
	TTL  time.Duration
}

// PubSubConfig configures station event delivery. Events are disabled
// when ProjectID is empty.
type PubSubConfig struct {
	ProjectID    string
	Topic        string
	Subscription string
}

// Enabled reports whether Pub/Sub is configured.
func (c PubSubConfig) Enabled() bool {
	return c.ProjectID != ""
}

// ExportConfig configures the directory snapshot in S3.
type ExportConfig struct {
	Bucket   string
	Key      string
	Region   string
	Endpoint string
	TTL      time.Duration
}

// Enabled reports whether snapshot export is configured.
func (c ExportConfig) Enabled() bool {
	return c.Bucket != ""
}

// WorkerConfig configures the event worker.
type WorkerConfig struct {
	RefreshTimeout     time.Duration
	RefreshMinInterval time.Duration
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads a .env file when present, then the environment.
func Load() (*Config, error) {
	// Missing .env is the normal case outside local development.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from environment variables.
func FromEnv() (*Config, error) {
	var errs []error

	cfg := &Config{
		Port:        getEnvOrDefault("APP_PORT", "8080"),
		Environment: getEnvOrDefault("APP_ENV", "development"),
		RequireTLS:  getBool("REQUIRE_TLS", false, &errs),
		DevTokens:   getBool("DEV_TOKENS_ENABLED", false, &errs),
		Storage:     strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", StoragePostgres)),
		Database:    database.ConfigFromEnv(),
		Telemetry: TelemetryConfig{
			Enabled:      getBool("OTEL_ENABLED", false, &errs),
			OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRatio:  getFloat("OTEL_TRACES_SAMPLE_RATIO", 1, &errs),
		},
		Auth: AuthConfig{
			SigningKey: os.Getenv("JWT_SIGNING_KEY"),
			Issuer:     os.Getenv("JWT_ISSUER"),
			Audience:   getEnvOrDefault("JWT_AUDIENCE", "authenticated"),
		},
		Cache: CacheConfig{
			Size: getInt("CACHE_SIZE", 256, &errs),
			TTL:  getDuration("CACHE_TTL", 30*time.Second, &errs),
		},
		PubSub: PubSubConfig{
			ProjectID:    os.Getenv("PUBSUB_PROJECT_ID"),
			Topic:        getEnvOrDefault("PUBSUB_TOPIC", "station-events"),
			Subscription: getEnvOrDefault("PUBSUB_SUBSCRIPTION", "station-events-worker"),
		},
		Export: ExportConfig{
			Bucket:   os.Getenv("EXPORT_BUCKET"),
			Key:      getEnvOrDefault("EXPORT_KEY", "stations.json"),
			Region:   os.Getenv("AWS_REGION"),
			Endpoint: os.Getenv("S3_ENDPOINT"),
			TTL:      getDuration("EXPORT_TTL", time.Hour, &errs),
		},
		Worker: WorkerConfig{
			RefreshTimeout:     getDuration("WORKER_REFRESH_TIMEOUT", 30*time.Second, &errs),
			RefreshMinInterval: getDuration("WORKER_REFRESH_MIN_INTERVAL", 0, &errs),
		},
	}

	if cfg.Storage != StoragePostgres && cfg.Storage != StorageMemory {
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND: unknown backend %q", cfg.Storage))
	}
	if cfg.Cache.Size <= 0 {
		errs = append(errs, errors.New("CACHE_SIZE: must be positive"))
	}

	if cfg.IsProduction() {
		if cfg.Auth.SigningKey == "" {
			errs = append(errs, errors.New("JWT_SIGNING_KEY: required in production"))
		}
		cfg.DevTokens = false
	} else if cfg.Auth.SigningKey == "" {
		cfg.Auth.SigningKey = DevSigningKey
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return b
}

func getInt(key string, defaultValue int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return n
}

func getFloat(key string, defaultValue float64, errs *[]error) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return f
}

func getDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return defaultValue
	}
	return d
}
