// Package worker consumes station lifecycle events and keeps the published
// directory snapshot current.
package worker

import (
	"time"
)

// RefreshConfig holds configuration for the snapshot refresh job.
type RefreshConfig struct {
	// Timeout bounds a single refresh, including the storage write.
	// Default: 30 seconds
	Timeout time.Duration

	// MinInterval coalesces bursts of events: a refresh requested within
	// MinInterval of the previous successful one is skipped, unless forced,
	// and a single trailing refresh runs once the interval has passed.
	// Default: 0 (every event refreshes)
	MinInterval time.Duration
}

// DefaultRefreshConfig returns the default refresh configuration.
func DefaultRefreshConfig() RefreshConfig {
	return RefreshConfig{
		Timeout: 30 * time.Second,
	}
}

// ReceiveConfig holds Pub/Sub receive settings.
type ReceiveConfig struct {
	// MaxOutstandingMessages caps unacknowledged messages held by the worker.
	// Default: 10
	MaxOutstandingMessages int

	// MaxExtension is how long a message lease may be extended.
	// Default: 10 minutes
	MaxExtension time.Duration
}

// DefaultReceiveConfig returns the default receive settings.
func DefaultReceiveConfig() ReceiveConfig {
	return ReceiveConfig{
		MaxOutstandingMessages: 10,
		MaxExtension:           10 * time.Minute,
	}
}
