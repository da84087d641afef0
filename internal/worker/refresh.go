package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mahatati/mahatati/internal/api/models"
	"github.com/mahatati/mahatati/internal/export"
)

// SnapshotSource provides the current directory.
type SnapshotSource interface {
	Snapshot(ctx context.Context) ([]models.Station, models.StationSummary, error)
}

// SnapshotSink stores a directory snapshot.
type SnapshotSink interface {
	Save(ctx context.Context, stations []models.Station, summary models.StationSummary) (*export.Snapshot, error)
}

// RefreshRecorder receives refresh outcomes ("ok", "skipped" or "error").
type RefreshRecorder interface {
	RecordRefresh(ctx context.Context, outcome string, d time.Duration)
}

// RefreshJob regenerates the directory snapshot.
type RefreshJob struct {
	config   RefreshConfig
	source   SnapshotSource
	sink     SnapshotSink
	recorder RefreshRecorder
	logger   zerolog.Logger
	now      func() time.Time

	// run serialises refreshes so snapshots are written in order.
	run sync.Mutex

	// trailing is the refresh owed to events skipped by MinInterval.
	trailingMu sync.Mutex
	trailing   *time.Timer
	stopped    bool

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	TotalRefreshes      int64
	SuccessfulRefreshes int64
	FailedRefreshes     int64
	SkippedRefreshes    int64
	TrailingRefreshes   int64

	LastRefreshAt       time.Time
	LastRefreshDuration time.Duration
	LastStationCount    int
	TotalDuration       time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config RefreshConfig
	Source SnapshotSource
	Sink   SnapshotSink
	Logger zerolog.Logger

	// Recorder is optional.
	Recorder RefreshRecorder
}

// NewRefreshJob creates a new refresh job.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	config := cfg.Config
	if config.Timeout <= 0 {
		config.Timeout = DefaultRefreshConfig().Timeout
	}

	return &RefreshJob{
		config:   config,
		source:   cfg.Source,
		sink:     cfg.Sink,
		recorder: cfg.Recorder,
		logger:   cfg.Logger,
		now:      time.Now,
		metrics:  &RefreshMetrics{},
	}
}

// RefreshResult contains the result of a refresh.
type RefreshResult struct {
	Reason       string
	StartTime    time.Time
	EndTime      time.Time
	Duration     time.Duration
	StationCount int
	Skipped      bool
}

// Run regenerates the snapshot. Reason is logged with the result. When
// force is false the refresh may be skipped per RefreshConfig.MinInterval;
// a skipped run schedules one trailing refresh for when the interval ends.
func (j *RefreshJob) Run(ctx context.Context, reason string, force bool) (*RefreshResult, error) {
	j.run.Lock()
	defer j.run.Unlock()

	start := j.now()
	result := &RefreshResult{Reason: reason, StartTime: start}

	if !force && j.recentlyRefreshed(start) {
		result.Skipped = true
		result.EndTime = start
		j.metrics.mu.Lock()
		j.metrics.SkippedRefreshes++
		j.metrics.mu.Unlock()
		j.record(ctx, "skipped", 0)
		j.scheduleTrailing(j.config.MinInterval - start.Sub(j.GetMetrics().LastRefreshAt))

		j.logger.Debug().Str("reason", reason).Msg("snapshot refresh skipped")
		return result, nil
	}

	runCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	err := j.refresh(runCtx, result)

	result.EndTime = j.now()
	result.Duration = result.EndTime.Sub(start)
	j.updateMetrics(result, err)

	if err != nil {
		j.record(ctx, "error", result.Duration)
		j.logger.Error().
			Err(err).
			Str("reason", reason).
			Dur("duration", result.Duration).
			Msg("snapshot refresh failed")
		return result, err
	}
	j.record(ctx, "ok", result.Duration)

	j.logger.Info().
		Str("reason", reason).
		Int("station_count", result.StationCount).
		Dur("duration", result.Duration).
		Msg("snapshot refresh completed")

	return result, nil
}

func (j *RefreshJob) refresh(ctx context.Context, result *RefreshResult) error {
	stations, summary, err := j.source.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("loading stations: %w", err)
	}

	if _, err := j.sink.Save(ctx, stations, summary); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	result.StationCount = len(stations)
	return nil
}

// scheduleTrailing arranges a forced refresh after delay unless one is
// already pending.
func (j *RefreshJob) scheduleTrailing(delay time.Duration) {
	j.trailingMu.Lock()
	defer j.trailingMu.Unlock()

	if j.stopped || j.trailing != nil {
		return
	}
	j.trailing = time.AfterFunc(delay, func() {
		j.trailingMu.Lock()
		j.trailing = nil
		j.trailingMu.Unlock()

		j.metrics.mu.Lock()
		j.metrics.TrailingRefreshes++
		j.metrics.mu.Unlock()

		// Failures are logged by Run; the next event retries.
		_, _ = j.Run(context.Background(), "trailing", true)
	})
}

// Stop cancels a pending trailing refresh and prevents new ones.
func (j *RefreshJob) Stop() {
	j.trailingMu.Lock()
	defer j.trailingMu.Unlock()

	j.stopped = true
	if j.trailing != nil {
		j.trailing.Stop()
		j.trailing = nil
	}
}

func (j *RefreshJob) record(ctx context.Context, outcome string, d time.Duration) {
	if j.recorder != nil {
		j.recorder.RecordRefresh(ctx, outcome, d)
	}
}

func (j *RefreshJob) recentlyRefreshed(now time.Time) bool {
	if j.config.MinInterval <= 0 {
		return false
	}

	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	last := j.metrics.LastRefreshAt
	return !last.IsZero() && now.Sub(last) < j.config.MinInterval
}

func (j *RefreshJob) updateMetrics(result *RefreshResult, err error) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRefreshes++
	j.metrics.TotalDuration += result.Duration
	j.metrics.LastRefreshDuration = result.Duration
	if err != nil {
		j.metrics.FailedRefreshes++
		return
	}
	j.metrics.SuccessfulRefreshes++
	j.metrics.LastRefreshAt = result.EndTime
	j.metrics.LastStationCount = result.StationCount
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRefreshes:      j.metrics.TotalRefreshes,
		SuccessfulRefreshes: j.metrics.SuccessfulRefreshes,
		FailedRefreshes:     j.metrics.FailedRefreshes,
		SkippedRefreshes:    j.metrics.SkippedRefreshes,
		TrailingRefreshes:   j.metrics.TrailingRefreshes,
		LastRefreshAt:       j.metrics.LastRefreshAt,
		LastRefreshDuration: j.metrics.LastRefreshDuration,
		LastStationCount:    j.metrics.LastStationCount,
		TotalDuration:       j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]any {
	m := j.GetMetrics()
	return map[string]any{
		"total_refreshes":       m.TotalRefreshes,
		"successful_refreshes":  m.SuccessfulRefreshes,
		"failed_refreshes":      m.FailedRefreshes,
		"skipped_refreshes":     m.SkippedRefreshes,
		"trailing_refreshes":    m.TrailingRefreshes,
		"last_refresh_at":       m.LastRefreshAt,
		"last_refresh_duration": m.LastRefreshDuration.String(),
		"last_station_count":    m.LastStationCount,
		"total_duration":        m.TotalDuration.String(),
	}
}
