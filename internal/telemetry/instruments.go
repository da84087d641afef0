package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instruments records directory-level metrics.
type Instruments struct {
	mutations       metric.Int64Counter
	publishFailures metric.Int64Counter
	searches        metric.Int64Counter
	searchResults   metric.Int64Histogram
	refreshes       metric.Int64Counter
	refreshDuration metric.Float64Histogram
}

// NewInstruments creates the directory instruments on meter.
func NewInstruments(meter metric.Meter) (*Instruments, error) {
	var (
		in  Instruments
		err error
	)

	if in.mutations, err = meter.Int64Counter("station.mutations",
		metric.WithDescription("Station writes by kind"),
		metric.WithUnit("{mutation}"),
	); err != nil {
		return nil, fmt.Errorf("creating station.mutations: %w", err)
	}

	if in.publishFailures, err = meter.Int64Counter("station.events.publish_failures",
		metric.WithDescription("Station events that could not be published"),
		metric.WithUnit("{event}"),
	); err != nil {
		return nil, fmt.Errorf("creating station.events.publish_failures: %w", err)
	}

	if in.searches, err = meter.Int64Counter("directory.searches",
		metric.WithDescription("Public directory searches"),
		metric.WithUnit("{search}"),
	); err != nil {
		return nil, fmt.Errorf("creating directory.searches: %w", err)
	}

	if in.searchResults, err = meter.Int64Histogram("directory.search.results",
		metric.WithDescription("Stations returned per search"),
		metric.WithUnit("{station}"),
		metric.WithExplicitBucketBoundaries(0, 1, 5, 10, 25, 50, 100, 250, 500),
	); err != nil {
		return nil, fmt.Errorf("creating directory.search.results: %w", err)
	}

	if in.refreshes, err = meter.Int64Counter("directory.snapshot.refreshes",
		metric.WithDescription("Directory snapshot refreshes by outcome"),
		metric.WithUnit("{refresh}"),
	); err != nil {
		return nil, fmt.Errorf("creating directory.snapshot.refreshes: %w", err)
	}

	if in.refreshDuration, err = meter.Float64Histogram("directory.snapshot.refresh.duration",
		metric.WithDescription("Duration of directory snapshot refreshes"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating directory.snapshot.refresh.duration: %w", err)
	}

	return &in, nil
}

// RecordMutation counts a station write such as "create" or "verification".
func (in *Instruments) RecordMutation(ctx context.Context, kind string) {
	in.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordPublishFailure counts an event that was dropped.
func (in *Instruments) RecordPublishFailure(ctx context.Context, eventType string) {
	in.publishFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("event.type", eventType)))
}

// RecordSearch counts a directory search and its result size.
func (in *Instruments) RecordSearch(ctx context.Context, hasTerm bool, results int) {
	attrs := metric.WithAttributes(attribute.Bool("search.has_term", hasTerm))
	in.searches.Add(ctx, 1, attrs)
	in.searchResults.Record(ctx, int64(results), attrs)
}

// RecordRefresh counts a snapshot refresh. Outcome is "ok", "skipped" or "error".
func (in *Instruments) RecordRefresh(ctx context.Context, outcome string, d time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	in.refreshes.Add(ctx, 1, attrs)
	if outcome != "skipped" {
		in.refreshDuration.Record(ctx, d.Seconds(), attrs)
	}
}
