package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mahatati/mahatati/internal/events"
)

// TypeSnapshotRefresh is an operator-issued message that forces a refresh.
const TypeSnapshotRefresh events.Type = "snapshot.refresh"

// ErrMalformedMessage is returned for payloads that are not a station event.
var ErrMalformedMessage = errors.New("malformed message")

// Outcome describes how a message was handled.
type Outcome string

const (
	OutcomeRefreshed Outcome = "refreshed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeIgnored   Outcome = "ignored"
)

// EventProcessor turns station events into snapshot refreshes.
type EventProcessor struct {
	job    *RefreshJob
	logger zerolog.Logger
}

// NewEventProcessor creates a processor that refreshes through job.
func NewEventProcessor(job *RefreshJob, logger zerolog.Logger) *EventProcessor {
	return &EventProcessor{job: job, logger: logger}
}

// Process handles one message payload. A nil error means the message should
// be acknowledged; unknown event types are ignored and acknowledged.
func (p *EventProcessor) Process(ctx context.Context, data []byte) (Outcome, error) {
	var ev events.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if ev.Type == "" {
		return "", fmt.Errorf("%w: missing event type", ErrMalformedMessage)
	}

	logger := p.logger.With().
		Str("event_id", ev.ID).
		Str("event_type", string(ev.Type)).
		Str("station_id", ev.StationID).
		Logger()

	force := false
	switch ev.Type {
	case events.TypeStationCreated,
		events.TypeStationUpdated,
		events.TypeStationDeleted,
		events.TypeStationActivityChanged,
		events.TypeStationVerificationChanged:
	case TypeSnapshotRefresh:
		force = true
	default:
		logger.Warn().Msg("unknown event type")
		return OutcomeIgnored, nil
	}

	logger.Info().Str("actor_id", ev.ActorID).Msg("station event received")

	result, err := p.job.Run(ctx, string(ev.Type), force)
	if err != nil {
		return "", err
	}
	if result.Skipped {
		return OutcomeSkipped, nil
	}
	return OutcomeRefreshed, nil
}
