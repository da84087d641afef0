package events

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/mahatati/mahatati/internal/resilience"
)

// PubSubConfig holds configuration for the Pub/Sub publisher.
type PubSubConfig struct {
	ProjectID string
	Topic     string
	Logger    zerolog.Logger
}

// PubSubPublisher publishes events to a Google Cloud Pub/Sub topic.
type PubSubPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	logger    zerolog.Logger
}

// NewPubSubPublisher creates a publisher for the configured topic.
func NewPubSubPublisher(ctx context.Context, cfg PubSubConfig) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &PubSubPublisher{
		client:    client,
		publisher: client.Publisher(cfg.Topic),
		logger:    cfg.Logger,
	}, nil
}

// Publish sends the event and waits for the server acknowledgement.
func (p *PubSubPublisher) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return resilience.Permanent(fmt.Errorf("encoding event: %w", err))
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_type": string(event.Type),
			"station_id": event.StationID,
		},
	})

	serverID, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("publishing event: %w", err)
	}

	p.logger.Debug().
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Str("message_id", serverID).
		Msg("event published")

	return nil
}

// Close flushes pending messages and closes the client.
func (p *PubSubPublisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}

// ResilientPublisher retries publishes through a circuit breaker.
type ResilientPublisher struct {
	next     Publisher
	executor *resilience.Executor
}

// NewResilientPublisher wraps next with the given executor.
func NewResilientPublisher(next Publisher, executor *resilience.Executor) *ResilientPublisher {
	return &ResilientPublisher{next: next, executor: executor}
}

// Publish delivers the event through the executor.
func (p *ResilientPublisher) Publish(ctx context.Context, event Event) error {
	return p.executor.Do(ctx, func(ctx context.Context) error {
		return p.next.Publish(ctx, event)
	})
}

var (
	_ Publisher = (*PubSubPublisher)(nil)
	_ Publisher = (*ResilientPublisher)(nil)
)
