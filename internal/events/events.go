// Package events publishes station lifecycle events for downstream consumers.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type identifies a station lifecycle event.
type Type string

const (
	TypeStationCreated             Type = "station.created"
	TypeStationUpdated             Type = "station.updated"
	TypeStationDeleted             Type = "station.deleted"
	TypeStationActivityChanged     Type = "station.activity_changed"
	TypeStationVerificationChanged Type = "station.verification_changed"
)

// Event is a station lifecycle notification.
type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	StationID  string    `json:"stationId"`
	OwnerID    string    `json:"ownerId,omitempty"`
	ActorID    string    `json:"actorId,omitempty"`
	Status     string    `json:"status,omitempty"`
	IsActive   *bool     `json:"isActive,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// New creates an event with a fresh ID and timestamp.
func New(t Type, stationID string) Event {
	return Event{
		ID:         "evt_" + uuid.New().String()[:22],
		Type:       t,
		StationID:  stationID,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher sends events to a broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher discards every event.
type NoopPublisher struct{}

// Publish does nothing.
func (NoopPublisher) Publish(context.Context, Event) error { return nil }

// InMemoryPublisher records published events. Intended for tests.
type InMemoryPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

// NewInMemoryPublisher creates an empty recording publisher.
func NewInMemoryPublisher() *InMemoryPublisher {
	return &InMemoryPublisher{}
}

// Publish records the event, or returns the configured failure.
func (p *InMemoryPublisher) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

// FailWith makes subsequent Publish calls return err. Pass nil to recover.
func (p *InMemoryPublisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Events returns a copy of the recorded events.
func (p *InMemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

var (
	_ Publisher = NoopPublisher{}
	_ Publisher = (*InMemoryPublisher)(nil)
)
