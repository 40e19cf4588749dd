// Package events defines the domain event contract shared by aggregates and
// the messaging adapters that publish them.
package events

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is the interface all domain events must implement.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	AggregateID() uuid.UUID
	AggregateType() string
	// PartitionKey groups events that must stay ordered on the bus.
	PartitionKey() string
	OccurredAt() time.Time
}

// BaseEvent carries the envelope fields of a DomainEvent. Concrete events
// embed it and add their own payload fields.
type BaseEvent struct {
	ID        uuid.UUID `json:"event_id"`
	Type      string    `json:"event_type"`
	Aggregate uuid.UUID `json:"aggregate_id"`
	Kind      string    `json:"aggregate_type"`
	Key       string    `json:"partition_key"`
	Occurred  time.Time `json:"occurred_at"`
}

// NewBaseEvent creates a BaseEvent with a generated id stamped at occurredAt.
// A zero occurredAt is replaced by the current UTC time.
func NewBaseEvent(eventType string, aggregateID uuid.UUID, aggregateType, key string, occurredAt time.Time) BaseEvent {
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	return BaseEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Aggregate: aggregateID,
		Kind:      aggregateType,
		Key:       key,
		Occurred:  occurredAt,
	}
}

func (e BaseEvent) EventID() uuid.UUID     { return e.ID }
func (e BaseEvent) EventType() string      { return e.Type }
func (e BaseEvent) AggregateID() uuid.UUID { return e.Aggregate }
func (e BaseEvent) AggregateType() string  { return e.Kind }
func (e BaseEvent) PartitionKey() string   { return e.Key }
func (e BaseEvent) OccurredAt() time.Time  { return e.Occurred }
