// Package queue carries reservation lifecycle events over RabbitMQ.
package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType names a reservation lifecycle change.
type EventType string

const (
	ReservationCreated   EventType = "reservation.created"
	ReservationPaid      EventType = "reservation.paid"
	ReservationCancelled EventType = "reservation.cancelled"
)

// ReservationEvent is published after the transaction that caused it has
// committed.  It carries enough for consumers to log or notify without
// querying the database.
type ReservationEvent struct {
	EventID       string    `json:"event_id"`
	Type          EventType `json:"type"`
	ReservationID uint64    `json:"reservation_id"`
	UserID        uint64    `json:"user_id"`
	TimeslotID    uint64    `json:"timeslot_id"`
	ActivityID    uint64    `json:"activity_id,omitempty"`
	Status        string    `json:"status"`
	Source        string    `json:"source,omitempty"`
	AmountCents   uint32    `json:"amount_cents,omitempty"`
	ActorID       uint64    `json:"actor_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewEvent stamps a fresh event id and time.
func NewEvent(t EventType) ReservationEvent {
	return ReservationEvent{EventID: uuid.NewString(), Type: t, OccurredAt: time.Now().UTC()}
}

// Publisher sends events.  Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev ReservationEvent) error
}

// NopPublisher drops every event.  Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ReservationEvent) error { return nil }
