package model

import (
	"fmt"
	"time"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusPaid      ReservationStatus = "paid"
	StatusCancelled ReservationStatus = "cancelled"
)

// ReservationSource records which path created the reservation.
type ReservationSource string

const (
	// SourcePlatform is an interactive booking made through this API.
	SourcePlatform ReservationSource = "justplay"
	// SourceExploitant is a booking pushed by an operator system through the webhook.
	SourceExploitant ReservationSource = "exploitant"
)

// reservationTransitions lists every legal status change.  Anything not
// listed is rejected with ErrConflict.
var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	StatusPending: {StatusPaid, StatusCancelled},
	StatusPaid:    {StatusCancelled},
}

// CanTransition reports whether a reservation may move from one status to another.
func (s ReservationStatus) CanTransition(to ReservationStatus) bool {
	for _, t := range reservationTransitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

// Active reports whether the reservation still occupies its timeslot.
func (s ReservationStatus) Active() bool { return s == StatusPending || s == StatusPaid }

// Transition returns a wrapped ErrConflict when the change is illegal.
func (s ReservationStatus) Transition(to ReservationStatus) error {
	if !s.CanTransition(to) {
		return fmt.Errorf("reservation cannot go from %s to %s: %w", s, to, ErrConflict)
	}
	return nil
}

// Reservation records a user's claim on a timeslot.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – user who holds the reservation.
//  TimeslotID  – reserved timeslot.
//  Status      – pending, paid or cancelled.
//  Source      – justplay (interactive) or exploitant (webhook).
//  CreatedAt   – reservation_date column.
type Reservation struct {
	ID         uint64            `json:"id"`
	UserID     uint64            `json:"user_id"`
	TimeslotID uint64            `json:"timeslot_id"`
	Status     ReservationStatus `json:"status"`
	Source     ReservationSource `json:"source"`
	CreatedAt  time.Time         `json:"reservation_date"`
}

// ReservationDetail is a reservation with its timeslot and the activity
// fields needed for display, pricing and ownership checks.
type ReservationDetail struct {
	Reservation
	Timeslot        Timeslot `json:"timeslot"`
	ActivityID      uint64   `json:"activity_id"`
	ActivityName    string   `json:"activity_name"`
	ActivityOwnerID *uint64  `json:"-"`
}

// CancellationLog is the audit row written whenever a reservation is cancelled.
type CancellationLog struct {
	ID            uint64    `json:"id"`
	ReservationID uint64    `json:"reservation_id"`
	CancelledBy   *uint64   `json:"cancelled_by"`
	Reason        string    `json:"reason"`
	CancelledAt   time.Time `json:"cancelled_at"`
}
