package model

import "time"

// Timeslot is a concrete bookable window belonging to one activity.
// IsBooked is the booking gate: it flips to true exactly once per active
// reservation and back to false when that reservation is cancelled.
//
// Fields:
//  ID         – primary key identifier.
//  ActivityID – owning activity (cascade on delete).
//  StartTime  – window start, UTC.
//  EndTime    – window end, UTC, strictly after StartTime.
//  IsBooked   – booked flag.
type Timeslot struct {
	ID         uint64    `json:"id"`
	ActivityID uint64    `json:"activity_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	IsBooked   bool      `json:"is_booked"`
}

// ValidateWindow checks that start and end form a proper window.
func ValidateWindow(start, end time.Time) error {
	verr := &ValidationError{}
	if start.IsZero() {
		verr.Add("start_time", "is required")
	}
	if end.IsZero() {
		verr.Add("end_time", "is required")
	}
	if !start.IsZero() && !end.IsZero() && !start.Before(end) {
		verr.Add("end_time", "must be after start_time")
	}
	return verr.OrNil()
}

// TimeslotDetail is a timeslot joined with the fields of its activity
// that authorization and pricing need.
type TimeslotDetail struct {
	Timeslot
	ActivityName     string  `json:"activity_name"`
	ActivityActive   bool    `json:"activity_active"`
	ActivityOwnerID  *uint64 `json:"-"`
	IsReservable     bool    `json:"is_reservable"`
	PriceCents       uint32  `json:"price_cents"`
	MemberPriceCents *uint32 `json:"member_price_cents"`
}
