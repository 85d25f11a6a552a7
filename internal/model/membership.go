package model

import "time"

// Membership is a time-bounded entitlement to member prices.  StartDate
// and ExpiryDate are calendar dates (UTC midnight), both inclusive.
type Membership struct {
	ID         uint64    `json:"id"`
	UserID     uint64    `json:"user_id"`
	StartDate  time.Time `json:"start_date"`
	ExpiryDate time.Time `json:"expiry_date"`
	PaymentRef string    `json:"payment_id"`
}

// ActiveAt reports whether the membership covers the calendar day of t.
func (m *Membership) ActiveAt(t time.Time) bool {
	day := truncateDay(t)
	return !day.Before(truncateDay(m.StartDate)) && !day.After(truncateDay(m.ExpiryDate))
}

// Validate checks the date range.
func (m *Membership) Validate() error {
	verr := &ValidationError{}
	if m.UserID == 0 {
		verr.Add("user_id", "is required")
	}
	if m.StartDate.IsZero() {
		verr.Add("start_date", "is required")
	}
	if m.ExpiryDate.IsZero() {
		verr.Add("expiry_date", "is required")
	}
	if !m.StartDate.IsZero() && !m.ExpiryDate.IsZero() && truncateDay(m.ExpiryDate).Before(truncateDay(m.StartDate)) {
		verr.Add("expiry_date", "must not be before start_date")
	}
	return verr.OrNil()
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// APIKey authenticates an operator system on the intake webhook.  Only the
// SHA-256 hash of the raw key is stored; the raw key is shown once at
// issue time.  Each key maps to exactly one operator account.
type APIKey struct {
	ID        uint64    `json:"id"`
	KeyHash   string    `json:"-"`
	UserID    uint64    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the key is no longer valid at now.
func (k *APIKey) Expired(now time.Time) bool { return !now.Before(k.ExpiresAt) }
