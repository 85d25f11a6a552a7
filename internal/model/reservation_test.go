package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReservationTransitions(t *testing.T) {
	allowed := map[[2]ReservationStatus]bool{
		{StatusPending, StatusPaid}:      true,
		{StatusPending, StatusCancelled}: true,
		{StatusPaid, StatusCancelled}:    true,
	}
	all := []ReservationStatus{StatusPending, StatusPaid, StatusCancelled}
	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]ReservationStatus{from, to}]
			assert.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
			err := from.Transition(to)
			if want {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, ErrConflict), "%s -> %s", from, to)
			}
		}
	}
}

func TestReservationStatusActive(t *testing.T) {
	assert.True(t, StatusPending.Active())
	assert.True(t, StatusPaid.Active())
	assert.False(t, StatusCancelled.Active())
}

func TestPaymentRefund(t *testing.T) {
	assert.NoError(t, PaymentPaid.Refund())
	assert.ErrorIs(t, PaymentRefunded.Refund(), ErrConflict)
	assert.ErrorIs(t, PaymentFailed.Refund(), ErrConflict)
}

func TestParsePaymentMethod(t *testing.T) {
	m, err := ParsePaymentMethod("cash")
	assert.NoError(t, err)
	assert.Equal(t, MethodCash, m)

	_, err = ParsePaymentMethod("external")
	_, isValidation := AsValidation(err)
	assert.True(t, isValidation)
}

func TestValidateWindow(t *testing.T) {
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	assert.NoError(t, ValidateWindow(start, start.Add(time.Hour)))

	v, ok := AsValidation(ValidateWindow(start, start))
	assert.True(t, ok)
	assert.Contains(t, v.Fields, "end_time")

	v, ok = AsValidation(ValidateWindow(time.Time{}, time.Time{}))
	assert.True(t, ok)
	assert.Len(t, v.Fields, 2)
}

func TestMembershipActiveAt(t *testing.T) {
	m := Membership{
		UserID:     1,
		StartDate:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ExpiryDate: time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	assert.True(t, m.ActiveAt(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, m.ActiveAt(time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC)))
	assert.False(t, m.ActiveAt(time.Date(2027, 1, 1, 0, 0, 1, 0, time.UTC)))
	assert.False(t, m.ActiveAt(time.Date(2025, 12, 31, 12, 0, 0, 0, time.UTC)))
	assert.NoError(t, m.Validate())

	m.ExpiryDate = m.StartDate.AddDate(0, 0, -1)
	assert.Error(t, m.Validate())
}

func TestAPIKeyExpired(t *testing.T) {
	now := time.Now()
	assert.False(t, (&APIKey{ExpiresAt: now.Add(time.Minute)}).Expired(now))
	assert.True(t, (&APIKey{ExpiresAt: now}).Expired(now))
}
