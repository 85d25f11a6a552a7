package model

import (
	"fmt"
	"time"
)

// PaymentMethod is how a reservation was settled.
type PaymentMethod string

const (
	MethodStripe PaymentMethod = "stripe"
	MethodPaypal PaymentMethod = "paypal"
	MethodCash   PaymentMethod = "cash"
	// MethodExternal marks payments settled by the operator's own system
	// for reservations received through the webhook.
	MethodExternal PaymentMethod = "external"
)

// ParsePaymentMethod accepts the methods a client may choose.  External is
// reserved for the intake gateway.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(s); m {
	case MethodStripe, MethodPaypal, MethodCash:
		return m, nil
	}
	return "", NewValidationError("method", "must be one of stripe, paypal, cash")
}

// PaymentStatus is the settlement state of a payment.
type PaymentStatus string

const (
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// Refund validates the paid → refunded transition.  Refunds are always an
// explicit operator or admin action; cancelling a reservation never
// triggers one.
func (s PaymentStatus) Refund() error {
	if s != PaymentPaid {
		return fmt.Errorf("payment in status %s cannot be refunded: %w", s, ErrConflict)
	}
	return nil
}

// Payment is the settlement record of a reservation (one-to-one).
type Payment struct {
	ID            uint64        `json:"id"`
	ReservationID uint64        `json:"reservation_id"`
	AmountCents   uint32        `json:"amount_cents"`
	Method        PaymentMethod `json:"method"`
	Status        PaymentStatus `json:"status"`
	PaidAt        time.Time     `json:"payment_date"`
}

// PaymentDetail adds the ownership fields used by the access policy.
type PaymentDetail struct {
	Payment
	UserID          uint64  `json:"user_id"`
	ActivityID      uint64  `json:"activity_id"`
	ActivityOwnerID *uint64 `json:"-"`
}
