// Package policy is the access policy layer.  Every visibility and
// mutation decision is made here, keyed by the caller's role, so handlers
// and services never branch on roles themselves.  Policies are stateless
// values; nothing is cached between requests.
package policy

import (
	"fmt"

	"github.com/iliyamo/activity-booking/internal/model"
)

// Caller identifies who is making the request.  The zero value is an
// anonymous caller.
type Caller struct {
	UserID uint64
	Role   model.Role
}

// Authenticated reports whether the caller carries a session or API key.
func (c Caller) Authenticated() bool { return c.UserID != 0 && c.Role != model.RoleAnonymous }

// Policy decides, for one role, what a caller may see and change.
type Policy interface {
	Role() model.Role

	Activities(c Caller) Scope
	Timeslots(c Caller) Scope
	Reservations(c Caller) Scope
	Payments(c Caller) Scope
	Profiles(c Caller) (Scope, error)
	CancellationLogs(c Caller) (Scope, error)

	CreateActivity(c Caller) error
	UpdateActivity(c Caller, a *model.Activity) error
	ManageTimeslots(c Caller, a *model.Activity) error
	Book(c Caller) error
	PayReservation(c Caller, r *model.ReservationDetail) error
	CancelReservation(c Caller, r *model.ReservationDetail) error
	RefundPayment(c Caller, p *model.PaymentDetail) error
	UpdateProfile(c Caller) error
	WriteReview(c Caller) error
	Administer(c Caller) error
}

var registry = map[model.Role]Policy{
	model.RoleAnonymous:  anonymousPolicy{},
	model.RoleClient:     clientPolicy{},
	model.RoleExploitant: exploitantPolicy{},
	model.RoleAdmin:      adminPolicy{},
}

// For returns the policy of role.  Unknown roles get the anonymous policy.
func For(role model.Role) Policy {
	if p, ok := registry[role]; ok {
		return p
	}
	return anonymousPolicy{}
}

// Of is shorthand for For(c.Role).
func Of(c Caller) Policy { return For(c.Role) }

func forbidden(action string) error { return fmt.Errorf("%s: %w", action, model.ErrForbidden) }

// anonymousPolicy is the fallback: public reads only.
type anonymousPolicy struct{}

func (anonymousPolicy) Role() model.Role               { return model.RoleAnonymous }
func (anonymousPolicy) Activities(Caller) Scope        { return Scope{ActiveOnly: true} }
func (anonymousPolicy) Timeslots(Caller) Scope         { return Scope{UnbookedOnly: true} }
func (anonymousPolicy) Reservations(Caller) Scope      { return Scope{Deny: true} }
func (anonymousPolicy) Payments(Caller) Scope          { return Scope{Deny: true} }
func (anonymousPolicy) Profiles(Caller) (Scope, error) { return Scope{Deny: true}, model.ErrUnauthorized }
func (anonymousPolicy) CancellationLogs(Caller) (Scope, error) {
	return Scope{Deny: true}, model.ErrUnauthorized
}
func (anonymousPolicy) CreateActivity(Caller) error                   { return model.ErrUnauthorized }
func (anonymousPolicy) UpdateActivity(Caller, *model.Activity) error  { return model.ErrUnauthorized }
func (anonymousPolicy) ManageTimeslots(Caller, *model.Activity) error { return model.ErrUnauthorized }
func (anonymousPolicy) Book(Caller) error                             { return model.ErrUnauthorized }
func (anonymousPolicy) PayReservation(Caller, *model.ReservationDetail) error {
	return model.ErrUnauthorized
}
func (anonymousPolicy) CancelReservation(Caller, *model.ReservationDetail) error {
	return model.ErrUnauthorized
}
func (anonymousPolicy) RefundPayment(Caller, *model.PaymentDetail) error { return model.ErrUnauthorized }
func (anonymousPolicy) UpdateProfile(Caller) error                       { return model.ErrUnauthorized }
func (anonymousPolicy) WriteReview(Caller) error                         { return model.ErrUnauthorized }
func (anonymousPolicy) Administer(Caller) error                          { return model.ErrUnauthorized }

// clientPolicy: active catalogue, free slots, own bookings.
type clientPolicy struct{ anonymousPolicy }

func (clientPolicy) Role() model.Role { return model.RoleClient }
func (clientPolicy) Reservations(c Caller) Scope {
	return Scope{UserID: &c.UserID}
}
func (clientPolicy) Payments(c Caller) Scope { return Scope{UserID: &c.UserID} }
func (clientPolicy) Profiles(Caller) (Scope, error) {
	return Scope{Deny: true}, forbidden("exploitant profiles are reserved to exploitants and admins")
}
func (clientPolicy) CancellationLogs(Caller) (Scope, error) {
	return Scope{Deny: true}, forbidden("cancellation logs are reserved to admins")
}
func (clientPolicy) CreateActivity(Caller) error {
	return forbidden("only admins or exploitants can create an activity")
}
func (clientPolicy) UpdateActivity(Caller, *model.Activity) error {
	return forbidden("only admins or exploitants can update an activity")
}
func (clientPolicy) ManageTimeslots(Caller, *model.Activity) error {
	return forbidden("only admins or exploitants can manage timeslots")
}
func (clientPolicy) Book(Caller) error { return nil }
func (clientPolicy) PayReservation(c Caller, r *model.ReservationDetail) error {
	if r.UserID != c.UserID {
		return forbidden("only the reservation holder can pay")
	}
	return nil
}
func (clientPolicy) CancelReservation(c Caller, r *model.ReservationDetail) error {
	if r.UserID != c.UserID {
		return forbidden("cannot cancel another user's reservation")
	}
	return nil
}
func (clientPolicy) RefundPayment(Caller, *model.PaymentDetail) error {
	return forbidden("refunds are performed by exploitants or admins")
}
func (clientPolicy) UpdateProfile(Caller) error {
	return forbidden("only an exploitant can edit an exploitant profile")
}
func (clientPolicy) WriteReview(Caller) error { return nil }
func (clientPolicy) Administer(Caller) error  { return forbidden("admin only") }

// exploitantPolicy: everything hanging off the operator's own activities.
type exploitantPolicy struct{ clientPolicy }

func (exploitantPolicy) Role() model.Role            { return model.RoleExploitant }
func (exploitantPolicy) Activities(c Caller) Scope   { return Scope{OwnerID: &c.UserID} }
func (exploitantPolicy) Timeslots(c Caller) Scope    { return Scope{OwnerID: &c.UserID} }
func (exploitantPolicy) Reservations(c Caller) Scope { return Scope{OwnerID: &c.UserID} }
func (exploitantPolicy) Payments(c Caller) Scope     { return Scope{OwnerID: &c.UserID} }
func (exploitantPolicy) Profiles(c Caller) (Scope, error) {
	return Scope{UserID: &c.UserID}, nil
}
func (exploitantPolicy) CreateActivity(Caller) error { return nil }
func (exploitantPolicy) UpdateActivity(c Caller, a *model.Activity) error {
	if !a.OwnedBy(c.UserID) {
		return forbidden("you can only modify your own activities")
	}
	return nil
}
func (exploitantPolicy) ManageTimeslots(c Caller, a *model.Activity) error {
	if !a.OwnedBy(c.UserID) {
		return forbidden("you can only manage timeslots of your own activities")
	}
	return nil
}
func (exploitantPolicy) CancelReservation(c Caller, r *model.ReservationDetail) error {
	if r.UserID == c.UserID || ownerMatches(r.ActivityOwnerID, c.UserID) {
		return nil
	}
	return forbidden("cannot cancel a reservation on another exploitant's activity")
}
func (exploitantPolicy) RefundPayment(c Caller, p *model.PaymentDetail) error {
	if !ownerMatches(p.ActivityOwnerID, c.UserID) {
		return forbidden("cannot refund a payment on another exploitant's activity")
	}
	return nil
}
func (exploitantPolicy) UpdateProfile(Caller) error { return nil }

// adminPolicy sees and changes everything.
type adminPolicy struct{}

func (adminPolicy) Role() model.Role                              { return model.RoleAdmin }
func (adminPolicy) Activities(Caller) Scope                       { return Scope{} }
func (adminPolicy) Timeslots(Caller) Scope                        { return Scope{} }
func (adminPolicy) Reservations(Caller) Scope                     { return Scope{} }
func (adminPolicy) Payments(Caller) Scope                         { return Scope{} }
func (adminPolicy) Profiles(Caller) (Scope, error)                { return Scope{}, nil }
func (adminPolicy) CancellationLogs(Caller) (Scope, error)        { return Scope{}, nil }
func (adminPolicy) CreateActivity(Caller) error                   { return nil }
func (adminPolicy) UpdateActivity(Caller, *model.Activity) error  { return nil }
func (adminPolicy) ManageTimeslots(Caller, *model.Activity) error { return nil }
func (adminPolicy) Book(Caller) error                             { return nil }
func (adminPolicy) PayReservation(c Caller, r *model.ReservationDetail) error {
	if r.UserID != c.UserID {
		return forbidden("only the reservation holder can pay")
	}
	return nil
}
func (adminPolicy) CancelReservation(Caller, *model.ReservationDetail) error { return nil }
func (adminPolicy) RefundPayment(Caller, *model.PaymentDetail) error         { return nil }
func (adminPolicy) UpdateProfile(Caller) error {
	return forbidden("only an exploitant can edit an exploitant profile")
}
func (adminPolicy) WriteReview(Caller) error { return nil }
func (adminPolicy) Administer(Caller) error  { return nil }

func ownerMatches(ownerID *uint64, userID uint64) bool {
	return ownerID != nil && *ownerID == userID
}
