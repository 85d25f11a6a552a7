package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/activity-booking/internal/model"
)

func ptr(v uint64) *uint64 { return &v }

func TestForUnknownRoleFallsBackToAnonymous(t *testing.T) {
	assert.Equal(t, model.RoleAnonymous, For(model.Role("superuser")).Role())
	assert.Equal(t, model.RoleAdmin, For(model.RoleAdmin).Role())
}

func TestActivityVisibility(t *testing.T) {
	client := Caller{UserID: 1, Role: model.RoleClient}
	exp := Caller{UserID: 2, Role: model.RoleExploitant}
	admin := Caller{UserID: 3, Role: model.RoleAdmin}

	ownInactive := Row{OwnerID: ptr(2), ActivityActive: false}
	otherInactive := Row{OwnerID: ptr(9), ActivityActive: false}
	otherActive := Row{OwnerID: ptr(9), ActivityActive: true}

	assert.False(t, Of(client).Activities(client).Permits(otherInactive))
	assert.True(t, Of(client).Activities(client).Permits(otherActive))

	assert.True(t, Of(exp).Activities(exp).Permits(ownInactive))
	assert.False(t, Of(exp).Activities(exp).Permits(otherActive))

	for _, r := range []Row{ownInactive, otherInactive, otherActive} {
		assert.True(t, Of(admin).Activities(admin).Permits(r))
	}
}

func TestTimeslotVisibility(t *testing.T) {
	anon := Caller{}
	exp := Caller{UserID: 2, Role: model.RoleExploitant}

	assert.True(t, Of(anon).Timeslots(anon).Permits(Row{Booked: false}))
	assert.False(t, Of(anon).Timeslots(anon).Permits(Row{Booked: true}))
	assert.True(t, Of(exp).Timeslots(exp).Permits(Row{Booked: true, OwnerID: ptr(2)}))
	assert.False(t, Of(exp).Timeslots(exp).Permits(Row{Booked: false, OwnerID: ptr(5)}))
}

func TestReservationAndPaymentVisibility(t *testing.T) {
	client := Caller{UserID: 1, Role: model.RoleClient}
	exp := Caller{UserID: 2, Role: model.RoleExploitant}

	mine := Row{UserID: 1, OwnerID: ptr(2)}
	theirs := Row{UserID: 4, OwnerID: ptr(5)}

	assert.True(t, Of(client).Reservations(client).Permits(mine))
	assert.False(t, Of(client).Reservations(client).Permits(theirs))
	assert.True(t, Of(exp).Payments(exp).Permits(mine))
	assert.False(t, Of(exp).Payments(exp).Permits(theirs))
	assert.False(t, Of(Caller{}).Reservations(Caller{}).Permits(mine))
}

func TestActivityMutations(t *testing.T) {
	client := Caller{UserID: 1, Role: model.RoleClient}
	exp := Caller{UserID: 2, Role: model.RoleExploitant}
	admin := Caller{UserID: 3, Role: model.RoleAdmin}
	own := &model.Activity{OwnerID: ptr(2)}
	other := &model.Activity{OwnerID: ptr(9)}
	orphan := &model.Activity{}

	assert.ErrorIs(t, Of(client).CreateActivity(client), model.ErrForbidden)
	assert.NoError(t, Of(exp).CreateActivity(exp))
	assert.NoError(t, Of(admin).CreateActivity(admin))
	assert.ErrorIs(t, Of(Caller{}).CreateActivity(Caller{}), model.ErrUnauthorized)

	assert.NoError(t, Of(exp).UpdateActivity(exp, own))
	assert.ErrorIs(t, Of(exp).UpdateActivity(exp, other), model.ErrForbidden)
	assert.ErrorIs(t, Of(exp).UpdateActivity(exp, orphan), model.ErrForbidden)
	assert.NoError(t, Of(admin).UpdateActivity(admin, other))
	assert.ErrorIs(t, Of(client).UpdateActivity(client, own), model.ErrForbidden)
}

func TestReservationMutations(t *testing.T) {
	client := Caller{UserID: 1, Role: model.RoleClient}
	exp := Caller{UserID: 2, Role: model.RoleExploitant}
	admin := Caller{UserID: 3, Role: model.RoleAdmin}
	r := &model.ReservationDetail{Reservation: model.Reservation{UserID: 1}, ActivityOwnerID: ptr(2)}
	foreign := &model.ReservationDetail{Reservation: model.Reservation{UserID: 8}, ActivityOwnerID: ptr(9)}

	assert.NoError(t, Of(client).CancelReservation(client, r))
	assert.ErrorIs(t, Of(client).CancelReservation(client, foreign), model.ErrForbidden)
	assert.NoError(t, Of(exp).CancelReservation(exp, r))
	assert.ErrorIs(t, Of(exp).CancelReservation(exp, foreign), model.ErrForbidden)
	assert.NoError(t, Of(admin).CancelReservation(admin, foreign))

	assert.NoError(t, Of(client).PayReservation(client, r))
	assert.ErrorIs(t, Of(exp).PayReservation(exp, r), model.ErrForbidden)

	p := &model.PaymentDetail{ActivityOwnerID: ptr(2)}
	assert.ErrorIs(t, Of(client).RefundPayment(client, p), model.ErrForbidden)
	assert.NoError(t, Of(exp).RefundPayment(exp, p))
	assert.NoError(t, Of(admin).RefundPayment(admin, p))
}

func TestProfilesAndAdministration(t *testing.T) {
	client := Caller{UserID: 1, Role: model.RoleClient}
	exp := Caller{UserID: 2, Role: model.RoleExploitant}
	admin := Caller{UserID: 3, Role: model.RoleAdmin}

	_, err := Of(client).Profiles(client)
	assert.ErrorIs(t, err, model.ErrForbidden)
	s, err := Of(exp).Profiles(exp)
	assert.NoError(t, err)
	assert.Equal(t, uint64(2), *s.UserID)
	_, err = Of(admin).Profiles(admin)
	assert.NoError(t, err)

	assert.NoError(t, Of(exp).UpdateProfile(exp))
	assert.ErrorIs(t, Of(admin).UpdateProfile(admin), model.ErrForbidden)

	assert.NoError(t, Of(admin).Administer(admin))
	assert.ErrorIs(t, Of(exp).Administer(exp), model.ErrForbidden)
	_, err = Of(exp).CancellationLogs(exp)
	assert.ErrorIs(t, err, model.ErrForbidden)
}
