package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/activity-booking/internal/model"
	"github.com/iliyamo/activity-booking/internal/policy"
	"github.com/iliyamo/activity-booking/internal/repository"
)

func names(views []ActivityView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.Name)
	}
	return out
}

func TestActivityListingFollowsRole(t *testing.T) {
	f := newFixture(t)
	ownerID, rivalID := f.owner.UserID, f.rival.UserID
	f.db.addActivity(model.Activity{Name: "Own draft", OwnerID: &ownerID, IsReservable: true})
	f.db.addActivity(model.Activity{Name: "Rival draft", OwnerID: &rivalID, IsReservable: true})
	f.db.addActivity(model.Activity{Name: "Rival live", OwnerID: &rivalID, IsActive: true, IsReservable: true})
	svc := f.activities()

	list, err := svc.List(context.Background(), f.client, repository.ActivityQuery{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Climbing", "Rival live"}, names(list))

	list, err = svc.List(context.Background(), f.owner, repository.ActivityQuery{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Climbing", "Own draft"}, names(list))

	list, err = svc.List(context.Background(), f.admin, repository.ActivityQuery{})
	require.NoError(t, err)
	assert.Len(t, list, 4)

	list, err = svc.List(context.Background(), policy.Caller{}, repository.ActivityQuery{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Climbing", "Rival live"}, names(list))
}

func TestActivityGetOutsideScopeIsNotFound(t *testing.T) {
	f := newFixture(t)
	rivalID := f.rival.UserID
	draft := f.db.addActivity(model.Activity{Name: "Rival draft", OwnerID: &rivalID, IsReservable: true})
	svc := f.activities()

	_, err := svc.Get(context.Background(), f.client, draft.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = svc.Get(context.Background(), f.owner, f.activity.ID)
	assert.NoError(t, err)
	_, err = svc.Get(context.Background(), f.rival, f.activity.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestActivityFinalPrice(t *testing.T) {
	f := newFixture(t)
	svc := f.activities()

	v, err := svc.Get(context.Background(), f.client, f.activity.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(2000), v.FinalPriceCents)

	f.grantMembership(f.client.UserID)
	v, err = svc.Get(context.Background(), f.client, f.activity.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(1500), v.FinalPriceCents)

	ownerID := f.owner.UserID
	plain := f.db.addActivity(model.Activity{Name: "No discount", OwnerID: &ownerID, IsActive: true, IsReservable: true, PriceCents: 900})
	v, err = svc.Get(context.Background(), f.client, plain.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(900), v.FinalPriceCents)

	f.now = f.now.AddDate(1, 0, 0)
	v, err = svc.Get(context.Background(), f.client, f.activity.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(2000), v.FinalPriceCents)
}

func TestActivityCreate(t *testing.T) {
	f := newFixture(t)
	svc := f.activities()
	someone := uint64(77)

	v, err := svc.Create(context.Background(), f.owner, model.Activity{Name: "Kayak", OwnerID: &someone, IsReservable: true, PriceCents: 100})
	require.NoError(t, err)
	require.NotNil(t, v.OwnerID)
	assert.Equal(t, f.owner.UserID, *v.OwnerID)

	_, err = svc.Create(context.Background(), f.client, model.Activity{Name: "Kayak", IsReservable: true})
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = svc.Create(context.Background(), f.admin, model.Activity{Name: "Kayak"})
	verr, ok := model.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, verr.Fields, "")

	v, err = svc.Create(context.Background(), f.admin, model.Activity{Name: "Kayak", ExternalFormURL: "https://example.com/book"})
	require.NoError(t, err)
	assert.Nil(t, v.OwnerID)
}

func TestActivityUpdate(t *testing.T) {
	f := newFixture(t)
	svc := f.activities()
	off := false
	name := "Bouldering"

	_, err := svc.Update(context.Background(), f.rival, f.activity.ID, ActivityPatch{Name: &name})
	assert.ErrorIs(t, err, model.ErrForbidden)

	_, err = svc.Update(context.Background(), f.owner, f.activity.ID, ActivityPatch{IsReservable: &off})
	_, ok := model.AsValidation(err)
	assert.True(t, ok)

	phone := "0600000000"
	v, err := svc.Update(context.Background(), f.owner, f.activity.ID, ActivityPatch{Name: &name, IsReservable: &off, ContactPhone: &phone, ClearMemberPrice: true})
	require.NoError(t, err)
	assert.Equal(t, name, v.Name)
	assert.False(t, v.IsReservable)
	assert.Nil(t, v.MemberPriceCents)

	v, err = svc.Update(context.Background(), f.admin, f.activity.ID, ActivityPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, v.Name)
}
