package service

import (
	"context"
	"time"

	"github.com/iliyamo/activity-booking/internal/model"
	"github.com/iliyamo/activity-booking/internal/policy"
	"github.com/iliyamo/activity-booking/internal/repository"
)

// ActivityView is an activity as returned to a caller, priced for them.
type ActivityView struct {
	model.Activity
	FinalPriceCents uint32 `json:"final_price_cents"`
}

// ActivityPatch lists the fields an update may change.  Nil means "keep".
type ActivityPatch struct {
	Name             *string   `json:"name"`
	Description      *string   `json:"description"`
	Exploitant       *string   `json:"exploitant"`
	IsActive         *bool     `json:"is_active"`
	PriceCents       *uint32   `json:"price_cents"`
	MemberPriceCents *uint32   `json:"member_price_cents"`
	ClearMemberPrice bool      `json:"clear_member_price"`
	IsReservable     *bool     `json:"is_reservable"`
	ContactName      *string   `json:"contact_name"`
	ContactEmail     *string   `json:"contact_email"`
	ContactPhone     *string   `json:"contact_phone"`
	ExternalFormURL  *string   `json:"external_form_url"`
	CategoryIDs      *[]uint64 `json:"category_ids"`
}

func (p ActivityPatch) apply(a *model.Activity) {
	setIf(&a.Name, p.Name)
	setIf(&a.Description, p.Description)
	setIf(&a.Exploitant, p.Exploitant)
	setIf(&a.IsActive, p.IsActive)
	setIf(&a.PriceCents, p.PriceCents)
	if p.MemberPriceCents != nil {
		v := *p.MemberPriceCents
		a.MemberPriceCents = &v
	}
	if p.ClearMemberPrice {
		a.MemberPriceCents = nil
	}
	setIf(&a.IsReservable, p.IsReservable)
	setIf(&a.ContactName, p.ContactName)
	setIf(&a.ContactEmail, p.ContactEmail)
	setIf(&a.ContactPhone, p.ContactPhone)
	setIf(&a.ExternalFormURL, p.ExternalFormURL)
	a.CategoryIDs = nil
	if p.CategoryIDs != nil {
		a.CategoryIDs = append([]uint64{}, *p.CategoryIDs...)
	}
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Pricer resolves what a caller pays for an activity.
type Pricer struct {
	Memberships MembershipStore
	Now         func() time.Time
}

// IsMember reports whether the caller holds a membership active today.
// Anonymous callers never do.
func (p Pricer) IsMember(ctx context.Context, c policy.Caller) (bool, error) {
	if !c.Authenticated() || p.Memberships == nil {
		return false, nil
	}
	return p.Memberships.ActiveAt(ctx, c.UserID, p.now())
}

func (p Pricer) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// ActivityService implements the activity catalogue.
type ActivityService struct {
	Activities ActivityStore
	Pricer     Pricer
}

func (s *ActivityService) view(a *model.Activity, member bool) ActivityView {
	return ActivityView{Activity: *a, FinalPriceCents: model.FinalPrice(a, member)}
}

// List returns the activities the caller may see.
func (s *ActivityService) List(ctx context.Context, c policy.Caller, q repository.ActivityQuery) ([]ActivityView, error) {
	acts, err := s.Activities.List(ctx, policy.Of(c).Activities(c), q)
	if err != nil {
		return nil, err
	}
	member, err := s.Pricer.IsMember(ctx, c)
	if err != nil {
		return nil, err
	}
	out := make([]ActivityView, 0, len(acts))
	for i := range acts {
		out = append(out, s.view(&acts[i], member))
	}
	return out, nil
}

// Get returns one activity.  Activities outside the caller's scope are
// reported as not found.
func (s *ActivityService) Get(ctx context.Context, c policy.Caller, id uint64) (*ActivityView, error) {
	a, err := s.visible(ctx, c, id)
	if err != nil {
		return nil, err
	}
	member, err := s.Pricer.IsMember(ctx, c)
	if err != nil {
		return nil, err
	}
	v := s.view(a, member)
	return &v, nil
}

func (s *ActivityService) visible(ctx context.Context, c policy.Caller, id uint64) (*model.Activity, error) {
	a, err := s.Activities.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Of(c).Activities(c).Permits(policy.Row{OwnerID: a.OwnerID, ActivityActive: a.IsActive}) {
		return nil, model.ErrNotFound
	}
	return a, nil
}

// Create publishes a new activity.  An exploitant always becomes its
// owner; an admin may name any owner or none.
func (s *ActivityService) Create(ctx context.Context, c policy.Caller, in model.Activity) (*ActivityView, error) {
	p := policy.Of(c)
	if err := p.CreateActivity(c); err != nil {
		return nil, err
	}
	a := in
	a.ID = 0
	a.AverageRating = 0
	a.Categories = nil
	if p.Role() == model.RoleExploitant {
		owner := c.UserID
		a.OwnerID = &owner
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := s.Activities.Create(ctx, &a); err != nil {
		return nil, err
	}
	return s.Get(ctx, c, a.ID)
}

// Update applies patch to an activity the caller may change.
func (s *ActivityService) Update(ctx context.Context, c policy.Caller, id uint64, patch ActivityPatch) (*ActivityView, error) {
	a, err := s.Activities.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Of(c).UpdateActivity(c, a); err != nil {
		return nil, err
	}
	patch.apply(a)
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := s.Activities.Update(ctx, a); err != nil {
		return nil, err
	}
	return s.Get(ctx, c, id)
}
