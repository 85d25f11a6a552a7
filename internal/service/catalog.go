package service

import (
	"context"
	"strings"

	"github.com/iliyamo/activity-booking/internal/model"
	"github.com/iliyamo/activity-booking/internal/policy"
	"github.com/iliyamo/activity-booking/internal/repository"
)

// CatalogService covers the supporting records around activities:
// categories, reviews, exploitant profiles, memberships and the
// cancellation audit trail.
type CatalogService struct {
	Categories    CategoryStore
	Reviews       ReviewStore
	Profiles      ProfileStore
	Memberships   MembershipStore
	Cancellations CancellationStore
	Activities    *ActivityService
	Pricer        Pricer
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.Categories.List(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, c policy.Caller, name string) (*model.Category, error) {
	if err := policy.Of(c).Administer(c); err != nil {
		return nil, err
	}
	cat := &model.Category{Name: strings.TrimSpace(name)}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	if err := s.Categories.Create(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, c policy.Caller, id uint64, name string) (*model.Category, error) {
	if err := policy.Of(c).Administer(c); err != nil {
		return nil, err
	}
	cat := &model.Category{ID: id, Name: strings.TrimSpace(name)}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	if err := s.Categories.Update(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

// ListReviews returns the reviews of an activity the caller can see.
func (s *CatalogService) ListReviews(ctx context.Context, c policy.Caller, activityID uint64, p repository.Page) ([]model.Review, error) {
	if activityID == 0 {
		return nil, model.NewValidationError("activity_id", "is required")
	}
	if _, err := s.Activities.visible(ctx, c, activityID); err != nil {
		return nil, err
	}
	return s.Reviews.ListForActivity(ctx, activityID, p)
}

// CreateReview stores a review by the caller; the activity's average
// rating is recomputed with it.
func (s *CatalogService) CreateReview(ctx context.Context, c policy.Caller, rv model.Review) (*model.Review, error) {
	if err := policy.Of(c).WriteReview(c); err != nil {
		return nil, err
	}
	rv.ID = 0
	rv.UserID = c.UserID
	rv.Comment = strings.TrimSpace(rv.Comment)
	if err := rv.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.Activities.visible(ctx, c, rv.ActivityID); err != nil {
		return nil, err
	}
	if err := s.Reviews.Create(ctx, &rv); err != nil {
		return nil, err
	}
	return &rv, nil
}

// ListProfiles returns the exploitant profiles the caller may read: their
// own for an exploitant, all for an admin.
func (s *CatalogService) ListProfiles(ctx context.Context, c policy.Caller) ([]model.ExploitantProfile, error) {
	scope, err := policy.Of(c).Profiles(c)
	if err != nil {
		return nil, err
	}
	return s.Profiles.List(ctx, scope)
}

// UpdateProfile creates or replaces the caller's own exploitant profile.
func (s *CatalogService) UpdateProfile(ctx context.Context, c policy.Caller, p model.ExploitantProfile) (*model.ExploitantProfile, error) {
	if err := policy.Of(c).UpdateProfile(c); err != nil {
		return nil, err
	}
	p.UserID = c.UserID
	p.CompanyName = strings.TrimSpace(p.CompanyName)
	p.Website = strings.TrimSpace(p.Website)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.Profiles.Upsert(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// MembershipStatus is the caller's membership summary.
type MembershipStatus struct {
	Active      bool               `json:"active"`
	Memberships []model.Membership `json:"memberships"`
}

func (s *CatalogService) MyMemberships(ctx context.Context, c policy.Caller) (*MembershipStatus, error) {
	if !c.Authenticated() {
		return nil, model.ErrUnauthorized
	}
	list, err := s.Memberships.ListForUser(ctx, c.UserID)
	if err != nil {
		return nil, err
	}
	active, err := s.Pricer.IsMember(ctx, c)
	if err != nil {
		return nil, err
	}
	return &MembershipStatus{Active: active, Memberships: list}, nil
}

// GrantMembership records a membership period for any user.
func (s *CatalogService) GrantMembership(ctx context.Context, c policy.Caller, m model.Membership) (*model.Membership, error) {
	if err := policy.Of(c).Administer(c); err != nil {
		return nil, err
	}
	m.ID = 0
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if err := s.Memberships.Create(ctx, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListCancellations lists the cancellation audit trail.
func (s *CatalogService) ListCancellations(ctx context.Context, c policy.Caller, reservationID uint64, p repository.Page) ([]model.CancellationLog, error) {
	if _, err := policy.Of(c).CancellationLogs(c); err != nil {
		return nil, err
	}
	return s.Cancellations.List(ctx, reservationID, p)
}
