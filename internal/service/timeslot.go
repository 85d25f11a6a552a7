package service

import (
	"context"
	"time"

	"github.com/iliyamo/activity-booking/internal/model"
	"github.com/iliyamo/activity-booking/internal/policy"
	"github.com/iliyamo/activity-booking/internal/repository"
)

// TimeslotService manages bookable windows.
type TimeslotService struct {
	Timeslots  TimeslotStore
	Activities ActivityStore
	Cache      Invalidator
}

// Invalidator drops cached public listings after availability changes.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type nopInvalidator struct{}

func (nopInvalidator) Invalidate(context.Context) error { return nil }

func invalidator(i Invalidator) Invalidator {
	if i == nil {
		return nopInvalidator{}
	}
	return i
}

func (s *TimeslotService) List(ctx context.Context, c policy.Caller, q repository.TimeslotQuery) ([]model.TimeslotDetail, error) {
	return s.Timeslots.List(ctx, policy.Of(c).Timeslots(c), q)
}

// Get returns one timeslot, or ErrNotFound when the caller may not see it.
func (s *TimeslotService) Get(ctx context.Context, c policy.Caller, id uint64) (*model.TimeslotDetail, error) {
	ts, err := s.Timeslots.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	row := policy.Row{OwnerID: ts.ActivityOwnerID, ActivityActive: ts.ActivityActive, Booked: ts.IsBooked}
	if !policy.Of(c).Timeslots(c).Permits(row) {
		return nil, model.ErrNotFound
	}
	return ts, nil
}

// Create adds a free timeslot to an activity the caller manages.
func (s *TimeslotService) Create(ctx context.Context, c policy.Caller, activityID uint64, start, end time.Time) (*model.Timeslot, error) {
	a, err := s.Activities.Get(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if err := policy.Of(c).ManageTimeslots(c, a); err != nil {
		return nil, err
	}
	if err := model.ValidateWindow(start, end); err != nil {
		return nil, err
	}
	ts := &model.Timeslot{ActivityID: activityID, StartTime: start.UTC(), EndTime: end.UTC()}
	if err := s.Timeslots.Create(ctx, ts); err != nil {
		return nil, err
	}
	_ = invalidator(s.Cache).Invalidate(ctx)
	return ts, nil
}

// Release is the admin override that frees a booked timeslot no active
// reservation holds.
func (s *TimeslotService) Release(ctx context.Context, c policy.Caller, id uint64) (*model.TimeslotDetail, error) {
	if err := policy.Of(c).Administer(c); err != nil {
		return nil, err
	}
	if err := s.Timeslots.Release(ctx, id); err != nil {
		return nil, err
	}
	_ = invalidator(s.Cache).Invalidate(ctx)
	return s.Timeslots.Get(ctx, id)
}
