package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/activity-booking/internal/metrics"
	"github.com/iliyamo/activity-booking/internal/model"
	"github.com/iliyamo/activity-booking/internal/queue"
	"github.com/iliyamo/activity-booking/internal/repository"
	"github.com/iliyamo/activity-booking/internal/utils"
)

// IntakeRequest is a booking pushed by an operator's own system.
type IntakeRequest struct {
	ExploitantID uint64
	ActivityID   uint64
	StartTime    time.Time
	EndTime      time.Time
}

// Validate checks presence and window order.
func (r IntakeRequest) Validate() error {
	verr := &model.ValidationError{}
	if r.ExploitantID == 0 {
		verr.Add("exploitant_id", "is required")
	}
	if r.ActivityID == 0 {
		verr.Add("activity_id", "is required")
	}
	if v, ok := model.AsValidation(model.ValidateWindow(r.StartTime, r.EndTime)); ok {
		for k, msg := range v.Fields {
			verr.Add(k, msg)
		}
	}
	return verr.OrNil()
}

// IntakeResult is what the gateway reports back.
type IntakeResult struct {
	Reservation *model.Reservation
	Payment     *model.Payment
}

// IntakeService is the external intake gateway: API-key authenticated
// operators push reservations for their own activities.
type IntakeService struct {
	APIKeys      APIKeyStore
	Activities   ActivityStore
	Reservations ReservationStore
	Events       queue.Publisher
	Metrics      metrics.Recorder
	Cache        Invalidator
	Now          func() time.Time
}

// Authenticate resolves a raw X-API-KEY value.  Missing, unknown and
// expired keys are all ErrUnauthorized.
func (s *IntakeService) Authenticate(ctx context.Context, raw string) (*model.APIKey, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("missing api key: %w", model.ErrUnauthorized)
	}
	k, err := s.APIKeys.GetByHash(ctx, utils.HashSecret(raw))
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("unknown api key: %w", model.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if k.Expired(s.now()) {
		return nil, fmt.Errorf("api key expired: %w", model.ErrUnauthorized)
	}
	return k, nil
}

// Receive books the requested window for the key owner.  The timeslot is
// created when it does not exist yet; an already booked window is
// ErrConflict.  The reservation is stored paid with an external payment
// at the activity's base price.
func (s *IntakeService) Receive(ctx context.Context, key *model.APIKey, req IntakeRequest) (*IntakeResult, error) {
	res, err := s.receive(ctx, key, req)
	s.metrics().WebhookOutcome(outcome(err))
	return res, err
}

func (s *IntakeService) receive(ctx context.Context, key *model.APIKey, req IntakeRequest) (*IntakeResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if key.UserID != req.ExploitantID {
		return nil, fmt.Errorf("api key does not belong to exploitant %d: %w", req.ExploitantID, model.ErrForbidden)
	}
	a, err := s.Activities.Get(ctx, req.ActivityID)
	if err != nil {
		return nil, err
	}
	if !a.OwnedBy(key.UserID) {
		return nil, fmt.Errorf("activity %d is not owned by exploitant %d: %w", a.ID, key.UserID, model.ErrForbidden)
	}

	pay := &model.Payment{AmountCents: a.PriceCents, Method: model.MethodExternal, Status: model.PaymentPaid}
	r, err := s.Reservations.BookWindow(ctx, a.ID, req.StartTime.UTC(), req.EndTime.UTC(), repository.NewBooking{
		UserID:  key.UserID,
		Status:  model.StatusPaid,
		Source:  model.SourceExploitant,
		Payment: pay,
	})
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			s.metrics().BookingConflict("webhook")
		}
		return nil, err
	}
	s.metrics().ReservationCreated(string(r.Source))
	_ = invalidator(s.Cache).Invalidate(ctx)

	ev := queue.NewEvent(queue.ReservationCreated)
	ev.ReservationID, ev.UserID, ev.TimeslotID, ev.ActivityID = r.ID, r.UserID, r.TimeslotID, a.ID
	ev.Status, ev.Source, ev.AmountCents = string(r.Status), string(r.Source), pay.AmountCents
	publish(ctx, s.Events, ev)
	return &IntakeResult{Reservation: r, Payment: pay}, nil
}

func outcome(err error) string {
	if err == nil {
		return "created"
	}
	if _, ok := model.AsValidation(err); ok {
		return "invalid"
	}
	switch {
	case errors.Is(err, model.ErrConflict):
		return "conflict"
	case errors.Is(err, model.ErrForbidden):
		return "forbidden"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	}
	return "error"
}

func (s *IntakeService) metrics() metrics.Recorder {
	if s.Metrics == nil {
		return metrics.Nop{}
	}
	return s.Metrics
}

func (s *IntakeService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
