package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iliyamo/activity-booking/internal/metrics"
	"github.com/iliyamo/activity-booking/internal/model"
	"github.com/iliyamo/activity-booking/internal/policy"
	"github.com/iliyamo/activity-booking/internal/queue"
	"github.com/iliyamo/activity-booking/internal/repository"
)

// BookingService runs the reservation state machine for interactive
// callers: book, pay, cancel and refund.
type BookingService struct {
	Reservations ReservationStore
	Payments     PaymentStore
	Timeslots    TimeslotStore
	Activities   ActivityStore
	Pricer       Pricer
	Events       queue.Publisher
	Metrics      metrics.Recorder
	Cache        Invalidator
}

func (s *BookingService) ListReservations(ctx context.Context, c policy.Caller, q repository.ReservationQuery) ([]model.ReservationDetail, error) {
	return s.Reservations.List(ctx, policy.Of(c).Reservations(c), q)
}

// GetReservation returns one reservation, or ErrNotFound when the caller
// may not see it.
func (s *BookingService) GetReservation(ctx context.Context, c policy.Caller, id uint64) (*model.ReservationDetail, error) {
	r, err := s.Reservations.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Of(c).Reservations(c).Permits(policy.Row{UserID: r.UserID, OwnerID: r.ActivityOwnerID}) {
		return nil, model.ErrNotFound
	}
	return r, nil
}

func (s *BookingService) ListPayments(ctx context.Context, c policy.Caller, q repository.PaymentQuery) ([]model.PaymentDetail, error) {
	return s.Payments.List(ctx, policy.Of(c).Payments(c), q)
}

// GetPayment returns one payment, or ErrNotFound when the caller may not
// see it.
func (s *BookingService) GetPayment(ctx context.Context, c policy.Caller, id uint64) (*model.PaymentDetail, error) {
	p, err := s.Payments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Of(c).Payments(c).Permits(policy.Row{UserID: p.UserID, OwnerID: p.ActivityOwnerID}) {
		return nil, model.ErrNotFound
	}
	return p, nil
}

// Book reserves a free timeslot for the caller.  The reservation starts
// pending.  A timeslot somebody else got first is ErrConflict.
func (s *BookingService) Book(ctx context.Context, c policy.Caller, timeslotID uint64) (*model.Reservation, error) {
	if err := policy.Of(c).Book(c); err != nil {
		return nil, err
	}
	ts, err := s.Timeslots.Get(ctx, timeslotID)
	if err != nil {
		return nil, err
	}
	if !ts.ActivityActive && !policy.Of(c).Activities(c).Permits(policy.Row{OwnerID: ts.ActivityOwnerID}) {
		return nil, fmt.Errorf("timeslot %d: %w", timeslotID, model.ErrNotFound)
	}
	if !ts.IsReservable {
		return nil, model.NewValidationError("timeslot_id", "activity cannot be booked online; use its contact details")
	}
	res, err := s.Reservations.Book(ctx, timeslotID, repository.NewBooking{
		UserID: c.UserID,
		Status: model.StatusPending,
		Source: model.SourcePlatform,
	})
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			s.metrics().BookingConflict("interactive")
		}
		return nil, err
	}
	s.metrics().ReservationCreated(string(res.Source))
	_ = invalidator(s.Cache).Invalidate(ctx)

	ev := queue.NewEvent(queue.ReservationCreated)
	ev.ReservationID, ev.UserID, ev.TimeslotID, ev.ActivityID = res.ID, res.UserID, res.TimeslotID, ts.ActivityID
	ev.Status, ev.Source = string(res.Status), string(res.Source)
	s.publish(ctx, ev)
	return res, nil
}

// Pay settles a pending reservation held by the caller at the caller's
// price.
func (s *BookingService) Pay(ctx context.Context, c policy.Caller, reservationID uint64, method string) (*model.Payment, error) {
	m, err := model.ParsePaymentMethod(method)
	if err != nil {
		return nil, err
	}
	r, err := s.GetReservation(ctx, c, reservationID)
	if err != nil {
		return nil, err
	}
	if err := policy.Of(c).PayReservation(c, r); err != nil {
		return nil, err
	}
	if err := r.Status.Transition(model.StatusPaid); err != nil {
		return nil, err
	}
	a, err := s.Activities.Get(ctx, r.ActivityID)
	if err != nil {
		return nil, err
	}
	member, err := s.Pricer.IsMember(ctx, c)
	if err != nil {
		return nil, err
	}
	p := &model.Payment{AmountCents: model.FinalPrice(a, member), Method: m, Status: model.PaymentPaid}
	if err := s.Reservations.Pay(ctx, reservationID, p); err != nil {
		return nil, err
	}
	s.metrics().ReservationPaid(string(m))

	ev := queue.NewEvent(queue.ReservationPaid)
	ev.ReservationID, ev.UserID, ev.TimeslotID, ev.ActivityID = r.ID, r.UserID, r.TimeslotID, r.ActivityID
	ev.Status, ev.AmountCents, ev.ActorID = string(model.StatusPaid), p.AmountCents, c.UserID
	s.publish(ctx, ev)
	return p, nil
}

// Cancel cancels a reservation, frees its timeslot and logs who did it.
// Payments are never refunded here.
func (s *BookingService) Cancel(ctx context.Context, c policy.Caller, reservationID uint64, reason string) (*model.CancellationLog, error) {
	r, err := s.GetReservation(ctx, c, reservationID)
	if err != nil {
		return nil, err
	}
	if err := policy.Of(c).CancelReservation(c, r); err != nil {
		return nil, err
	}
	if err := r.Status.Transition(model.StatusCancelled); err != nil {
		return nil, err
	}
	by := c.UserID
	entry, err := s.Reservations.Cancel(ctx, reservationID, &by, reason)
	if err != nil {
		return nil, err
	}
	s.metrics().ReservationCancelled()
	_ = invalidator(s.Cache).Invalidate(ctx)

	ev := queue.NewEvent(queue.ReservationCancelled)
	ev.ReservationID, ev.UserID, ev.TimeslotID, ev.ActivityID = r.ID, r.UserID, r.TimeslotID, r.ActivityID
	ev.Status, ev.ActorID = string(model.StatusCancelled), c.UserID
	s.publish(ctx, ev)
	return entry, nil
}

// Refund marks a paid payment refunded.  Only the owning exploitant or an
// admin may do so.
func (s *BookingService) Refund(ctx context.Context, c policy.Caller, paymentID uint64) (*model.PaymentDetail, error) {
	p, err := s.GetPayment(ctx, c, paymentID)
	if err != nil {
		return nil, err
	}
	if err := policy.Of(c).RefundPayment(c, p); err != nil {
		return nil, err
	}
	if err := p.Status.Refund(); err != nil {
		return nil, err
	}
	if err := s.Payments.Refund(ctx, paymentID); err != nil {
		return nil, err
	}
	s.metrics().PaymentRefunded()
	p.Status = model.PaymentRefunded
	return p, nil
}

func (s *BookingService) metrics() metrics.Recorder {
	if s.Metrics == nil {
		return metrics.Nop{}
	}
	return s.Metrics
}

func (s *BookingService) publish(ctx context.Context, ev queue.ReservationEvent) {
	publish(ctx, s.Events, ev)
}

// publish sends ev after its transaction committed.  A broker failure is
// logged and otherwise ignored.
func publish(ctx context.Context, p queue.Publisher, ev queue.ReservationEvent) {
	if p == nil {
		return
	}
	if err := p.Publish(context.WithoutCancel(ctx), ev); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("event_id", ev.EventID).
			Str("type", string(ev.Type)).
			Uint64("reservation_id", ev.ReservationID).
			Msg("reservation event not published")
	}
}
