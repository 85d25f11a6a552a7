package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/activity-booking/internal/model"
	"github.com/iliyamo/activity-booking/internal/policy"
)

// ReservationRepo owns every write that moves a timeslot or reservation
// through its lifecycle.  Each exported write is one transaction.  A
// timeslot only goes from free to booked through the conditional update in
// bookTx, and the UNIQUE index on reservations.active_timeslot_id rejects
// a second live reservation for the same slot.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// NewBooking describes the reservation to create once the timeslot is
// secured.  Payment, when set, is inserted in the same transaction.
type NewBooking struct {
	UserID  uint64
	Status  model.ReservationStatus
	Source  model.ReservationSource
	Payment *model.Payment
}

// ReservationQuery filters a listing.
type ReservationQuery struct {
	Status     model.ReservationStatus
	ActivityID uint64
	Page
}

const reservationSelect = `SELECT r.id, r.user_id, r.timeslot_id, r.status, r.source, r.reservation_date,
	t.activity_id, t.start_time, t.end_time, t.is_booked, a.name, a.exploitant_user_id
	FROM reservations r
	JOIN timeslots t  ON t.id = r.timeslot_id
	JOIN activities a ON a.id = t.activity_id`

var reservationScope = scopeCols{user: "r.user_id", owner: "a.exploitant_user_id"}

func scanReservation(s rowScanner) (*model.ReservationDetail, error) {
	var (
		d              model.ReservationDetail
		status, source string
		owner          sql.NullInt64
	)
	err := s.Scan(&d.ID, &d.UserID, &d.TimeslotID, &status, &source, &d.CreatedAt,
		&d.ActivityID, &d.Timeslot.StartTime, &d.Timeslot.EndTime, &d.Timeslot.IsBooked,
		&d.ActivityName, &owner)
	if err != nil {
		return nil, err
	}
	d.Status = model.ReservationStatus(status)
	d.Source = model.ReservationSource(source)
	d.Timeslot.ID = d.TimeslotID
	d.Timeslot.ActivityID = d.ActivityID
	d.ActivityOwnerID = nullUint64(owner)
	return &d, nil
}

// List returns the reservations visible under scope, newest first.
func (r *ReservationRepo) List(ctx context.Context, scope policy.Scope, q ReservationQuery) ([]model.ReservationDetail, error) {
	var w where
	w.scope(scope, reservationScope)
	if q.Status != "" {
		w.add("r.status = ?", string(q.Status))
	}
	if q.ActivityID != 0 {
		w.add("t.activity_id = ?", q.ActivityID)
	}
	limit, offset := q.limitOffset()
	args := append(w.args, limit, offset)

	rows, err := r.db.QueryContext(ctx, reservationSelect+" WHERE "+w.String()+" ORDER BY r.reservation_date DESC, r.id DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ReservationDetail, 0, limit)
	for rows.Next() {
		d, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// Get returns one reservation with its timeslot and activity summary.
func (r *ReservationRepo) Get(ctx context.Context, id uint64) (*model.ReservationDetail, error) {
	d, err := scanReservation(r.db.QueryRowContext(ctx, reservationSelect+" WHERE r.id = ?", id))
	if err != nil {
		return nil, mapErr(err, "reservation")
	}
	return d, nil
}

// Book reserves an existing timeslot.  A timeslot that is already booked
// is ErrConflict; a missing one is ErrNotFound.
func (r *ReservationRepo) Book(ctx context.Context, timeslotID uint64, nb NewBooking) (*model.Reservation, error) {
	var res *model.Reservation
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		res, err = bookTx(ctx, tx, timeslotID, nb)
		return err
	})
	return res, err
}

// BookWindow finds or creates the timeslot (activityID, start, end) and
// books it, all in one transaction.  Two callers racing on the same new
// window both land on the same row; exactly one of them books it.
func (r *ReservationRepo) BookWindow(ctx context.Context, activityID uint64, start, end time.Time, nb NewBooking) (*model.Reservation, error) {
	var res *model.Reservation
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		out, err := tx.ExecContext(ctx, `INSERT INTO timeslots (activity_id, start_time, end_time, is_booked)
			VALUES (?, ?, ?, 0)
			ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)`,
			activityID, start.UTC(), end.UTC())
		if err != nil {
			return mapErr(err, "timeslot")
		}
		id, err := out.LastInsertId()
		if err != nil {
			return err
		}
		res, err = bookTx(ctx, tx, uint64(id), nb)
		return err
	})
	return res, err
}

func bookTx(ctx context.Context, tx *sql.Tx, timeslotID uint64, nb NewBooking) (*model.Reservation, error) {
	var locked uint64
	if err := tx.QueryRowContext(ctx, "SELECT id FROM timeslots WHERE id = ? FOR UPDATE", timeslotID).Scan(&locked); err != nil {
		return nil, mapErr(err, "timeslot")
	}
	upd, err := tx.ExecContext(ctx, "UPDATE timeslots SET is_booked = 1 WHERE id = ? AND is_booked = 0", timeslotID)
	if err != nil {
		return nil, mapErr(err, "timeslot")
	}
	if n, err := upd.RowsAffected(); err != nil {
		return nil, err
	} else if n == 0 {
		return nil, fmt.Errorf("timeslot %d is already booked: %w", timeslotID, model.ErrConflict)
	}

	status := nb.Status
	if status == "" {
		status = model.StatusPending
	}
	source := nb.Source
	if source == "" {
		source = model.SourcePlatform
	}
	now := time.Now().UTC().Truncate(time.Second)
	ins, err := tx.ExecContext(ctx,
		"INSERT INTO reservations (user_id, timeslot_id, status, source, reservation_date) VALUES (?, ?, ?, ?, ?)",
		nb.UserID, timeslotID, string(status), string(source), now)
	if err != nil {
		return nil, mapErr(err, "reservation")
	}
	id, err := ins.LastInsertId()
	if err != nil {
		return nil, err
	}
	res := &model.Reservation{
		ID:         uint64(id),
		UserID:     nb.UserID,
		TimeslotID: timeslotID,
		Status:     status,
		Source:     source,
		CreatedAt:  now,
	}
	if nb.Payment != nil {
		nb.Payment.ReservationID = res.ID
		if err := insertPaymentTx(ctx, tx, nb.Payment); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Pay moves a pending reservation to paid and records p.
func (r *ReservationRepo) Pay(ctx context.Context, reservationID uint64, p *model.Payment) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		var status string
		if err := tx.QueryRowContext(ctx, "SELECT status FROM reservations WHERE id = ? FOR UPDATE", reservationID).Scan(&status); err != nil {
			return mapErr(err, "reservation")
		}
		if err := model.ReservationStatus(status).Transition(model.StatusPaid); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE reservations SET status = 'paid' WHERE id = ?", reservationID); err != nil {
			return err
		}
		p.ReservationID = reservationID
		return insertPaymentTx(ctx, tx, p)
	})
}

// Cancel moves a pending or paid reservation to cancelled, frees its
// timeslot and appends a cancellation log entry.  Payments are left as
// they are.
func (r *ReservationRepo) Cancel(ctx context.Context, reservationID uint64, by *uint64, reason string) (*model.CancellationLog, error) {
	var entry *model.CancellationLog
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		var (
			status     string
			timeslotID uint64
		)
		err := tx.QueryRowContext(ctx, "SELECT status, timeslot_id FROM reservations WHERE id = ? FOR UPDATE", reservationID).
			Scan(&status, &timeslotID)
		if err != nil {
			return mapErr(err, "reservation")
		}
		if err := model.ReservationStatus(status).Transition(model.StatusCancelled); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE reservations SET status = 'cancelled' WHERE id = ?", reservationID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE timeslots SET is_booked = 0 WHERE id = ?", timeslotID); err != nil {
			return err
		}
		now := time.Now().UTC().Truncate(time.Second)
		ins, err := tx.ExecContext(ctx,
			"INSERT INTO cancellation_logs (reservation_id, cancelled_by, reason, cancelled_at) VALUES (?, ?, ?, ?)",
			reservationID, by, reason, now)
		if err != nil {
			return mapErr(err, "cancellation log")
		}
		id, err := ins.LastInsertId()
		if err != nil {
			return err
		}
		entry = &model.CancellationLog{ID: uint64(id), ReservationID: reservationID, CancelledBy: by, Reason: reason, CancelledAt: now}
		return nil
	})
	return entry, err
}

// inTx runs fn in a transaction, committing only when fn returns nil.
func (r *ReservationRepo) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapErr(err, "reservation")
	}
	committed = true
	return nil
}
