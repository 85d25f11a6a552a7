package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/activity-booking/internal/model"
	"github.com/iliyamo/activity-booking/internal/policy"
)

// TimeslotRepo stores bookable windows.
type TimeslotRepo struct{ db *sql.DB }

func NewTimeslotRepo(db *sql.DB) *TimeslotRepo { return &TimeslotRepo{db: db} }

// TimeslotQuery filters a listing.  Zero values mean "no filter".
type TimeslotQuery struct {
	ActivityID uint64
	From       time.Time
	To         time.Time
	Page
}

const timeslotSelect = `SELECT t.id, t.activity_id, t.start_time, t.end_time, t.is_booked,
	a.name, a.is_active, a.exploitant_user_id, a.is_reservable, a.price_cents, a.member_price_cents
	FROM timeslots t JOIN activities a ON a.id = t.activity_id`

var timeslotScope = scopeCols{owner: "a.exploitant_user_id", booked: "t.is_booked"}

func scanTimeslot(s rowScanner) (*model.TimeslotDetail, error) {
	var (
		d           model.TimeslotDetail
		owner       sql.NullInt64
		memberPrice sql.NullInt64
	)
	err := s.Scan(&d.ID, &d.ActivityID, &d.StartTime, &d.EndTime, &d.IsBooked,
		&d.ActivityName, &d.ActivityActive, &owner, &d.IsReservable, &d.PriceCents, &memberPrice)
	if err != nil {
		return nil, err
	}
	d.ActivityOwnerID = nullUint64(owner)
	if memberPrice.Valid {
		v := uint32(memberPrice.Int64)
		d.MemberPriceCents = &v
	}
	return &d, nil
}

// List returns the timeslots visible under scope, earliest first.
func (r *TimeslotRepo) List(ctx context.Context, scope policy.Scope, q TimeslotQuery) ([]model.TimeslotDetail, error) {
	var w where
	w.scope(scope, timeslotScope)
	if q.ActivityID != 0 {
		w.add("t.activity_id = ?", q.ActivityID)
	}
	if !q.From.IsZero() {
		w.add("t.start_time >= ?", q.From.UTC())
	}
	if !q.To.IsZero() {
		w.add("t.start_time < ?", q.To.UTC())
	}
	limit, offset := q.limitOffset()
	args := append(w.args, limit, offset)

	rows, err := r.db.QueryContext(ctx, timeslotSelect+" WHERE "+w.String()+" ORDER BY t.start_time, t.id LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.TimeslotDetail, 0, limit)
	for rows.Next() {
		d, err := scanTimeslot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// Get returns one timeslot with its activity summary.
func (r *TimeslotRepo) Get(ctx context.Context, id uint64) (*model.TimeslotDetail, error) {
	d, err := scanTimeslot(r.db.QueryRowContext(ctx, timeslotSelect+" WHERE t.id = ?", id))
	if err != nil {
		return nil, mapErr(err, "timeslot")
	}
	return d, nil
}

// Create inserts a free timeslot.  The same (activity, start, end) window
// twice is ErrConflict.
func (r *TimeslotRepo) Create(ctx context.Context, ts *model.Timeslot) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO timeslots (activity_id, start_time, end_time, is_booked) VALUES (?,?,?,0)",
		ts.ActivityID, ts.StartTime.UTC(), ts.EndTime.UTC())
	if err != nil {
		return mapErr(err, "timeslot")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ts.ID = uint64(id)
	ts.IsBooked = false
	return nil
}

// Release frees a booked timeslot that no active reservation holds.  A
// timeslot still held by a reservation is ErrConflict; cancel the
// reservation instead.
func (r *TimeslotRepo) Release(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE timeslots t SET t.is_booked = 0
		WHERE t.id = ? AND NOT EXISTS (SELECT 1 FROM reservations r WHERE r.active_timeslot_id = t.id)`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n > 0 {
		return nil
	}
	var held bool
	err = r.db.QueryRowContext(ctx, `SELECT
		EXISTS (SELECT 1 FROM reservations r WHERE r.active_timeslot_id = t.id)
		FROM timeslots t WHERE t.id = ?`, id).Scan(&held)
	if err != nil {
		return mapErr(err, "timeslot")
	}
	if held {
		return fmt.Errorf("timeslot %d is held by an active reservation: %w", id, model.ErrConflict)
	}
	// already free
	return nil
}
