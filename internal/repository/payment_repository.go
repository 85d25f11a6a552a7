package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/activity-booking/internal/model"
	"github.com/iliyamo/activity-booking/internal/policy"
)

// PaymentRepo reads payments and applies refunds.  Payments are created
// by ReservationRepo together with the reservation change they settle.
type PaymentRepo struct{ db *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// PaymentQuery filters a listing.
type PaymentQuery struct {
	Status model.PaymentStatus
	Page
}

const paymentSelect = `SELECT p.id, p.reservation_id, p.amount_cents, p.method, p.status, p.payment_date,
	r.user_id, t.activity_id, a.exploitant_user_id
	FROM payments p
	JOIN reservations r ON r.id = p.reservation_id
	JOIN timeslots t    ON t.id = r.timeslot_id
	JOIN activities a   ON a.id = t.activity_id`

var paymentScope = scopeCols{user: "r.user_id", owner: "a.exploitant_user_id"}

func scanPayment(s rowScanner) (*model.PaymentDetail, error) {
	var (
		d              model.PaymentDetail
		method, status string
		owner          sql.NullInt64
	)
	err := s.Scan(&d.ID, &d.ReservationID, &d.AmountCents, &method, &status, &d.PaidAt,
		&d.UserID, &d.ActivityID, &owner)
	if err != nil {
		return nil, err
	}
	d.Method = model.PaymentMethod(method)
	d.Status = model.PaymentStatus(status)
	d.ActivityOwnerID = nullUint64(owner)
	return &d, nil
}

// List returns the payments visible under scope, newest first.
func (r *PaymentRepo) List(ctx context.Context, scope policy.Scope, q PaymentQuery) ([]model.PaymentDetail, error) {
	var w where
	w.scope(scope, paymentScope)
	if q.Status != "" {
		w.add("p.status = ?", string(q.Status))
	}
	limit, offset := q.limitOffset()
	args := append(w.args, limit, offset)

	rows, err := r.db.QueryContext(ctx, paymentSelect+" WHERE "+w.String()+" ORDER BY p.payment_date DESC, p.id DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.PaymentDetail, 0, limit)
	for rows.Next() {
		d, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// Get returns one payment with its ownership fields.
func (r *PaymentRepo) Get(ctx context.Context, id uint64) (*model.PaymentDetail, error) {
	d, err := scanPayment(r.db.QueryRowContext(ctx, paymentSelect+" WHERE p.id = ?", id))
	if err != nil {
		return nil, mapErr(err, "payment")
	}
	return d, nil
}

// Refund moves a paid payment to refunded.  Any other current status is
// ErrConflict.
func (r *PaymentRepo) Refund(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "UPDATE payments SET status = 'refunded' WHERE id = ? AND status = 'paid'", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n > 0 {
		return nil
	}
	var status string
	if err := r.db.QueryRowContext(ctx, "SELECT status FROM payments WHERE id = ?", id).Scan(&status); err != nil {
		return mapErr(err, "payment")
	}
	return model.PaymentStatus(status).Refund()
}

func insertPaymentTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	if p.Status == "" {
		p.Status = model.PaymentPaid
	}
	p.PaidAt = time.Now().UTC().Truncate(time.Second)
	res, err := tx.ExecContext(ctx,
		"INSERT INTO payments (reservation_id, amount_cents, method, status, payment_date) VALUES (?, ?, ?, ?, ?)",
		p.ReservationID, p.AmountCents, string(p.Method), string(p.Status), p.PaidAt)
	if err != nil {
		return mapErr(err, fmt.Sprintf("payment for reservation %d", p.ReservationID))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}
