package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/activity-booking/internal/model"
)

type MembershipRepo struct{ db *sql.DB }

func NewMembershipRepo(db *sql.DB) *MembershipRepo { return &MembershipRepo{db: db} }

// Create records a membership period.  Dates are stored as calendar days.
func (r *MembershipRepo) Create(ctx context.Context, m *model.Membership) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO memberships (user_id, start_date, expiry_date, payment_ref) VALUES (?, ?, ?, ?)",
		m.UserID, m.StartDate.UTC().Format(time.DateOnly), m.ExpiryDate.UTC().Format(time.DateOnly), m.PaymentRef)
	if err != nil {
		return mapErr(err, "membership")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

// ActiveAt reports whether userID holds a membership covering the calendar
// day of at, both bounds included.
func (r *MembershipRepo) ActiveAt(ctx context.Context, userID uint64, at time.Time) (bool, error) {
	day := at.UTC().Format(time.DateOnly)
	var ok bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM memberships WHERE user_id = ? AND start_date <= ? AND expiry_date >= ?)",
		userID, day, day).Scan(&ok)
	return ok, err
}

// ListForUser returns a user's memberships, latest expiry first.
func (r *MembershipRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, start_date, expiry_date, payment_ref FROM memberships WHERE user_id = ? ORDER BY expiry_date DESC, id DESC",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Membership{}
	for rows.Next() {
		var m model.Membership
		if err := rows.Scan(&m.ID, &m.UserID, &m.StartDate, &m.ExpiryDate, &m.PaymentRef); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
