package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/activity-booking/internal/model"
	"github.com/iliyamo/activity-booking/internal/policy"
)

// CategoryRepo stores activity categories.
type CategoryRepo struct{ db *sql.DB }

func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CategoryRepo) Create(ctx context.Context, c *model.Category) error {
	res, err := r.db.ExecContext(ctx, "INSERT INTO categories (name) VALUES (?)", c.Name)
	if err != nil {
		return mapErr(err, "category")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

func (r *CategoryRepo) Update(ctx context.Context, c *model.Category) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE categories SET name = ? WHERE id = ?", c.Name, c.ID); err != nil {
		return mapErr(err, "category")
	}
	var id uint64
	return mapErr(r.db.QueryRowContext(ctx, "SELECT id FROM categories WHERE id = ?", c.ID).Scan(&id), "category")
}

// ReviewRepo stores reviews and keeps activities.average_rating current.
type ReviewRepo struct{ db *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Create inserts rv and recomputes the activity's average rating in the
// same transaction.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
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

	rv.CreatedAt = time.Now().UTC().Truncate(time.Second)
	res, err := tx.ExecContext(ctx,
		"INSERT INTO reviews (user_id, activity_id, rating, comment, created_at) VALUES (?, ?, ?, ?, ?)",
		rv.UserID, rv.ActivityID, rv.Rating, rv.Comment, rv.CreatedAt)
	if err != nil {
		return mapErr(err, "review")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = uint64(id)
	_, err = tx.ExecContext(ctx, `UPDATE activities SET average_rating =
		(SELECT ROUND(AVG(rating), 2) FROM reviews WHERE activity_id = ?)
		WHERE id = ?`, rv.ActivityID, rv.ActivityID)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ListForActivity returns an activity's reviews, newest first.
func (r *ReviewRepo) ListForActivity(ctx context.Context, activityID uint64, p Page) ([]model.Review, error) {
	limit, offset := p.limitOffset()
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, activity_id, rating, comment, created_at FROM reviews WHERE activity_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		activityID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Review{}
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.ActivityID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

// ProfileRepo stores exploitant profiles, one per user.
type ProfileRepo struct{ db *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{db: db} }

func (r *ProfileRepo) List(ctx context.Context, scope policy.Scope) ([]model.ExploitantProfile, error) {
	var w where
	w.scope(scope, scopeCols{user: "user_id"})
	rows, err := r.db.QueryContext(ctx,
		"SELECT user_id, company_name, website, contact_phone, description FROM exploitant_profiles WHERE "+w.String()+" ORDER BY company_name",
		w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ExploitantProfile{}
	for rows.Next() {
		var p model.ExploitantProfile
		if err := rows.Scan(&p.UserID, &p.CompanyName, &p.Website, &p.ContactPhone, &p.Description); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Upsert creates or replaces the profile of p.UserID.
func (r *ProfileRepo) Upsert(ctx context.Context, p *model.ExploitantProfile) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO exploitant_profiles (user_id, company_name, website, contact_phone, description)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE company_name = VALUES(company_name), website = VALUES(website),
			contact_phone = VALUES(contact_phone), description = VALUES(description)`,
		p.UserID, p.CompanyName, p.Website, p.ContactPhone, p.Description)
	return mapErr(err, fmt.Sprintf("profile of user %d", p.UserID))
}

// CancellationRepo reads the cancellation audit trail.  Entries are
// written by ReservationRepo.Cancel.
type CancellationRepo struct{ db *sql.DB }

func NewCancellationRepo(db *sql.DB) *CancellationRepo { return &CancellationRepo{db: db} }

func (r *CancellationRepo) List(ctx context.Context, reservationID uint64, p Page) ([]model.CancellationLog, error) {
	var w where
	if reservationID != 0 {
		w.add("reservation_id = ?", reservationID)
	}
	limit, offset := p.limitOffset()
	args := append(w.args, limit, offset)
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, reservation_id, cancelled_by, reason, cancelled_at FROM cancellation_logs WHERE "+w.String()+" ORDER BY cancelled_at DESC, id DESC LIMIT ? OFFSET ?",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.CancellationLog{}
	for rows.Next() {
		var (
			l  model.CancellationLog
			by sql.NullInt64
		)
		if err := rows.Scan(&l.ID, &l.ReservationID, &by, &l.Reason, &l.CancelledAt); err != nil {
			return nil, err
		}
		l.CancelledBy = nullUint64(by)
		out = append(out, l)
	}
	return out, rows.Err()
}
