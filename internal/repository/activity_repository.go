package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/activity-booking/internal/model"
	"github.com/iliyamo/activity-booking/internal/policy"
)

// ActivityRepo stores activities and their category links.
type ActivityRepo struct{ db *sql.DB }

func NewActivityRepo(db *sql.DB) *ActivityRepo { return &ActivityRepo{db: db} }

// ActivityQuery filters a listing.  Search matches the name, case
// insensitive.
type ActivityQuery struct {
	Search     string
	CategoryID uint64
	Page
}

const activitySelect = `SELECT a.id, a.name, a.description, a.exploitant, a.exploitant_user_id,
	a.is_active, a.price_cents, a.member_price_cents, a.average_rating, a.is_reservable,
	a.contact_name, a.contact_email, a.contact_phone, a.external_form_url,
	a.created_at, a.updated_at
	FROM activities a`

var activityScope = scopeCols{owner: "a.exploitant_user_id", active: "a.is_active"}

type rowScanner interface{ Scan(dest ...any) error }

func scanActivity(s rowScanner) (*model.Activity, error) {
	var (
		a           model.Activity
		owner       sql.NullInt64
		memberPrice sql.NullInt64
	)
	err := s.Scan(&a.ID, &a.Name, &a.Description, &a.Exploitant, &owner,
		&a.IsActive, &a.PriceCents, &memberPrice, &a.AverageRating, &a.IsReservable,
		&a.ContactName, &a.ContactEmail, &a.ContactPhone, &a.ExternalFormURL,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.OwnerID = nullUint64(owner)
	if memberPrice.Valid {
		v := uint32(memberPrice.Int64)
		a.MemberPriceCents = &v
	}
	a.Categories = []model.Category{}
	return &a, nil
}

// List returns the activities visible under scope.
func (r *ActivityRepo) List(ctx context.Context, scope policy.Scope, q ActivityQuery) ([]model.Activity, error) {
	var w where
	w.scope(scope, activityScope)
	if s := strings.TrimSpace(q.Search); s != "" {
		w.add("LOWER(a.name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	if q.CategoryID != 0 {
		w.add("EXISTS (SELECT 1 FROM activity_categories ac WHERE ac.activity_id = a.id AND ac.category_id = ?)", q.CategoryID)
	}
	limit, offset := q.limitOffset()
	args := append(w.args, limit, offset)

	rows, err := r.db.QueryContext(ctx, activitySelect+" WHERE "+w.String()+" ORDER BY a.name, a.id LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Activity, 0, limit)
	byID := map[uint64]int{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		byID[a.ID] = len(out)
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}
	links, err := r.categoriesFor(ctx, keys(byID))
	if err != nil {
		return nil, err
	}
	for id, cats := range links {
		out[byID[id]].Categories = cats
	}
	return out, nil
}

// Get returns one activity regardless of visibility; callers apply the
// policy.
func (r *ActivityRepo) Get(ctx context.Context, id uint64) (*model.Activity, error) {
	a, err := scanActivity(r.db.QueryRowContext(ctx, activitySelect+" WHERE a.id = ?", id))
	if err != nil {
		return nil, mapErr(err, "activity")
	}
	links, err := r.categoriesFor(ctx, []uint64{id})
	if err != nil {
		return nil, err
	}
	if cats, ok := links[id]; ok {
		a.Categories = cats
	}
	return a, nil
}

// Create inserts a and its category links in one transaction.
func (r *ActivityRepo) Create(ctx context.Context, a *model.Activity) error {
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

	res, err := tx.ExecContext(ctx, `INSERT INTO activities
		(name, description, exploitant, exploitant_user_id, is_active, price_cents, member_price_cents,
		 is_reservable, contact_name, contact_email, contact_phone, external_form_url)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		a.Name, a.Description, a.Exploitant, a.OwnerID, a.IsActive, a.PriceCents, a.MemberPriceCents,
		a.IsReservable, a.ContactName, a.ContactEmail, a.ContactPhone, a.ExternalFormURL)
	if err != nil {
		return mapErr(err, "activity")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	if err := replaceCategoriesTx(ctx, tx, a.ID, a.CategoryIDs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// Update overwrites the mutable columns of a.  Category links are replaced
// only when a.CategoryIDs is non-nil.
func (r *ActivityRepo) Update(ctx context.Context, a *model.Activity) error {
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

	var id uint64
	if err := tx.QueryRowContext(ctx, "SELECT id FROM activities WHERE id = ? FOR UPDATE", a.ID).Scan(&id); err != nil {
		return mapErr(err, "activity")
	}
	_, err = tx.ExecContext(ctx, `UPDATE activities SET
		name=?, description=?, exploitant=?, is_active=?, price_cents=?, member_price_cents=?,
		is_reservable=?, contact_name=?, contact_email=?, contact_phone=?, external_form_url=?
		WHERE id=?`,
		a.Name, a.Description, a.Exploitant, a.IsActive, a.PriceCents, a.MemberPriceCents,
		a.IsReservable, a.ContactName, a.ContactEmail, a.ContactPhone, a.ExternalFormURL, a.ID)
	if err != nil {
		return mapErr(err, "activity")
	}
	if a.CategoryIDs != nil {
		if err := replaceCategoriesTx(ctx, tx, a.ID, a.CategoryIDs); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

func replaceCategoriesTx(ctx context.Context, tx *sql.Tx, activityID uint64, ids []uint64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM activity_categories WHERE activity_id = ?", activityID); err != nil {
		return err
	}
	ids = uniq(ids)
	if len(ids) == 0 {
		return nil
	}
	q := "INSERT INTO activity_categories (activity_id, category_id) VALUES " + placeholders(len(ids), "(?, ?)")
	args := make([]any, 0, len(ids)*2)
	for _, id := range ids {
		args = append(args, activityID, id)
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		if errors.Is(mapErr(err, "category"), model.ErrNotFound) {
			return model.NewValidationError("category_ids", "references an unknown category")
		}
		return err
	}
	return nil
}

func (r *ActivityRepo) categoriesFor(ctx context.Context, activityIDs []uint64) (map[uint64][]model.Category, error) {
	args := make([]any, len(activityIDs))
	for i, id := range activityIDs {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, `SELECT ac.activity_id, c.id, c.name
		FROM activity_categories ac JOIN categories c ON c.id = ac.category_id
		WHERE ac.activity_id IN (`+placeholders(len(args), "?")+`) ORDER BY c.name`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[uint64][]model.Category{}
	for rows.Next() {
		var (
			aid uint64
			c   model.Category
		)
		if err := rows.Scan(&aid, &c.ID, &c.Name); err != nil {
			return nil, err
		}
		out[aid] = append(out[aid], c)
	}
	return out, rows.Err()
}

func placeholders(n int, unit string) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = unit
	}
	return strings.Join(parts, ", ")
}

func uniq(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func keys(m map[uint64]int) []uint64 {
	out := make([]uint64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func nullUint64(n sql.NullInt64) *uint64 {
	if !n.Valid {
		return nil
	}
	v := uint64(n.Int64)
	return &v
}
