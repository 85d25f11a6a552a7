package repository

import (
	"strings"

	"github.com/iliyamo/activity-booking/internal/policy"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Page is a 1-based page request.
type Page struct {
	Page     int
	PageSize int
}

func (p Page) limitOffset() (int, int) {
	size := p.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	page := p.Page
	if page < 1 {
		page = 1
	}
	return size, (page - 1) * size
}

// scopeCols names the columns a Scope filters on for one query.  Empty
// names mean the query has no such column and the filter is skipped.
type scopeCols struct {
	user   string
	owner  string
	active string
	booked string
}

// where accumulates AND-ed conditions with their arguments.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) scope(s policy.Scope, c scopeCols) {
	if s.Deny {
		w.add("1=0")
		return
	}
	if s.UserID != nil && c.user != "" {
		w.add(c.user+" = ?", *s.UserID)
	}
	if s.OwnerID != nil && c.owner != "" {
		w.add(c.owner+" = ?", *s.OwnerID)
	}
	if s.ActiveOnly && c.active != "" {
		w.add(c.active + " = 1")
	}
	if s.UnbookedOnly && c.booked != "" {
		w.add(c.booked + " = 0")
	}
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return "1=1"
	}
	return strings.Join(w.conds, " AND ")
}
