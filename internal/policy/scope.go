package policy

// Scope is the visible subset of an entity for one caller.  Repositories
// turn it into WHERE clauses; Permits applies it to a single row.  The
// zero value means "everything".
type Scope struct {
	Deny         bool    // nothing is visible
	OwnerID      *uint64 // rows hanging off activities owned by this user
	UserID       *uint64 // rows belonging to this user
	ActiveOnly   bool    // activities with is_active = 1
	UnbookedOnly bool    // timeslots with is_booked = 0
}

// Row describes the ownership attributes of one row for Permits.
type Row struct {
	UserID         uint64
	OwnerID        *uint64
	ActivityActive bool
	Booked         bool
}

// Permits reports whether row falls inside the scope.
func (s Scope) Permits(r Row) bool {
	if s.Deny {
		return false
	}
	if s.OwnerID != nil && (r.OwnerID == nil || *r.OwnerID != *s.OwnerID) {
		return false
	}
	if s.UserID != nil && r.UserID != *s.UserID {
		return false
	}
	if s.ActiveOnly && !r.ActivityActive {
		return false
	}
	if s.UnbookedOnly && r.Booked {
		return false
	}
	return true
}
