package service

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/activity-booking/internal/model"
	"github.com/iliyamo/activity-booking/internal/policy"
	"github.com/iliyamo/activity-booking/internal/repository"
)

// memDB is an in-memory stand-in for MySQL.  One mutex serialises every
// operation the way row locks serialise the real transactions.
type memDB struct {
	mu            sync.Mutex
	seq           uint64
	users         map[uint64]*model.User
	activities    map[uint64]*model.Activity
	timeslots     map[uint64]*model.Timeslot
	reservations  map[uint64]*model.Reservation
	payments      map[uint64]*model.Payment
	memberships   []model.Membership
	apiKeys       map[string]*model.APIKey
	cancellations []model.CancellationLog
	refresh       map[string]refreshRow
}

type refreshRow struct {
	userID  uint64
	exp     time.Time
	revoked bool
}

func newMemDB() *memDB {
	return &memDB{
		users:        map[uint64]*model.User{},
		activities:   map[uint64]*model.Activity{},
		timeslots:    map[uint64]*model.Timeslot{},
		reservations: map[uint64]*model.Reservation{},
		payments:     map[uint64]*model.Payment{},
		apiKeys:      map[string]*model.APIKey{},
		refresh:      map[string]refreshRow{},
	}
}

func (db *memDB) id() uint64 { db.seq++; return db.seq }

// seeding helpers

func (db *memDB) addUser(role model.Role) *model.User {
	db.mu.Lock()
	defer db.mu.Unlock()
	u := &model.User{ID: db.id(), Email: string(role) + "@example.com", Role: role, IsActive: true}
	db.users[u.ID] = u
	return u
}

func (db *memDB) addActivity(a model.Activity) *model.Activity {
	db.mu.Lock()
	defer db.mu.Unlock()
	a.ID = db.id()
	db.activities[a.ID] = &a
	return &a
}

func (db *memDB) addTimeslot(activityID uint64, start time.Time) *model.Timeslot {
	db.mu.Lock()
	defer db.mu.Unlock()
	ts := &model.Timeslot{ID: db.id(), ActivityID: activityID, StartTime: start, EndTime: start.Add(time.Hour)}
	db.timeslots[ts.ID] = ts
	return ts
}

func (db *memDB) slot(id uint64) model.Timeslot {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.timeslots[id]
}

func (db *memDB) activeReservations(timeslotID uint64) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, r := range db.reservations {
		if r.TimeslotID == timeslotID && r.Status.Active() {
			n++
		}
	}
	return n
}

type memActivities struct{ *memDB }

func (s memActivities) List(_ context.Context, scope policy.Scope, _ repository.ActivityQuery) ([]model.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Activity
	for _, a := range s.activities {
		if scope.Permits(policy.Row{OwnerID: a.OwnerID, ActivityActive: a.IsActive}) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s memActivities) Get(_ context.Context, id uint64) (*model.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.activities[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s memActivities) Create(_ context.Context, a *model.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	cp := *a
	s.activities[a.ID] = &cp
	return nil
}

func (s memActivities) Update(_ context.Context, a *model.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activities[a.ID]; !ok {
		return model.ErrNotFound
	}
	cp := *a
	s.activities[a.ID] = &cp
	return nil
}

type memTimeslots struct{ *memDB }

func (s memTimeslots) detail(ts *model.Timeslot) *model.TimeslotDetail {
	a := s.activities[ts.ActivityID]
	return &model.TimeslotDetail{
		Timeslot:         *ts,
		ActivityName:     a.Name,
		ActivityActive:   a.IsActive,
		ActivityOwnerID:  a.OwnerID,
		IsReservable:     a.IsReservable,
		PriceCents:       a.PriceCents,
		MemberPriceCents: a.MemberPriceCents,
	}
}

func (s memTimeslots) List(_ context.Context, scope policy.Scope, q repository.TimeslotQuery) ([]model.TimeslotDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.TimeslotDetail
	for _, ts := range s.timeslots {
		d := s.detail(ts)
		if q.ActivityID != 0 && ts.ActivityID != q.ActivityID {
			continue
		}
		if scope.Permits(policy.Row{OwnerID: d.ActivityOwnerID, ActivityActive: d.ActivityActive, Booked: d.IsBooked}) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s memTimeslots) Get(_ context.Context, id uint64) (*model.TimeslotDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, ok := s.timeslots[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return s.detail(ts), nil
}

func (s memTimeslots) Create(_ context.Context, ts *model.Timeslot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.timeslots {
		if o.ActivityID == ts.ActivityID && o.StartTime.Equal(ts.StartTime) && o.EndTime.Equal(ts.EndTime) {
			return model.ErrConflict
		}
	}
	ts.ID = s.id()
	cp := *ts
	s.timeslots[ts.ID] = &cp
	return nil
}

func (s memTimeslots) Release(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts, ok := s.timeslots[id]
	if !ok {
		return model.ErrNotFound
	}
	for _, r := range s.reservations {
		if r.TimeslotID == id && r.Status.Active() {
			return model.ErrConflict
		}
	}
	ts.IsBooked = false
	return nil
}

type memReservations struct{ *memDB }

func (s memReservations) detail(r *model.Reservation) *model.ReservationDetail {
	ts := s.timeslots[r.TimeslotID]
	a := s.activities[ts.ActivityID]
	return &model.ReservationDetail{
		Reservation:     *r,
		Timeslot:        *ts,
		ActivityID:      a.ID,
		ActivityName:    a.Name,
		ActivityOwnerID: a.OwnerID,
	}
}

func (s memReservations) List(_ context.Context, scope policy.Scope, _ repository.ReservationQuery) ([]model.ReservationDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ReservationDetail
	for _, r := range s.reservations {
		d := s.detail(r)
		if scope.Permits(policy.Row{UserID: d.UserID, OwnerID: d.ActivityOwnerID}) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s memReservations) Get(_ context.Context, id uint64) (*model.ReservationDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return s.detail(r), nil
}

func (s memReservations) Book(_ context.Context, timeslotID uint64, nb repository.NewBooking) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.book(timeslotID, nb)
}

func (s memReservations) BookWindow(_ context.Context, activityID uint64, start, end time.Time, nb repository.NewBooking) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var slot *model.Timeslot
	for _, ts := range s.timeslots {
		if ts.ActivityID == activityID && ts.StartTime.Equal(start) && ts.EndTime.Equal(end) {
			slot = ts
		}
	}
	if slot == nil {
		slot = &model.Timeslot{ID: s.id(), ActivityID: activityID, StartTime: start, EndTime: end}
		s.timeslots[slot.ID] = slot
	}
	return s.book(slot.ID, nb)
}

func (s memReservations) book(timeslotID uint64, nb repository.NewBooking) (*model.Reservation, error) {
	ts, ok := s.timeslots[timeslotID]
	if !ok {
		return nil, model.ErrNotFound
	}
	if ts.IsBooked {
		return nil, model.ErrConflict
	}
	ts.IsBooked = true
	r := &model.Reservation{ID: s.id(), UserID: nb.UserID, TimeslotID: timeslotID, Status: nb.Status, Source: nb.Source, CreatedAt: time.Now().UTC()}
	s.reservations[r.ID] = r
	if nb.Payment != nil {
		nb.Payment.ID = s.id()
		nb.Payment.ReservationID = r.ID
		cp := *nb.Payment
		s.payments[cp.ID] = &cp
	}
	out := *r
	return &out, nil
}

func (s memReservations) Pay(_ context.Context, reservationID uint64, p *model.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[reservationID]
	if !ok {
		return model.ErrNotFound
	}
	if err := r.Status.Transition(model.StatusPaid); err != nil {
		return err
	}
	r.Status = model.StatusPaid
	p.ID = s.id()
	p.ReservationID = reservationID
	cp := *p
	s.payments[p.ID] = &cp
	return nil
}

func (s memReservations) Cancel(_ context.Context, reservationID uint64, by *uint64, reason string) (*model.CancellationLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[reservationID]
	if !ok {
		return nil, model.ErrNotFound
	}
	if err := r.Status.Transition(model.StatusCancelled); err != nil {
		return nil, err
	}
	r.Status = model.StatusCancelled
	s.timeslots[r.TimeslotID].IsBooked = false
	entry := model.CancellationLog{ID: s.id(), ReservationID: reservationID, CancelledBy: by, Reason: reason, CancelledAt: time.Now().UTC()}
	s.cancellations = append(s.cancellations, entry)
	return &entry, nil
}

type memPayments struct{ *memDB }

func (s memPayments) detail(p *model.Payment) *model.PaymentDetail {
	r := s.reservations[p.ReservationID]
	a := s.activities[s.timeslots[r.TimeslotID].ActivityID]
	return &model.PaymentDetail{Payment: *p, UserID: r.UserID, ActivityID: a.ID, ActivityOwnerID: a.OwnerID}
}

func (s memPayments) List(_ context.Context, scope policy.Scope, _ repository.PaymentQuery) ([]model.PaymentDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.PaymentDetail
	for _, p := range s.payments {
		d := s.detail(p)
		if scope.Permits(policy.Row{UserID: d.UserID, OwnerID: d.ActivityOwnerID}) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s memPayments) Get(_ context.Context, id uint64) (*model.PaymentDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return s.detail(p), nil
}

func (s memPayments) Refund(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return model.ErrNotFound
	}
	if err := p.Status.Refund(); err != nil {
		return err
	}
	p.Status = model.PaymentRefunded
	return nil
}

type memMemberships struct{ *memDB }

func (s memMemberships) Create(_ context.Context, m *model.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.id()
	s.memberships = append(s.memberships, *m)
	return nil
}

func (s memMemberships) ActiveAt(_ context.Context, userID uint64, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.memberships {
		if s.memberships[i].UserID == userID && s.memberships[i].ActiveAt(at) {
			return true, nil
		}
	}
	return false, nil
}

func (s memMemberships) ListForUser(_ context.Context, userID uint64) ([]model.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Membership
	for _, m := range s.memberships {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

type memAPIKeys struct{ *memDB }

func (s memAPIKeys) Create(_ context.Context, k *model.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k.ID = s.id()
	cp := *k
	s.apiKeys[k.KeyHash] = &cp
	return nil
}

func (s memAPIKeys) GetByHash(_ context.Context, hash string) (*model.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.apiKeys[hash]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *k
	return &cp, nil
}

type memUsers struct{ *memDB }

func (s memUsers) Create(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.users {
		if o.Email == u.Email {
			return model.ErrConflict
		}
	}
	u.ID = s.id()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, model.ErrNotFound
}

func (s memUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type memTokens struct{ *memDB }

func (s memTokens) StoreRefresh(_ context.Context, userID uint64, hash string, exp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh[hash] = refreshRow{userID: userID, exp: exp}
	return nil
}

func (s memTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.refresh[hash]
	if !ok || row.revoked || !time.Now().Before(row.exp) {
		return 0, model.ErrNotFound
	}
	return row.userID, nil
}

func (s memTokens) RevokeByHash(_ context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.refresh[hash]; ok {
		row.revoked = true
		s.refresh[hash] = row
	}
	return nil
}

func (s memTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h, row := range s.refresh {
		if row.userID == userID {
			row.revoked = true
			s.refresh[h] = row
		}
	}
	return nil
}

// Compile-time checks for the fakes.
var (
	_ ActivityStore    = memActivities{}
	_ TimeslotStore    = memTimeslots{}
	_ ReservationStore = memReservations{}
	_ PaymentStore     = memPayments{}
	_ MembershipStore  = memMemberships{}
	_ APIKeyStore      = memAPIKeys{}
	_ UserStore        = memUsers{}
	_ TokenStore       = memTokens{}
)
