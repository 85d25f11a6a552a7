package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/activity-booking/internal/model"
	"github.com/iliyamo/activity-booking/internal/policy"
	"github.com/iliyamo/activity-booking/internal/queue"
)

type recPublisher struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
	err    error
}

func (p *recPublisher) Publish(_ context.Context, ev queue.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recPublisher) types() []queue.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]queue.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type countingCache struct {
	mu sync.Mutex
	n  int
}

func (c *countingCache) Invalidate(context.Context) error {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
	return nil
}

// fixture is one operator with an active reservable activity, a client,
// a second operator and an admin.
type fixture struct {
	db       *memDB
	events   *recPublisher
	cache    *countingCache
	owner    policy.Caller
	rival    policy.Caller
	client   policy.Caller
	admin    policy.Caller
	activity *model.Activity
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newMemDB()
	f := &fixture{db: db, events: &recPublisher{}, cache: &countingCache{}, now: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
	as := func(u *model.User) policy.Caller { return policy.Caller{UserID: u.ID, Role: u.Role} }
	f.owner = as(db.addUser(model.RoleExploitant))
	f.rival = as(db.addUser(model.RoleExploitant))
	f.client = as(db.addUser(model.RoleClient))
	f.admin = as(db.addUser(model.RoleAdmin))
	member := uint32(1500)
	ownerID := f.owner.UserID
	f.activity = db.addActivity(model.Activity{
		Name:             "Climbing",
		OwnerID:          &ownerID,
		IsActive:         true,
		IsReservable:     true,
		PriceCents:       2000,
		MemberPriceCents: &member,
	})
	return f
}

func (f *fixture) pricer() Pricer {
	return Pricer{Memberships: memMemberships{f.db}, Now: func() time.Time { return f.now }}
}

func (f *fixture) activities() *ActivityService {
	return &ActivityService{Activities: memActivities{f.db}, Pricer: f.pricer()}
}

func (f *fixture) timeslots() *TimeslotService {
	return &TimeslotService{Timeslots: memTimeslots{f.db}, Activities: memActivities{f.db}, Cache: f.cache}
}

func (f *fixture) booking() *BookingService {
	return &BookingService{
		Reservations: memReservations{f.db},
		Payments:     memPayments{f.db},
		Timeslots:    memTimeslots{f.db},
		Activities:   memActivities{f.db},
		Pricer:       f.pricer(),
		Events:       f.events,
		Cache:        f.cache,
	}
}

func (f *fixture) intake() *IntakeService {
	return &IntakeService{
		APIKeys:      memAPIKeys{f.db},
		Activities:   memActivities{f.db},
		Reservations: memReservations{f.db},
		Events:       f.events,
		Cache:        f.cache,
		Now:          func() time.Time { return f.now },
	}
}

func (f *fixture) grantMembership(userID uint64) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.memberships = append(f.db.memberships, model.Membership{
		ID:         f.db.id(),
		UserID:     userID,
		StartDate:  f.now.AddDate(0, -1, 0),
		ExpiryDate: f.now.AddDate(0, 1, 0),
	})
}
