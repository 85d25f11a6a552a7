// Package service holds the booking use cases.  Services take a
// policy.Caller, ask the access policy, then drive the stores.  The MySQL
// repositories satisfy the store interfaces; tests use in-memory fakes.
package service

import (
	"context"
	"time"

	"github.com/iliyamo/activity-booking/internal/model"
	"github.com/iliyamo/activity-booking/internal/policy"
	"github.com/iliyamo/activity-booking/internal/repository"
)

type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// TokenStore keeps hashed refresh tokens.
type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

type ActivityStore interface {
	List(ctx context.Context, scope policy.Scope, q repository.ActivityQuery) ([]model.Activity, error)
	Get(ctx context.Context, id uint64) (*model.Activity, error)
	Create(ctx context.Context, a *model.Activity) error
	Update(ctx context.Context, a *model.Activity) error
}

type TimeslotStore interface {
	List(ctx context.Context, scope policy.Scope, q repository.TimeslotQuery) ([]model.TimeslotDetail, error)
	Get(ctx context.Context, id uint64) (*model.TimeslotDetail, error)
	Create(ctx context.Context, ts *model.Timeslot) error
	Release(ctx context.Context, id uint64) error
}

// ReservationStore performs each lifecycle change as one atomic unit.
type ReservationStore interface {
	List(ctx context.Context, scope policy.Scope, q repository.ReservationQuery) ([]model.ReservationDetail, error)
	Get(ctx context.Context, id uint64) (*model.ReservationDetail, error)
	Book(ctx context.Context, timeslotID uint64, nb repository.NewBooking) (*model.Reservation, error)
	BookWindow(ctx context.Context, activityID uint64, start, end time.Time, nb repository.NewBooking) (*model.Reservation, error)
	Pay(ctx context.Context, reservationID uint64, p *model.Payment) error
	Cancel(ctx context.Context, reservationID uint64, by *uint64, reason string) (*model.CancellationLog, error)
}

type PaymentStore interface {
	List(ctx context.Context, scope policy.Scope, q repository.PaymentQuery) ([]model.PaymentDetail, error)
	Get(ctx context.Context, id uint64) (*model.PaymentDetail, error)
	Refund(ctx context.Context, id uint64) error
}

type MembershipStore interface {
	Create(ctx context.Context, m *model.Membership) error
	ActiveAt(ctx context.Context, userID uint64, at time.Time) (bool, error)
	ListForUser(ctx context.Context, userID uint64) ([]model.Membership, error)
}

type APIKeyStore interface {
	Create(ctx context.Context, k *model.APIKey) error
	GetByHash(ctx context.Context, hash string) (*model.APIKey, error)
}

type CategoryStore interface {
	List(ctx context.Context) ([]model.Category, error)
	Create(ctx context.Context, c *model.Category) error
	Update(ctx context.Context, c *model.Category) error
}

type ReviewStore interface {
	Create(ctx context.Context, rv *model.Review) error
	ListForActivity(ctx context.Context, activityID uint64, p repository.Page) ([]model.Review, error)
}

type ProfileStore interface {
	List(ctx context.Context, scope policy.Scope) ([]model.ExploitantProfile, error)
	Upsert(ctx context.Context, p *model.ExploitantProfile) error
}

type CancellationStore interface {
	List(ctx context.Context, reservationID uint64, p repository.Page) ([]model.CancellationLog, error)
}

// Compile-time checks that the MySQL repositories satisfy the stores.
var (
	_ UserStore         = (*repository.UserRepo)(nil)
	_ TokenStore        = (*repository.TokenRepo)(nil)
	_ ActivityStore     = (*repository.ActivityRepo)(nil)
	_ TimeslotStore     = (*repository.TimeslotRepo)(nil)
	_ ReservationStore  = (*repository.ReservationRepo)(nil)
	_ PaymentStore      = (*repository.PaymentRepo)(nil)
	_ MembershipStore   = (*repository.MembershipRepo)(nil)
	_ APIKeyStore       = (*repository.APIKeyRepo)(nil)
	_ CategoryStore     = (*repository.CategoryRepo)(nil)
	_ ReviewStore       = (*repository.ReviewRepo)(nil)
	_ ProfileStore      = (*repository.ProfileRepo)(nil)
	_ CancellationStore = (*repository.CancellationRepo)(nil)
)
