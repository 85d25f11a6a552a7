package model

import (
	"net/mail"
	"net/url"
	"strings"
	"time"
)

// Activity is a bookable offering published by an operator.  Prices are
// kept in cents.  OwnerID is nil when the operator account was deleted;
// the activity survives and simply has no owner.
//
// Fields:
//  ID               – primary key identifier.
//  Name             – display name.
//  Description      – free text.
//  Exploitant       – operator display name shown to clients.
//  OwnerID          – users.id of the operator (nullable).
//  IsActive         – whether clients can see the activity.
//  PriceCents       – base price.
//  MemberPriceCents – discounted price for members (nullable).
//  AverageRating    – mean review rating, maintained on review creation.
//  IsReservable     – whether timeslots can be booked online.
//  Contact*         – fallback contact when the activity is not reservable.
//  ExternalFormURL  – fallback booking form when not reservable.
//  Categories       – tags, read side; CategoryIDs is the write side.
type Activity struct {
	ID               uint64     `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Exploitant       string     `json:"exploitant"`
	OwnerID          *uint64    `json:"exploitant_user"`
	IsActive         bool       `json:"is_active"`
	PriceCents       uint32     `json:"price_cents"`
	MemberPriceCents *uint32    `json:"member_price_cents"`
	AverageRating    float64    `json:"average_rating"`
	IsReservable     bool       `json:"is_reservable"`
	ContactName      string     `json:"contact_name"`
	ContactEmail     string     `json:"contact_email"`
	ContactPhone     string     `json:"contact_phone"`
	ExternalFormURL  string     `json:"external_form_url"`
	Categories       []Category `json:"categories"`
	CategoryIDs      []uint64   `json:"category_ids,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Validate enforces the field and cross-field rules applied on every
// create and update.  A non-reservable activity must tell clients how to
// get in touch instead.
func (a *Activity) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(a.Name) == "" {
		verr.Add("name", "is required")
	}
	if e := strings.TrimSpace(a.ContactEmail); e != "" {
		if _, err := mail.ParseAddress(e); err != nil {
			verr.Add("contact_email", "is not a valid email address")
		}
	}
	if u := strings.TrimSpace(a.ExternalFormURL); u != "" && !looksLikeURL(u) {
		verr.Add("external_form_url", "must be an http(s) URL")
	}
	if !a.IsReservable && !a.HasContactFallback() {
		verr.Add("", "a contact email, phone or external form URL is required when the activity is not reservable")
	}
	return verr.OrNil()
}

// HasContactFallback reports whether at least one way to reach the
// operator outside the platform is set.
func (a *Activity) HasContactFallback() bool {
	return strings.TrimSpace(a.ContactEmail) != "" ||
		strings.TrimSpace(a.ContactPhone) != "" ||
		strings.TrimSpace(a.ExternalFormURL) != ""
}

// OwnedBy reports whether userID is the activity's operator.
func (a *Activity) OwnedBy(userID uint64) bool {
	return a.OwnerID != nil && *a.OwnerID == userID
}

// FinalPrice returns the price the caller pays: the member price when the
// caller holds an active membership and a member price is set, the base
// price otherwise.  A zero member price counts as unset.
func FinalPrice(a *Activity, activeMember bool) uint32 {
	if activeMember && a.MemberPriceCents != nil && *a.MemberPriceCents > 0 {
		return *a.MemberPriceCents
	}
	return a.PriceCents
}

// Category groups activities in the catalogue.
type Category struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// Validate checks the category name.
func (c *Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return NewValidationError("name", "is required")
	}
	if len(c.Name) > 100 {
		return NewValidationError("name", "must be at most 100 characters")
	}
	return nil
}

// Review is a rating left by a user on an activity.
type Review struct {
	ID         uint64    `json:"id"`
	UserID     uint64    `json:"user_id"`
	ActivityID uint64    `json:"activity_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

// Validate checks the rating range.
func (r *Review) Validate() error {
	verr := &ValidationError{}
	if r.ActivityID == 0 {
		verr.Add("activity_id", "is required")
	}
	if r.Rating < 1 || r.Rating > 5 {
		verr.Add("rating", "must be between 1 and 5")
	}
	return verr.OrNil()
}

func looksLikeURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
