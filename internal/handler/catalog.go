package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/activity-booking/internal/model"
	"github.com/iliyamo/activity-booking/internal/service"
)

// CatalogHandler serves categories, reviews, exploitant profiles,
// memberships and the cancellation log.
type CatalogHandler struct {
	Catalog *service.CatalogService
}

type categoryReq struct {
	Name string `json:"name"`
}

func (h *CatalogHandler) ListCategories(c echo.Context) error {
	list, err := h.Catalog.ListCategories(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"categories": list})
}

func (h *CatalogHandler) CreateCategory(c echo.Context) error {
	var body categoryReq
	if err := bind(c, &body); err != nil {
		return fail(c, err)
	}
	cat, err := h.Catalog.CreateCategory(c.Request().Context(), caller(c), body.Name)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *CatalogHandler) UpdateCategory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var body categoryReq
	if err := bind(c, &body); err != nil {
		return fail(c, err)
	}
	cat, err := h.Catalog.UpdateCategory(c.Request().Context(), caller(c), id, body.Name)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, cat)
}

// ListReviews handles GET /v1/reviews?activity_id=.
func (h *CatalogHandler) ListReviews(c echo.Context) error {
	p, err := page(c)
	if err != nil {
		return fail(c, err)
	}
	activityID, err := queryID(c, "activity_id")
	if err != nil {
		return fail(c, err)
	}
	list, err := h.Catalog.ListReviews(c.Request().Context(), caller(c), activityID, p)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reviews": list})
}

func (h *CatalogHandler) CreateReview(c echo.Context) error {
	var body model.Review
	if err := bind(c, &body); err != nil {
		return fail(c, err)
	}
	rv, err := h.Catalog.CreateReview(c.Request().Context(), caller(c), body)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, rv)
}

// ListProfiles handles GET /v1/exploitant-profile.
func (h *CatalogHandler) ListProfiles(c echo.Context) error {
	list, err := h.Catalog.ListProfiles(c.Request().Context(), caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"profiles": list})
}

// UpdateProfile handles PUT /v1/exploitant-profile.
func (h *CatalogHandler) UpdateProfile(c echo.Context) error {
	var body model.ExploitantProfile
	if err := bind(c, &body); err != nil {
		return fail(c, err)
	}
	p, err := h.Catalog.UpdateProfile(c.Request().Context(), caller(c), body)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *CatalogHandler) MyMemberships(c echo.Context) error {
	st, err := h.Catalog.MyMemberships(c.Request().Context(), caller(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// GrantMembership handles POST /v1/memberships (admin).  Dates are
// YYYY-MM-DD.
func (h *CatalogHandler) GrantMembership(c echo.Context) error {
	var body struct {
		UserID     uint64 `json:"user_id"`
		StartDate  string `json:"start_date"`
		ExpiryDate string `json:"expiry_date"`
		PaymentRef string `json:"payment_id"`
	}
	if err := bind(c, &body); err != nil {
		return fail(c, err)
	}
	verr := &model.ValidationError{}
	m := model.Membership{
		UserID:     body.UserID,
		StartDate:  parseDateField(verr, "start_date", body.StartDate),
		ExpiryDate: parseDateField(verr, "expiry_date", body.ExpiryDate),
		PaymentRef: strings.TrimSpace(body.PaymentRef),
	}
	if err := verr.OrNil(); err != nil {
		return fail(c, err)
	}
	out, err := h.Catalog.GrantMembership(c.Request().Context(), caller(c), m)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func parseDateField(verr *model.ValidationError, name, raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		verr.Add(name, "must be a YYYY-MM-DD date")
	}
	return t
}

// ListCancellations handles GET /v1/cancellations?reservation_id= (admin).
func (h *CatalogHandler) ListCancellations(c echo.Context) error {
	p, err := page(c)
	if err != nil {
		return fail(c, err)
	}
	resID, err := queryID(c, "reservation_id")
	if err != nil {
		return fail(c, err)
	}
	list, err := h.Catalog.ListCancellations(c.Request().Context(), caller(c), resID, p)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"cancellations": list})
}
