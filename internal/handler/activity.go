package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/activity-booking/internal/model"
	"github.com/iliyamo/activity-booking/internal/repository"
	"github.com/iliyamo/activity-booking/internal/service"
)

// ActivityHandler serves the catalogue and timeslot endpoints.
type ActivityHandler struct {
	Activities *service.ActivityService
	Timeslots  *service.TimeslotService
}

// ListActivities handles GET /v1/activities?search=&category_id=&page=&page_size=.
func (h *ActivityHandler) ListActivities(c echo.Context) error {
	p, err := page(c)
	if err != nil {
		return fail(c, err)
	}
	cat, err := queryID(c, "category_id")
	if err != nil {
		return fail(c, err)
	}
	q := repository.ActivityQuery{Search: strings.TrimSpace(c.QueryParam("search")), CategoryID: cat, Page: p}
	list, err := h.Activities.List(c.Request().Context(), caller(c), q)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"activities": list})
}

func (h *ActivityHandler) GetActivity(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	v, err := h.Activities.Get(c.Request().Context(), caller(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// CreateActivity handles POST /v1/activities.
func (h *ActivityHandler) CreateActivity(c echo.Context) error {
	var body model.Activity
	if err := bind(c, &body); err != nil {
		return fail(c, err)
	}
	v, err := h.Activities.Create(c.Request().Context(), caller(c), body)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

// UpdateActivity handles PUT /v1/activities/:id.  Omitted fields are kept.
func (h *ActivityHandler) UpdateActivity(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var patch service.ActivityPatch
	if err := bind(c, &patch); err != nil {
		return fail(c, err)
	}
	v, err := h.Activities.Update(c.Request().Context(), caller(c), id, patch)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

type timeslotReq struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (r timeslotReq) parse() (time.Time, time.Time, error) {
	verr := &model.ValidationError{}
	start := parseTimeField(verr, "start_time", r.StartTime)
	end := parseTimeField(verr, "end_time", r.EndTime)
	return start, end, verr.OrNil()
}

// parseTimeField parses an RFC3339 body field, recording problems in verr.
func parseTimeField(verr *model.ValidationError, name, raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		verr.Add(name, "is required")
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		verr.Add(name, "must be an RFC3339 timestamp")
		return time.Time{}
	}
	return t.UTC()
}

// CreateTimeslot handles POST /v1/activities/:id/timeslots.
func (h *ActivityHandler) CreateTimeslot(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var body timeslotReq
	if err := bind(c, &body); err != nil {
		return fail(c, err)
	}
	start, end, err := body.parse()
	if err != nil {
		return fail(c, err)
	}
	ts, err := h.Timeslots.Create(c.Request().Context(), caller(c), id, start, end)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, ts)
}

// ListTimeslots handles GET /v1/timeslots?activity_id=&from=&to=.
func (h *ActivityHandler) ListTimeslots(c echo.Context) error {
	p, err := page(c)
	if err != nil {
		return fail(c, err)
	}
	q := repository.TimeslotQuery{Page: p}
	if q.ActivityID, err = queryID(c, "activity_id"); err != nil {
		return fail(c, err)
	}
	if q.From, err = queryTime(c, "from"); err != nil {
		return fail(c, err)
	}
	if q.To, err = queryTime(c, "to"); err != nil {
		return fail(c, err)
	}
	list, err := h.Timeslots.List(c.Request().Context(), caller(c), q)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"timeslots": list})
}

func (h *ActivityHandler) GetTimeslot(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	ts, err := h.Timeslots.Get(c.Request().Context(), caller(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ts)
}

// ReleaseTimeslot handles POST /v1/timeslots/:id/release (admin).
func (h *ActivityHandler) ReleaseTimeslot(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	ts, err := h.Timeslots.Release(c.Request().Context(), caller(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ts)
}
