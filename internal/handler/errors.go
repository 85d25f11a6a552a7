package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/activity-booking/internal/middleware"
	"github.com/iliyamo/activity-booking/internal/model"
	"github.com/iliyamo/activity-booking/internal/policy"
	"github.com/iliyamo/activity-booking/internal/repository"
)

// respondError maps a service error onto a status and a JSON body.
// conflictStatus is 409 on interactive routes and 400 on the webhook.
func respondError(c echo.Context, err error, conflictStatus int) error {
	if verr, ok := model.AsValidation(err); ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation_error", "fields": verr.Fields})
	}
	switch {
	case errors.Is(err, model.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": err.Error()})
	case errors.Is(err, model.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": err.Error()})
	case errors.Is(err, model.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found", "message": err.Error()})
	case errors.Is(err, model.ErrConflict):
		return c.JSON(conflictStatus, echo.Map{"error": "conflict", "message": err.Error()})
	}
	zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error"})
}

// fail is respondError for interactive routes.
func fail(c echo.Context, err error) error { return respondError(c, err, http.StatusConflict) }

func caller(c echo.Context) policy.Caller { return middleware.CallerFrom(c) }

// bind decodes the JSON body; a malformed body is a validation error.
func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return model.NewValidationError("", "invalid request body")
	}
	return nil
}

func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, model.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}

func queryID(c echo.Context, name string) (uint64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, model.NewValidationError(name, "must be a positive integer")
	}
	return id, nil
}

func queryTime(c echo.Context, name string) (time.Time, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, model.NewValidationError(name, "must be an RFC3339 timestamp")
	}
	return t.UTC(), nil
}

func page(c echo.Context) (repository.Page, error) {
	verr := &model.ValidationError{}
	p := repository.Page{}
	for name, dst := range map[string]*int{"page": &p.Page, "page_size": &p.PageSize} {
		raw := strings.TrimSpace(c.QueryParam(name))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			verr.Add(name, "must be a positive integer")
			continue
		}
		*dst = n
	}
	return p, verr.OrNil()
}
