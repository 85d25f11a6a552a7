package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/activity-booking/internal/service"
)

// AdminHandler provisions accounts and webhook keys.
type AdminHandler struct {
	Accounts *service.AccountService
}

// CreateUser handles POST /v1/admin/users {email, password, role}.
func (h *AdminHandler) CreateUser(c echo.Context) error {
	var body service.NewUser
	if err := bind(c, &body); err != nil {
		return fail(c, err)
	}
	u, err := h.Accounts.Provision(c.Request().Context(), caller(c), body)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, u)
}

// IssueAPIKey handles POST /v1/admin/api-keys {user_id}.  The raw key is
// only ever returned here.
func (h *AdminHandler) IssueAPIKey(c echo.Context) error {
	var body struct {
		UserID uint64 `json:"user_id"`
	}
	if err := bind(c, &body); err != nil {
		return fail(c, err)
	}
	k, err := h.Accounts.IssueAPIKey(c.Request().Context(), caller(c), body.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, k)
}
