package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/activity-booking/internal/handler"
	"github.com/iliyamo/activity-booking/internal/middleware"
	"github.com/iliyamo/activity-booking/internal/model"
)

// RegisterAdmin registers admin-only endpoints under /v1.  The services
// check the role again; the group guard keeps other roles out early.
func RegisterAdmin(e *echo.Echo, adm *handler.AdminHandler, a *handler.ActivityHandler, cat *handler.CatalogHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Accounts ----
	g.POST("/admin/users", adm.CreateUser)
	g.POST("/admin/api-keys", adm.IssueAPIKey)
	g.POST("/memberships", cat.GrantMembership)

	// ---- Categories ----
	g.GET("/categories", cat.ListCategories)
	g.POST("/categories", cat.CreateCategory)
	g.PUT("/categories/:id", cat.UpdateCategory)

	// ---- Overrides and audit ----
	g.POST("/timeslots/:id/release", a.ReleaseTimeslot)
	g.GET("/cancellations", cat.ListCancellations)
}
