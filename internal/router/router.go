package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/activity-booking/internal/handler"
	"github.com/iliyamo/activity-booking/internal/middleware"
)

// RegisterRoutes registers the operational endpoints: health and metrics.
// metrics may be nil.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, metrics http.Handler) {
	e.GET("/healthz", handler.Health(db))
	if metrics != nil {
		e.GET("/metrics", echo.WrapHandler(metrics))
	}
}

// RegisterAuth registers the session endpoints.  Login and refresh need no
// session; logout accepts an optional bearer to revoke every session of
// the caller.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout, middleware.OptionalJWT(jwtSecret))

	e.GET("/v1/me", a.Me, middleware.JWTAuth(jwtSecret))
}

// RegisterPublic registers the browse endpoints.  They work without a
// token; with one, the caller's role widens what is visible.  Anonymous
// timeslot listings go through the response cache.
func RegisterPublic(e *echo.Echo, h *handler.ActivityHandler, jwtSecret string, cache *middleware.ResponseCache) {
	optional := middleware.OptionalJWT(jwtSecret)
	e.GET("/v1/activities", h.ListActivities, optional)
	e.GET("/v1/timeslots", h.ListTimeslots, cache.Middleware(), optional)
	e.GET("/v1/timeslots/:id", h.GetTimeslot, optional)
}
