package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/activity-booking/internal/model"
)

// RequireRole rejects callers whose role is not listed.  It must run after
// JWTAuth.  Ownership checks stay in the access policy; this only gates
// whole route groups such as /v1/admin.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller := CallerFrom(c)
			if !caller.Authenticated() {
				return unauthorized(c, "authentication required")
			}
			if !allowed[caller.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "message": "role not allowed"})
			}
			return next(c)
		}
	}
}
