package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/activity-booking/internal/model"
	"github.com/iliyamo/activity-booking/internal/policy"
	"github.com/iliyamo/activity-booking/internal/utils"
)

// JWTAuth validates a Bearer access token and stores the caller.  Requests
// without a valid token are rejected with 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearer(c)
			if !ok {
				return unauthorized(c, "missing bearer token")
			}
			caller, err := parseCaller(secret, raw)
			if err != nil {
				return unauthorized(c, "invalid token")
			}
			authenticate(c, caller)
			return next(c)
		}
	}
}

// OptionalJWT is JWTAuth for public routes: no token means an anonymous
// caller, a bad token is still 401.
func OptionalJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearer(c)
			if !ok {
				setCaller(c, policy.Caller{})
				return next(c)
			}
			caller, err := parseCaller(secret, raw)
			if err != nil {
				return unauthorized(c, "invalid token")
			}
			authenticate(c, caller)
			return next(c)
		}
	}
}

func bearer(c echo.Context) (string, bool) {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return raw, raw != ""
}

func parseCaller(secret, raw string) (policy.Caller, error) {
	id, roleClaim, err := utils.ParseAccessToken(secret, raw)
	if err != nil {
		return policy.Caller{}, err
	}
	role, ok := model.ParseRole(roleClaim)
	if !ok {
		return policy.Caller{}, utils.ErrInvalidToken
	}
	return policy.Caller{UserID: id, Role: role}, nil
}

// authenticate stores the caller and tags the request logger with it.
func authenticate(c echo.Context, caller policy.Caller) {
	setCaller(c, caller)
	req := c.Request()
	l := zerolog.Ctx(req.Context()).With().
		Uint64("user_id", caller.UserID).
		Str("role", string(caller.Role)).
		Logger()
	c.SetRequest(req.WithContext(l.WithContext(req.Context())))
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized", "message": msg})
}
