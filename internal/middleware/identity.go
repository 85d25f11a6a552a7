package middleware

// identity.go holds the request identity shared by the auth, rate limit
// and cache middleware.  JWTAuth and OptionalJWT store a policy.Caller;
// APIKeyAuth stores the resolved key.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/activity-booking/internal/model"
	"github.com/iliyamo/activity-booking/internal/policy"
)

const (
	callerKey = "caller"
	apiKeyKey = "api_key"
)

// CallerFrom returns the caller set by JWTAuth or OptionalJWT.  Requests
// that went through neither are anonymous.
func CallerFrom(c echo.Context) policy.Caller {
	if v, ok := c.Get(callerKey).(policy.Caller); ok {
		return v
	}
	return policy.Caller{}
}

func setCaller(c echo.Context, caller policy.Caller) {
	c.Set(callerKey, caller)
	c.Set("user_id", caller.UserID)
	c.Set("role", string(caller.Role))
}

// APIKeyFrom returns the key resolved by APIKeyAuth.
func APIKeyFrom(c echo.Context) (*model.APIKey, bool) {
	k, ok := c.Get(apiKeyKey).(*model.APIKey)
	return k, ok && k != nil
}

// userID is the identity used in rate limit keys: the user id, the key
// owner on the webhook, or "guest".
func userID(c echo.Context) string {
	if caller := CallerFrom(c); caller.Authenticated() {
		return strconv.FormatUint(caller.UserID, 10)
	}
	if k, ok := APIKeyFrom(c); ok {
		return "key:" + strconv.FormatUint(k.ID, 10)
	}
	return "guest"
}
