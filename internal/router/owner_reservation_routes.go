package router

// This file registers the intake webhook through which operator systems
// push reservations for their own activities.  It uses API keys instead of
// sessions.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/activity-booking/internal/handler"
	"github.com/iliyamo/activity-booking/internal/middleware"
)

// RegisterWebhook mounts POST /v1/webhooks/reservations behind X-API-KEY
// authentication and the per-key limiter.
func RegisterWebhook(e *echo.Echo, h *handler.WebhookHandler, auth middleware.KeyAuthenticator, limiter *middleware.KeyLimiter) {
	e.POST("/v1/webhooks/reservations", h.Receive, middleware.APIKeyAuth(auth, limiter))
}
