package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/activity-booking/internal/handler"
	"github.com/iliyamo/activity-booking/internal/middleware"
)

// RegisterBooking registers the endpoints every signed-in role uses.  What
// each caller sees and may change is decided by the access policy inside
// the services, not by route guards.
func RegisterBooking(e *echo.Echo, a *handler.ActivityHandler, r *handler.ReservationHandler, cat *handler.CatalogHandler, jwtSecret string) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	// ---- Activities ----
	g.GET("/activities/:id", a.GetActivity)
	g.POST("/activities", a.CreateActivity)
	g.PUT("/activities/:id", a.UpdateActivity)
	g.POST("/activities/:id/timeslots", a.CreateTimeslot)

	// ---- Reservations ----
	g.GET("/reservations", r.ListReservations)
	g.GET("/reservations/:id", r.GetReservation)
	g.POST("/reservations", r.CreateReservation)
	g.POST("/reservations/:id/pay", r.PayReservation)
	g.POST("/reservations/:id/cancel", r.CancelReservation)

	// ---- Payments ----
	g.GET("/payments", r.ListPayments)
	g.GET("/payments/:id", r.GetPayment)
	g.POST("/payments/:id/refund", r.RefundPayment)

	// ---- Reviews, profiles, memberships ----
	g.GET("/reviews", cat.ListReviews)
	g.POST("/reviews", cat.CreateReview)
	g.GET("/exploitant-profile", cat.ListProfiles)
	g.PUT("/exploitant-profile", cat.UpdateProfile)
	g.GET("/memberships/me", cat.MyMemberships)
}
