package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/activity-booking/internal/model"
	"github.com/iliyamo/activity-booking/internal/repository"
	"github.com/iliyamo/activity-booking/internal/service"
)

// ReservationHandler serves reservations and payments.
type ReservationHandler struct {
	Booking *service.BookingService
}

// ListReservations handles GET /v1/reservations?status=&activity_id=.
func (h *ReservationHandler) ListReservations(c echo.Context) error {
	p, err := page(c)
	if err != nil {
		return fail(c, err)
	}
	q := repository.ReservationQuery{Status: model.ReservationStatus(c.QueryParam("status")), Page: p}
	switch q.Status {
	case "", model.StatusPending, model.StatusPaid, model.StatusCancelled:
	default:
		return fail(c, model.NewValidationError("status", "must be one of pending, paid, cancelled"))
	}
	if q.ActivityID, err = queryID(c, "activity_id"); err != nil {
		return fail(c, err)
	}
	list, err := h.Booking.ListReservations(c.Request().Context(), caller(c), q)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": list})
}

func (h *ReservationHandler) GetReservation(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	r, err := h.Booking.GetReservation(c.Request().Context(), caller(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// CreateReservation handles POST /v1/reservations {timeslot_id}.  The
// holder is always the caller.
func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	var body struct {
		TimeslotID uint64 `json:"timeslot_id"`
	}
	if err := bind(c, &body); err != nil {
		return fail(c, err)
	}
	if body.TimeslotID == 0 {
		return fail(c, model.NewValidationError("timeslot_id", "is required"))
	}
	r, err := h.Booking.Book(c.Request().Context(), caller(c), body.TimeslotID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// PayReservation handles POST /v1/reservations/:id/pay {method}.
func (h *ReservationHandler) PayReservation(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var body struct {
		Method string `json:"method"`
	}
	if err := bind(c, &body); err != nil {
		return fail(c, err)
	}
	p, err := h.Booking.Pay(c.Request().Context(), caller(c), id, body.Method)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// CancelReservation handles POST /v1/reservations/:id/cancel {reason}.
func (h *ReservationHandler) CancelReservation(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if c.Request().ContentLength != 0 {
		if err := bind(c, &body); err != nil {
			return fail(c, err)
		}
	}
	entry, err := h.Booking.Cancel(c.Request().Context(), caller(c), id, body.Reason)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, entry)
}

// ListPayments handles GET /v1/payments?status=.
func (h *ReservationHandler) ListPayments(c echo.Context) error {
	p, err := page(c)
	if err != nil {
		return fail(c, err)
	}
	q := repository.PaymentQuery{Status: model.PaymentStatus(c.QueryParam("status")), Page: p}
	switch q.Status {
	case "", model.PaymentPaid, model.PaymentFailed, model.PaymentRefunded:
	default:
		return fail(c, model.NewValidationError("status", "must be one of paid, failed, refunded"))
	}
	list, err := h.Booking.ListPayments(c.Request().Context(), caller(c), q)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": list})
}

func (h *ReservationHandler) GetPayment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	p, err := h.Booking.GetPayment(c.Request().Context(), caller(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// RefundPayment handles POST /v1/payments/:id/refund.
func (h *ReservationHandler) RefundPayment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	p, err := h.Booking.Refund(c.Request().Context(), caller(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
