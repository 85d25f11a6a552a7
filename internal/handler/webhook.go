package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/activity-booking/internal/middleware"
	"github.com/iliyamo/activity-booking/internal/model"
	"github.com/iliyamo/activity-booking/internal/service"
)

// WebhookHandler receives reservations pushed by operator systems.  It
// runs behind middleware.APIKeyAuth.
type WebhookHandler struct {
	Intake *service.IntakeService
}

type webhookReq struct {
	ExploitantID uint64 `json:"exploitant_id"`
	ActivityID   uint64 `json:"activity_id"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
}

// Receive handles POST /v1/webhooks/reservations.  A conflict is reported
// as 400 on this route.
func (h *WebhookHandler) Receive(c echo.Context) error {
	key, ok := middleware.APIKeyFrom(c)
	if !ok {
		return respondError(c, model.ErrUnauthorized, http.StatusBadRequest)
	}
	var body webhookReq
	if err := bind(c, &body); err != nil {
		return respondError(c, err, http.StatusBadRequest)
	}
	verr := &model.ValidationError{}
	req := service.IntakeRequest{
		ExploitantID: body.ExploitantID,
		ActivityID:   body.ActivityID,
		StartTime:    parseTimeField(verr, "start_time", body.StartTime),
		EndTime:      parseTimeField(verr, "end_time", body.EndTime),
	}
	if v, ok := model.AsValidation(req.Validate()); ok {
		for field, msg := range v.Fields {
			verr.Add(field, msg)
		}
	}
	if err := verr.OrNil(); err != nil {
		return respondError(c, err, http.StatusBadRequest)
	}

	res, err := h.Intake.Receive(c.Request().Context(), key, req)
	if err != nil {
		return respondError(c, err, http.StatusBadRequest)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message":        "reservation created",
		"reservation_id": res.Reservation.ID,
		"timeslot_id":    res.Reservation.TimeslotID,
		"payment_id":     res.Payment.ID,
	})
}
