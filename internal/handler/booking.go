// Package handler exposes the booking core over HTTP.  Handlers stay
// thin: they bind and validate requests, call the orchestrator and
// translate the domain error taxonomy into status codes.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-reservation/internal/booking"
	"github.com/iliyamo/bus-seat-reservation/internal/middleware"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// BookingHandler serves the hold and reservation endpoints on behalf of
// authenticated passengers.
type BookingHandler struct {
	Orch *booking.Orchestrator
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(orch *booking.Orchestrator) *BookingHandler {
	if orch == nil {
		panic("nil orchestrator passed to NewBookingHandler")
	}
	return &BookingHandler{Orch: orch}
}

type holdRequest struct {
	SeatLabels []string `json:"seat_labels" validate:"required,min=1,dive,required"`
}

type holdResponse struct {
	HoldID     string   `json:"hold_id"`
	TripID     uint64   `json:"trip_id"`
	SeatLabels []string `json:"seats"`
	ExpiresAt  string   `json:"expires_at"`
}

// HoldSeats handles POST /v1/trips/:id/holds.  On success it returns
// 201 with the hold and its expiry; overlapping seats yield 409 with
// the conflicting labels so the client can offer alternatives.
func (h *BookingHandler) HoldSeats(c echo.Context) error {
	tripID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || tripID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	var body holdRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return err
	}

	hold, err := h.Orch.SelectSeats(c.Request().Context(), tripID, body.SeatLabels, middleware.UserID(c))
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, holdResponse{
		HoldID:     hold.ID,
		TripID:     hold.TripID,
		SeatLabels: hold.SeatLabels,
		ExpiresAt:  hold.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// ReleaseHold handles DELETE /v1/holds/:id.  Releasing an already
// released or expired hold succeeds with no effect.
func (h *BookingHandler) ReleaseHold(c echo.Context) error {
	if err := h.Orch.ReleaseHold(c.Request().Context(), c.Param("id")); err != nil {
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type confirmRequest struct {
	Provider  string          `json:"provider" validate:"required"`
	Reference string          `json:"reference"`
	Signature string          `json:"signature" validate:"required"`
	Payload   json.RawMessage `json:"payload" validate:"required"`
}

// ConfirmHold handles POST /v1/holds/:id/confirm.  The body carries the
// provider's signed payment payload; verification happens before the
// trip lock is touched.  An expired hold yields 410, a rejected payment
// 402 with the seats already freed.
func (h *BookingHandler) ConfirmHold(c echo.Context) error {
	var body confirmRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return err
	}
	proof := booking.PaymentProof{
		Provider:  body.Provider,
		Reference: body.Reference,
		Signature: body.Signature,
		Payload:   body.Payload,
	}
	res, err := h.Orch.ConfirmPayment(c.Request().Context(), c.Param("id"), proof)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, reservationResponse(res))
}

// GetReservation handles GET /v1/reservations/:id.
func (h *BookingHandler) GetReservation(c echo.Context) error {
	res, err := h.Orch.GetReservation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, reservationResponse(res))
}

// CancelReservation handles DELETE /v1/reservations/:id.  Cancelling is
// idempotent: a second call returns 204 without changing anything.
func (h *BookingHandler) CancelReservation(c echo.Context) error {
	if err := h.Orch.CancelReservation(c.Request().Context(), c.Param("id")); err != nil {
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func reservationResponse(res *model.Reservation) echo.Map {
	return echo.Map{
		"reservation_id": res.ID,
		"trip_id":        res.TripID,
		"seats":          res.SeatLabels,
		"payer":          res.Payer,
		"amount_cents":   res.AmountCents,
		"ticket_number":  res.TicketNumber,
		"status":         res.Status,
		"created_at":     res.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// bookingError maps the domain error taxonomy onto HTTP responses.
// Everything in the taxonomy is recoverable; anything else is a 500.
func bookingError(c echo.Context, err error) error {
	if ce, ok := booking.IsConflict(err); ok {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":             "seats no longer available",
			"conflicting_seats": ce.Seats,
		})
	}
	switch {
	case errors.Is(err, booking.ErrTripNotFound),
		errors.Is(err, booking.ErrHoldNotFound),
		errors.Is(err, booking.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrSeatUnknown):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, booking.ErrHoldExpired):
		return c.JSON(http.StatusGone, echo.Map{"error": "hold expired"})
	case errors.Is(err, booking.ErrPaymentFailed):
		return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "payment verification failed"})
	case errors.Is(err, booking.ErrTripBusy):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "trip is busy, retry"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
