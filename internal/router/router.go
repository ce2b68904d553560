// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/bus-seat-reservation/internal/handler"
	"github.com/iliyamo/bus-seat-reservation/internal/middleware"
)

// Deps carries everything route registration needs.
type Deps struct {
	Booking   *handler.BookingHandler
	Trips     *handler.TripHandler
	Webhook   *handler.WebhookHandler
	JWTSecret string
	RateLimit echo.MiddlewareFunc
}

// Register wires all routes.  Browsing endpoints and operational
// endpoints are public; the booking flow requires a bearer token, and
// trip creation additionally requires the ADMIN role.  The payment
// webhook authenticates by payload signature instead of a JWT.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Public browsing, no authentication (mirrors what the marketing
	// frontend shows before login).
	e.GET("/v1/trips", d.Trips.ListTrips)
	e.GET("/v1/trips/:id/seatmap", d.Trips.SeatMap)
	e.GET("/v1/trips/:id/availability", d.Trips.Availability)

	// Provider callbacks carry their own signature.
	e.POST("/v1/payments/webhook/:provider", d.Webhook.HandlePayment)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(d.JWTSecret))
	if d.RateLimit != nil {
		auth.Use(d.RateLimit)
	}

	auth.POST("/trips/:id/holds", d.Booking.HoldSeats)
	auth.DELETE("/holds/:id", d.Booking.ReleaseHold)
	auth.POST("/holds/:id/confirm", d.Booking.ConfirmHold)
	auth.GET("/reservations/:id", d.Booking.GetReservation)
	auth.DELETE("/reservations/:id", d.Booking.CancelReservation)

	auth.POST("/trips", d.Trips.CreateTrip, middleware.RequireRole("ADMIN"))
}
