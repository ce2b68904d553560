package handler

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/bus-seat-reservation/internal/booking"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/repository"
)

// TripHandler serves trip browsing, seat maps and live availability,
// plus the fleet ingestion endpoint used to register new departures.
type TripHandler struct {
	Trips    *repository.TripRepo
	Registry *booking.SeatMapRegistry
	Ledger   *booking.Ledger
}

// NewTripHandler constructs a TripHandler.
func NewTripHandler(trips *repository.TripRepo, registry *booking.SeatMapRegistry, ledger *booking.Ledger) *TripHandler {
	if trips == nil || registry == nil || ledger == nil {
		panic("nil dependency passed to NewTripHandler")
	}
	return &TripHandler{Trips: trips, Registry: registry, Ledger: ledger}
}

type createTripRequest struct {
	RouteID       uint64   `json:"route_id" validate:"required"`
	BusID         uint64   `json:"bus_id" validate:"required"`
	DepartureTime string   `json:"departure_time" validate:"required"`
	SeatLabels    []string `json:"seat_labels" validate:"required,min=1,unique,dive,required"`
}

// CreateTrip handles POST /v1/trips.  The fleet collaborator registers
// a departure together with its full seat map; the seat labels become
// the trip's immutable seat registry.
func (h *TripHandler) CreateTrip(c echo.Context) error {
	var body createTripRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return err
	}
	departure, err := time.Parse(time.RFC3339, body.DepartureTime)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure_time must be RFC3339"})
	}
	trip := &model.Trip{
		RouteID:       body.RouteID,
		BusID:         body.BusID,
		DepartureTime: departure,
	}
	if err := h.Trips.Create(c.Request().Context(), trip, body.SeatLabels); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create trip"})
	}
	return c.JSON(http.StatusCreated, tripResponse(trip))
}

// ListTrips handles GET /v1/trips, returning upcoming departures.
func (h *TripHandler) ListTrips(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	trips, err := h.Trips.ListUpcoming(c.Request().Context(), time.Now().UTC(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list trips"})
	}
	items := make([]echo.Map, 0, len(trips))
	for i := range trips {
		items = append(items, tripResponse(&trips[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// SeatMap handles GET /v1/trips/:id/seatmap, returning the ordered
// seat labels of the trip.
func (h *TripHandler) SeatMap(c echo.Context) error {
	tripID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || tripID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	seats, err := h.Registry.Seats(c.Request().Context(), tripID)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"trip_id": tripID, "seats": seats})
}

// Availability handles GET /v1/trips/:id/availability.  It returns the
// seats currently free: the seat map minus the ledger's unavailable
// snapshot.  Expired holds drop out of the snapshot the instant their
// TTL passes.
func (h *TripHandler) Availability(c echo.Context) error {
	tripID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || tripID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	ctx := c.Request().Context()
	seats, err := h.Registry.Seats(ctx, tripID)
	if err != nil {
		return bookingError(c, err)
	}
	unavailable, err := h.Ledger.Snapshot(ctx, tripID)
	if err != nil {
		return bookingError(c, err)
	}
	free := make([]string, 0, len(seats))
	for _, s := range seats {
		if _, taken := unavailable[s]; !taken {
			free = append(free, s)
		}
	}
	taken := make([]string, 0, len(unavailable))
	for s := range unavailable {
		taken = append(taken, s)
	}
	sort.Strings(taken)
	return c.JSON(http.StatusOK, echo.Map{
		"trip_id":     tripID,
		"free":        free,
		"unavailable": taken,
	})
}

func tripResponse(t *model.Trip) echo.Map {
	return echo.Map{
		"trip_id":        t.ID,
		"route_id":       t.RouteID,
		"bus_id":         t.BusID,
		"departure_time": t.DepartureTime.UTC().Format(time.RFC3339),
		"capacity":       t.Capacity,
	}
}
