package booking

import (
	"context"
	"time"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// TripStore provides read access to trips and their seat maps.  The
// booking core never mutates trip data; it is populated by the fleet
// collaborator.
type TripStore interface {
	// GetTrip returns the trip or ErrTripNotFound.
	GetTrip(ctx context.Context, tripID uint64) (*model.Trip, error)
	// SeatLabels returns the trip's seat labels in seat-map order, or
	// ErrTripNotFound when the trip is unknown.
	SeatLabels(ctx context.Context, tripID uint64) ([]string, error)
}

// HoldStore persists holds.  Implementations must be safe for
// concurrent use; logical serialization per trip is provided by the
// callers' trip lock, not by the store.
type HoldStore interface {
	// CreateHold inserts a new hold together with its seat set.
	CreateHold(ctx context.Context, h *model.Hold) error
	// GetHold returns the hold or ErrHoldNotFound.
	GetHold(ctx context.Context, id string) (*model.Hold, error)
	// SetHoldStatus transitions the hold from one status to another.
	// It returns false when the hold was not in the expected status,
	// and ErrHoldNotFound when the hold does not exist.
	SetHoldStatus(ctx context.Context, id string, from, to model.HoldStatus) (bool, error)
	// BlockingSeats returns the seats of all ACTIVE holds on the trip
	// whose expiry lies after now.  Holds that are past their expiry
	// never count, even before a sweep has transitioned them.
	BlockingSeats(ctx context.Context, tripID uint64, now time.Time) (map[string]struct{}, error)
	// ExpireDue transitions every ACTIVE hold whose expiry has passed
	// to EXPIRED and returns the number of holds transitioned.
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// ReservationStore persists reservations and performs the atomic
// hold-to-reservation conversion.
type ReservationStore interface {
	// ConvertHold atomically marks the hold CONVERTED (it must still be
	// ACTIVE) and inserts the reservation.  It returns false without
	// inserting anything when the hold was not ACTIVE, and
	// ErrHoldNotFound when the hold does not exist.
	ConvertHold(ctx context.Context, holdID string, res *model.Reservation) (bool, error)
	// GetReservation returns the reservation or ErrReservationNotFound.
	GetReservation(ctx context.Context, id string) (*model.Reservation, error)
	// SetReservationStatus transitions the reservation between
	// statuses, returning false when it was not in the expected one.
	SetReservationStatus(ctx context.Context, id string, from, to model.ReservationStatus) (bool, error)
	// ConfirmedSeats returns the seats of all CONFIRMED reservations on
	// the trip.
	ConfirmedSeats(ctx context.Context, tripID uint64) (map[string]struct{}, error)
}
