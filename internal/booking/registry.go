package booking

import "context"

// SeatMapRegistry answers what seats exist on a trip.  It is read-only
// relative to the booking flow: the fleet collaborator writes trips and
// seat maps, this core only consults them.
type SeatMapRegistry struct {
	trips TripStore
}

// NewSeatMapRegistry returns a registry backed by the given trip store.
func NewSeatMapRegistry(trips TripStore) *SeatMapRegistry {
	return &SeatMapRegistry{trips: trips}
}

// Seats returns the trip's seat labels in seat-map order, or
// ErrTripNotFound for an unknown trip.
func (r *SeatMapRegistry) Seats(ctx context.Context, tripID uint64) ([]string, error) {
	return r.trips.SeatLabels(ctx, tripID)
}

// Capacity returns the number of seats in the trip's seat map.
func (r *SeatMapRegistry) Capacity(ctx context.Context, tripID uint64) (int, error) {
	labels, err := r.trips.SeatLabels(ctx, tripID)
	if err != nil {
		return 0, err
	}
	return len(labels), nil
}
