package model

import "time"

// HoldStatus enumerates the lifecycle states of a seat hold.
type HoldStatus string

const (
	HoldActive    HoldStatus = "ACTIVE"    // hold is live, seats blocked
	HoldExpired   HoldStatus = "EXPIRED"   // TTL passed without confirmation
	HoldConverted HoldStatus = "CONVERTED" // turned into a reservation
	HoldReleased  HoldStatus = "RELEASED"  // explicitly given up
)

// Hold is a provisional, time-limited claim on a set of seats for a
// trip.  While active it guarantees that no other hold or reservation
// may claim the same seats; it does not guarantee payment.  The seat
// set is immutable after creation – changing seats means releasing and
// re-acquiring.
//
// Fields:
//  ID        – UUID identifier, returned to the client for correlation.
//  TripID    – trip the seats belong to.
//  SeatLabels – seats claimed by this hold.
//  Requester – identity of the user who requested the hold.
//  Status    – lifecycle state.
//  ExpiresAt – when the hold stops blocking its seats.
//  CreatedAt – when the hold was created.
type Hold struct {
	ID         string     // holds.id
	TripID     uint64     // holds.trip_id
	SeatLabels []string   // hold_seats rows
	Requester  string     // holds.requester
	Status     HoldStatus // holds.status
	ExpiresAt  time.Time  // holds.expires_at
	CreatedAt  time.Time  // holds.created_at
}

// ExpiredAt reports whether the hold's TTL has passed at the given
// instant.  Expiry is effective immediately, whether or not a sweep has
// persisted the EXPIRED status yet.
func (h *Hold) ExpiredAt(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}

// Blocking reports whether the hold still blocks its seats at the given
// instant, i.e. it is ACTIVE and unexpired.
func (h *Hold) Blocking(now time.Time) bool {
	return h.Status == HoldActive && !h.ExpiredAt(now)
}
