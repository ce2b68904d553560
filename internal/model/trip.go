package model

import "time"

// Trip represents one scheduled, dated departure of a bus on a route.
// A trip owns its seat map: every bookable position is a Seat row
// referencing the trip.  Trips become immutable once the departure
// time has passed.
//
// Fields:
//  ID            – primary key identifier.
//  RouteID       – route this departure runs on.
//  BusID         – vehicle assigned to the departure.
//  DepartureTime – scheduled departure timestamp (UTC).
//  Capacity      – number of seats in the trip's seat map.
//  CreatedAt     – when the trip was registered.
type Trip struct {
	ID            uint64    // trips.id
	RouteID       uint64    // trips.route_id
	BusID         uint64    // trips.bus_id
	DepartureTime time.Time // trips.departure_time
	Capacity      int       // trips.capacity
	CreatedAt     time.Time // trips.created_at
}

// Seat is one addressable position within a trip's seat map.  The
// label (e.g. "A1", "12C") is unique within the trip and is the only
// handle the booking flow uses to refer to a seat.
//
// Fields:
//  ID     – primary key identifier.
//  TripID – trip this seat belongs to.
//  Label  – seat label, unique per trip.
//  Pos    – ordering index used when listing the seat map.
type Seat struct {
	ID     uint64 // seats.id
	TripID uint64 // seats.trip_id
	Label  string // seats.label
	Pos    int    // seats.pos
}
