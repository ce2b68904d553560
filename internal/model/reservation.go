package model

import "time"

// ReservationStatus enumerates the states of a committed booking.
type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

// Reservation is a committed, paid booking.  Every reservation traces
// back to exactly one hold that was active and unexpired at conversion
// time.  Reservations are never deleted; cancellation only flips the
// status so that audit and reporting collaborators keep the record.
//
// Fields:
//  ID           – UUID identifier.
//  HoldID       – the hold this reservation was converted from.
//  TripID       – trip the seats belong to.
//  SeatLabels   – seats covered, carried over unchanged from the hold.
//  Payer        – identity of the paying user.
//  AmountCents  – verified payment amount in cents.
//  PaymentRef   – provider reference of the verified payment.
//  TicketNumber – issued ticket number, unique across the system.
//  Status       – CONFIRMED or CANCELLED.
//  CreatedAt    – when the conversion happened.
//  UpdatedAt    – last status change.
type Reservation struct {
	ID           string            // reservations.id
	HoldID       string            // reservations.hold_id
	TripID       uint64            // reservations.trip_id
	SeatLabels   []string          // reservation_seats rows
	Payer        string            // reservations.payer
	AmountCents  uint32            // reservations.amount_cents
	PaymentRef   string            // reservations.payment_ref
	TicketNumber string            // reservations.ticket_number
	Status       ReservationStatus // reservations.status
	CreatedAt    time.Time         // reservations.created_at
	UpdatedAt    time.Time         // reservations.updated_at
}
