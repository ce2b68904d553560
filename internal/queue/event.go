// Package queue defines message payloads exchanged over the message
// broker and the background consumer that turns them into passenger
// notifications.
package queue

// Queue names used on the broker.
const (
	BookingConfirmedQueue = "booking.confirmed"
	BookingCancelledQueue = "booking.cancelled"
)

// BookingEvent is published when a reservation is confirmed or
// cancelled.  It carries enough information for downstream consumers to
// notify, log or feed analytics without querying the primary database.
type BookingEvent struct {
	ReservationID string   `json:"reservation_id"`
	TicketNumber  string   `json:"ticket_number"`
	TripID        uint64   `json:"trip_id"`
	Payer         string   `json:"payer"`
	SeatLabels    []string `json:"seats"`
	AmountCents   uint32   `json:"amount_cents"`
	OccurredAt    string   `json:"occurred_at"`
}
