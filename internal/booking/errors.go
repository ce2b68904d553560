// Package booking implements the seat-inventory reservation core: the
// seat map registry, the reservation ledger, the hold manager and the
// booking orchestrator.  All seat-state mutations for a trip run inside
// a per-trip critical section so that no seat can ever be claimed by
// more than one active hold or confirmed reservation at a time.
package booking

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the booking core.  Handlers translate
// these into HTTP responses; none of them should ever crash the
// process.
var (
	// ErrTripNotFound is returned when a trip reference is unknown.
	ErrTripNotFound = errors.New("trip not found")

	// ErrSeatUnknown is returned when a requested seat label does not
	// exist in the trip's seat map.  It is wrapped with the offending
	// label.
	ErrSeatUnknown = errors.New("seat not in trip seat map")

	// ErrHoldNotFound is returned when a hold reference is unknown or
	// the hold no longer exists as a live claim (already converted or
	// released).
	ErrHoldNotFound = errors.New("hold not found")

	// ErrHoldExpired is returned when an operation requires an active
	// hold but the hold's TTL has passed.  Expiry is effective the
	// moment the deadline passes, whether or not a sweep has run.
	ErrHoldExpired = errors.New("hold expired")

	// ErrReservationNotFound is returned when a reservation reference
	// is unknown.
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrPaymentFailed is returned when payment verification rejects
	// the supplied proof.  The hold's seats are released before this
	// error is surfaced, so a failed payer never blocks other users.
	ErrPaymentFailed = errors.New("payment verification failed")

	// ErrTripBusy is returned when the cross-instance trip lock cannot
	// be obtained within the retry budget.  The request can simply be
	// retried.
	ErrTripBusy = errors.New("trip is busy, retry")
)

// ConflictError reports that a hold could not be acquired because some
// of the requested seats were already claimed at check time.  No
// partial hold is created.
type ConflictError struct {
	Seats []string // the conflicting seat labels, sorted
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("seats no longer available: %s", strings.Join(e.Seats, ", "))
}

// IsConflict reports whether err is a ConflictError and returns it.
func IsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
