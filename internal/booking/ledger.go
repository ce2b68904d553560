package booking

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// Ledger is the durable record of seat-to-booking assignments.  It
// computes availability snapshots and performs the two state changes
// that move seats between owners: converting a hold into a confirmed
// reservation and cancelling a reservation.  Both run under the trip's
// write lock.
type Ledger struct {
	holds        HoldStore
	reservations ReservationStore
	locks        *TripLocks
	now          func() time.Time
}

// NewLedger returns a ledger over the given stores.  The locks registry
// must be the same instance used by the HoldManager so that all
// mutations on a trip serialize against each other.
func NewLedger(holds HoldStore, reservations ReservationStore, locks *TripLocks) *Ledger {
	return &Ledger{holds: holds, reservations: reservations, locks: locks, now: time.Now}
}

// Snapshot returns the set of seat labels currently unavailable on the
// trip: the union of seats under active, unexpired holds and seats of
// confirmed reservations.  It takes the trip's read lock, so concurrent
// snapshots run in parallel while mutations are excluded, giving every
// caller a consistent view.
func (l *Ledger) Snapshot(ctx context.Context, tripID uint64) (map[string]struct{}, error) {
	unlock := l.locks.RLock(tripID)
	defer unlock()
	return l.unavailableLocked(ctx, tripID, l.now())
}

// unavailableLocked computes the unavailable set.  The caller must hold
// the trip lock (read or write).
func (l *Ledger) unavailableLocked(ctx context.Context, tripID uint64, now time.Time) (map[string]struct{}, error) {
	held, err := l.holds.BlockingSeats(ctx, tripID, now)
	if err != nil {
		return nil, err
	}
	confirmed, err := l.reservations.ConfirmedSeats(ctx, tripID)
	if err != nil {
		return nil, err
	}
	for s := range confirmed {
		held[s] = struct{}{}
	}
	return held, nil
}

// Commit atomically converts a still-active, unexpired hold into a
// confirmed reservation carrying the hold's seat set unchanged.  It
// fails with ErrHoldExpired when the TTL has passed and ErrHoldNotFound
// when the hold does not exist or was already converted or released.
// The verified payment amount and provider reference are recorded on
// the reservation, and a ticket number is issued.
func (l *Ledger) Commit(ctx context.Context, holdID string, amountCents uint32, paymentRef string) (*model.Reservation, error) {
	h, err := l.holds.GetHold(ctx, holdID)
	if err != nil {
		return nil, err
	}
	switch h.Status {
	case model.HoldConverted, model.HoldReleased:
		return nil, ErrHoldNotFound
	case model.HoldExpired:
		return nil, ErrHoldExpired
	}

	unlock := l.locks.Lock(h.TripID)
	defer unlock()

	now := l.now()
	if h.ExpiredAt(now) {
		// Persist the expiry so the sweep does not have to.
		_, _ = l.holds.SetHoldStatus(ctx, holdID, model.HoldActive, model.HoldExpired)
		return nil, ErrHoldExpired
	}

	ticket, err := ticketNumber()
	if err != nil {
		return nil, err
	}
	res := &model.Reservation{
		ID:           uuid.NewString(),
		HoldID:       holdID,
		TripID:       h.TripID,
		SeatLabels:   append([]string(nil), h.SeatLabels...),
		Payer:        h.Requester,
		AmountCents:  amountCents,
		PaymentRef:   paymentRef,
		TicketNumber: ticket,
		Status:       model.ReservationConfirmed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	ok, err := l.reservations.ConvertHold(ctx, holdID, res)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race before we took the lock; classify from the
		// hold's current status.
		cur, err := l.holds.GetHold(ctx, holdID)
		if err != nil {
			return nil, err
		}
		if cur.Status == model.HoldExpired {
			return nil, ErrHoldExpired
		}
		return nil, ErrHoldNotFound
	}
	return res, nil
}

// Cancel marks the reservation cancelled, releasing its seats back to
// availability.  Cancelling an already-cancelled reservation is a
// no-op, not an error.  The returned flag reports whether this call
// performed the transition, so callers can notify exactly once.
func (l *Ledger) Cancel(ctx context.Context, reservationID string) (bool, error) {
	res, err := l.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return false, err
	}
	if res.Status == model.ReservationCancelled {
		return false, nil
	}
	unlock := l.locks.Lock(res.TripID)
	defer unlock()
	return l.reservations.SetReservationStatus(ctx, reservationID, model.ReservationConfirmed, model.ReservationCancelled)
}

// Get returns a reservation by identifier.
func (l *Ledger) Get(ctx context.Context, reservationID string) (*model.Reservation, error) {
	return l.reservations.GetReservation(ctx, reservationID)
}

// ticketNumber issues a ticket number of the form TKT-XXXXXXXXXXXX.
// crypto/rand keeps the numbers unguessable; uniqueness is additionally
// enforced by the store.
func ticketNumber() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "TKT-" + strings.ToUpper(hex.EncodeToString(b)), nil
}
