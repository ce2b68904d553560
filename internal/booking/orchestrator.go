package booking

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/pkg/logger"
	"github.com/iliyamo/bus-seat-reservation/internal/pkg/metrics"
)

// PaymentProof is the opaque evidence of payment a caller presents when
// confirming a hold.  The core does not interpret it beyond handing it
// to the verifier.
type PaymentProof struct {
	Provider  string // payment provider name, e.g. "mtn"
	Reference string // provider transaction reference
	Signature string // provider signature over the payload
	Payload   []byte // raw payload the signature covers
}

// VerifiedPayment is the verifier's answer for an accepted proof.
type VerifiedPayment struct {
	AmountCents uint32
	Reference   string
}

// PaymentVerifier is the external payment collaborator.  The core
// treats it as a black-box gate: an error means the proof was rejected.
type PaymentVerifier interface {
	Verify(ctx context.Context, proof PaymentProof) (VerifiedPayment, error)
}

// Notifier is the external notification dispatcher.  Calls are
// fire-and-forget; failures never roll back a reservation.
type Notifier interface {
	BookingConfirmed(ctx context.Context, res *model.Reservation)
	BookingCancelled(ctx context.Context, res *model.Reservation)
}

// Orchestrator coordinates hold acquisition, payment confirmation and
// ledger commit/release.  It is the surface the API layer and the
// payment webhook call into.
type Orchestrator struct {
	holds    *HoldManager
	ledger   *Ledger
	verifier PaymentVerifier
	notifier Notifier
	metrics  *metrics.Metrics
}

// NewOrchestrator wires the orchestrator.  notifier and m may be nil.
func NewOrchestrator(holds *HoldManager, ledger *Ledger, verifier PaymentVerifier, notifier Notifier, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{holds: holds, ledger: ledger, verifier: verifier, notifier: notifier, metrics: m}
}

// SelectSeats acquires a hold on the requested seats.  A ConflictError
// surfaces to the caller as "seats no longer available".
func (o *Orchestrator) SelectSeats(ctx context.Context, tripID uint64, seatLabels []string, requester string) (*model.Hold, error) {
	return o.holds.Acquire(ctx, tripID, seatLabels, requester)
}

// ReleaseHold gives up a hold explicitly, freeing its seats.
func (o *Orchestrator) ReleaseHold(ctx context.Context, holdID string) error {
	return o.holds.Release(ctx, holdID)
}

// ConfirmPayment verifies the payment proof and converts the hold into
// a confirmed reservation.  Verification runs before any trip lock is
// taken – only the final commit step serializes on the trip.  On
// verification failure the hold is released immediately so a failed
// payer never blocks other users, and ErrPaymentFailed is returned.
// Confirming after the hold's TTL fails with ErrHoldExpired.
func (o *Orchestrator) ConfirmPayment(ctx context.Context, holdID string, proof PaymentProof) (*model.Reservation, error) {
	h, err := o.holds.Get(ctx, holdID)
	if err != nil {
		return nil, err
	}
	switch h.Status {
	case model.HoldConverted, model.HoldReleased:
		return nil, ErrHoldNotFound
	}
	if !h.Blocking(o.ledger.now()) {
		// TTL already passed; do not bother the payment collaborator.
		o.count("expired")
		return nil, ErrHoldExpired
	}

	verified, err := o.verifier.Verify(ctx, proof)
	if err != nil {
		if relErr := o.holds.Release(ctx, holdID); relErr != nil {
			logger.Error("release after failed payment",
				zap.String("hold_id", holdID), zap.Error(relErr))
		}
		o.count("payment_failed")
		return nil, fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}

	res, err := o.ledger.Commit(ctx, holdID, verified.AmountCents, verified.Reference)
	if err != nil {
		o.count(commitOutcome(err))
		return nil, err
	}
	o.count("confirmed")
	logger.Info("reservation confirmed",
		zap.String("reservation_id", res.ID),
		zap.String("ticket", res.TicketNumber),
		zap.Uint64("trip_id", res.TripID),
		zap.Strings("seats", res.SeatLabels))
	if o.notifier != nil {
		go o.notifier.BookingConfirmed(context.WithoutCancel(ctx), res)
	}
	return res, nil
}

// CancelReservation cancels a confirmed reservation, freeing its seats
// for new acquisition.  Cancelling twice is a no-op; the notification
// fires only on the first transition.
func (o *Orchestrator) CancelReservation(ctx context.Context, reservationID string) error {
	changed, err := o.ledger.Cancel(ctx, reservationID)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	o.count("cancelled")
	if o.notifier != nil {
		res, err := o.ledger.Get(ctx, reservationID)
		if err == nil {
			go o.notifier.BookingCancelled(context.WithoutCancel(ctx), res)
		}
	}
	return nil
}

// GetReservation returns a reservation by identifier.
func (o *Orchestrator) GetReservation(ctx context.Context, reservationID string) (*model.Reservation, error) {
	return o.ledger.Get(ctx, reservationID)
}

func (o *Orchestrator) count(outcome string) {
	if o.metrics != nil {
		o.metrics.ReservationsTotal.WithLabelValues(outcome).Inc()
	}
}

// commitOutcome labels a failed ledger commit for the reservations
// metric: a hold expiring under us, a race lost to another confirmation
// or a store error are different operational signals.
func commitOutcome(err error) string {
	switch {
	case errors.Is(err, ErrHoldExpired):
		return "expired"
	case errors.Is(err, ErrHoldNotFound):
		return "lost_race"
	default:
		return "error"
	}
}
