package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

func TestCommitHold(t *testing.T) {
	_, manager, ledger := newTestCore(10*time.Minute, "A1", "A2")
	ctx := context.Background()

	h, err := manager.Acquire(ctx, 1, []string{"A1", "A2"}, "alice")
	require.NoError(t, err)

	res, err := ledger.Commit(ctx, h.ID, 25000, "FLW-123")
	require.NoError(t, err)
	assert.Equal(t, model.ReservationConfirmed, res.Status)
	assert.Equal(t, h.ID, res.HoldID)
	assert.Equal(t, []string{"A1", "A2"}, res.SeatLabels)
	assert.Equal(t, "alice", res.Payer)
	assert.Equal(t, uint32(25000), res.AmountCents)
	assert.Equal(t, "FLW-123", res.PaymentRef)
	assert.Regexp(t, `^TKT-[0-9A-F]{12}$`, res.TicketNumber)

	// Converted seats stay unavailable.
	_, err = manager.Acquire(ctx, 1, []string{"A1"}, "bob")
	_, ok := IsConflict(err)
	assert.True(t, ok)
}

func TestCommitTwice(t *testing.T) {
	_, manager, ledger := newTestCore(10*time.Minute, "A1")
	ctx := context.Background()

	h, err := manager.Acquire(ctx, 1, []string{"A1"}, "alice")
	require.NoError(t, err)
	_, err = ledger.Commit(ctx, h.ID, 10000, "ref-1")
	require.NoError(t, err)

	_, err = ledger.Commit(ctx, h.ID, 10000, "ref-2")
	assert.ErrorIs(t, err, ErrHoldNotFound)
}

func TestCommitExpiredHold(t *testing.T) {
	store, manager, ledger := newTestCore(time.Minute, "A1")
	ctx := context.Background()
	base := time.Now()
	setClock(manager, ledger, func() time.Time { return base })

	h, err := manager.Acquire(ctx, 1, []string{"A1"}, "alice")
	require.NoError(t, err)

	setClock(manager, ledger, func() time.Time { return base.Add(2 * time.Minute) })
	_, err = ledger.Commit(ctx, h.ID, 10000, "ref")
	assert.ErrorIs(t, err, ErrHoldExpired)

	// The failed commit persists the expiry.
	got, err := store.GetHold(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, model.HoldExpired, got.Status)
}

func TestCommitReleasedHold(t *testing.T) {
	_, manager, ledger := newTestCore(10*time.Minute, "A1")
	ctx := context.Background()

	h, err := manager.Acquire(ctx, 1, []string{"A1"}, "alice")
	require.NoError(t, err)
	require.NoError(t, manager.Release(ctx, h.ID))

	_, err = ledger.Commit(ctx, h.ID, 10000, "ref")
	assert.ErrorIs(t, err, ErrHoldNotFound)
}

func TestCancelReservation(t *testing.T) {
	_, manager, ledger := newTestCore(10*time.Minute, "A1")
	ctx := context.Background()

	h, err := manager.Acquire(ctx, 1, []string{"A1"}, "alice")
	require.NoError(t, err)
	res, err := ledger.Commit(ctx, h.ID, 10000, "ref")
	require.NoError(t, err)

	changed, err := ledger.Cancel(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	// Cancelling again changes nothing.
	changed, err = ledger.Cancel(ctx, res.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	// The seat is available again.
	_, err = manager.Acquire(ctx, 1, []string{"A1"}, "bob")
	assert.NoError(t, err)
}

func TestCancelUnknownReservation(t *testing.T) {
	_, _, ledger := newTestCore(10*time.Minute, "A1")
	_, err := ledger.Cancel(context.Background(), "no-such-reservation")
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestSnapshotUnionsHoldsAndReservations(t *testing.T) {
	_, manager, ledger := newTestCore(10*time.Minute, "A1", "A2", "A3", "A4")
	ctx := context.Background()

	h1, err := manager.Acquire(ctx, 1, []string{"A1"}, "alice")
	require.NoError(t, err)
	_, err = ledger.Commit(ctx, h1.ID, 10000, "ref")
	require.NoError(t, err)
	_, err = manager.Acquire(ctx, 1, []string{"A2"}, "bob")
	require.NoError(t, err)

	snap, err := ledger.Snapshot(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, snap, 2)
	assert.Contains(t, snap, "A1")
	assert.Contains(t, snap, "A2")
}
