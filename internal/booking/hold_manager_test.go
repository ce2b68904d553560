package booking

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

func TestAcquireHold(t *testing.T) {
	_, manager, _ := newTestCore(10*time.Minute, "A1", "A2", "A3", "B1")
	ctx := context.Background()

	h, err := manager.Acquire(ctx, 1, []string{"A1", "A2"}, "alice")
	require.NoError(t, err)
	assert.Equal(t, model.HoldActive, h.Status)
	assert.Equal(t, []string{"A1", "A2"}, h.SeatLabels)
	assert.Equal(t, "alice", h.Requester)
	assert.True(t, h.ExpiresAt.After(h.CreatedAt))
}

func TestAcquireDeduplicatesLabels(t *testing.T) {
	_, manager, _ := newTestCore(10*time.Minute, "A1", "A2")

	h, err := manager.Acquire(context.Background(), 1, []string{"A1", "A1", "A2"}, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2"}, h.SeatLabels)
}

func TestAcquireUnknownTrip(t *testing.T) {
	_, manager, _ := newTestCore(10*time.Minute, "A1")

	_, err := manager.Acquire(context.Background(), 99, []string{"A1"}, "alice")
	assert.ErrorIs(t, err, ErrTripNotFound)
}

func TestAcquireUnknownSeat(t *testing.T) {
	_, manager, _ := newTestCore(10*time.Minute, "A1", "A2")

	_, err := manager.Acquire(context.Background(), 1, []string{"A1", "Z9"}, "alice")
	assert.ErrorIs(t, err, ErrSeatUnknown)
}

func TestAcquirePartialOverlapConflict(t *testing.T) {
	_, manager, _ := newTestCore(10*time.Minute, "A1", "A2", "A3")
	ctx := context.Background()

	_, err := manager.Acquire(ctx, 1, []string{"A1", "A2"}, "alice")
	require.NoError(t, err)

	_, err = manager.Acquire(ctx, 1, []string{"A2", "A3"}, "bob")
	ce, ok := IsConflict(err)
	require.True(t, ok, "expected a conflict, got %v", err)
	assert.Equal(t, []string{"A2"}, ce.Seats)

	// A3 was not part of the conflict and must still be acquirable.
	h, err := manager.Acquire(ctx, 1, []string{"A3"}, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"A3"}, h.SeatLabels)
}

func TestAcquireDisjointSetsBothSucceed(t *testing.T) {
	_, manager, _ := newTestCore(10*time.Minute, "A1", "A2", "B1", "B2")
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = manager.Acquire(ctx, 1, []string{"A1", "A2"}, "alice")
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = manager.Acquire(ctx, 1, []string{"B1", "B2"}, "bob")
	}()
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
}

// Many goroutines race for overlapping random seat sets; afterwards no
// seat may belong to more than one active hold.
func TestConcurrentAcquireDisjointness(t *testing.T) {
	seats := make([]string, 20)
	for i := range seats {
		seats[i] = fmt.Sprintf("S%02d", i+1)
	}
	store, manager, _ := newTestCore(10*time.Minute, seats...)
	ctx := context.Background()

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(w int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(w)))
			want := make([]string, 0, 3)
			for _, i := range rng.Perm(len(seats))[:1+rng.Intn(3)] {
				want = append(want, seats[i])
			}
			_, err := manager.Acquire(ctx, 1, want, fmt.Sprintf("user-%d", w))
			if err != nil {
				if _, ok := IsConflict(err); !ok {
					t.Errorf("worker %d: unexpected error %v", w, err)
				}
			}
		}(w)
	}
	wg.Wait()

	owners := make(map[string]string)
	store.mu.Lock()
	defer store.mu.Unlock()
	for id, h := range store.holds {
		if h.Status != model.HoldActive {
			continue
		}
		for _, seat := range h.SeatLabels {
			if prev, taken := owners[seat]; taken {
				t.Fatalf("seat %s held by both %s and %s", seat, prev, id)
			}
			owners[seat] = id
		}
	}
}

func TestExpiredHoldFreesSeats(t *testing.T) {
	_, manager, ledger := newTestCore(5*time.Minute, "A1", "A2")
	ctx := context.Background()
	base := time.Now()
	setClock(manager, ledger, func() time.Time { return base })

	_, err := manager.Acquire(ctx, 1, []string{"A1"}, "alice")
	require.NoError(t, err)

	// Before the TTL the seat is blocked.
	_, err = manager.Acquire(ctx, 1, []string{"A1"}, "bob")
	_, ok := IsConflict(err)
	require.True(t, ok)

	// Past the TTL the seat frees up with no sweep having run.
	setClock(manager, ledger, func() time.Time { return base.Add(5*time.Minute + time.Second) })
	h, err := manager.Acquire(ctx, 1, []string{"A1"}, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", h.Requester)
}

func TestReleaseHold(t *testing.T) {
	store, manager, _ := newTestCore(10*time.Minute, "A1")
	ctx := context.Background()

	h, err := manager.Acquire(ctx, 1, []string{"A1"}, "alice")
	require.NoError(t, err)

	require.NoError(t, manager.Release(ctx, h.ID))
	got, err := store.GetHold(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, model.HoldReleased, got.Status)

	// Releasing again is a no-op, and the seat is free.
	require.NoError(t, manager.Release(ctx, h.ID))
	_, err = manager.Acquire(ctx, 1, []string{"A1"}, "bob")
	assert.NoError(t, err)
}

func TestReleaseUnknownHold(t *testing.T) {
	_, manager, _ := newTestCore(10*time.Minute, "A1")
	err := manager.Release(context.Background(), "no-such-hold")
	assert.ErrorIs(t, err, ErrHoldNotFound)
}

func TestSweepExpired(t *testing.T) {
	store, manager, ledger := newTestCore(time.Minute, "A1", "A2", "A3")
	ctx := context.Background()
	base := time.Now()
	setClock(manager, ledger, func() time.Time { return base })

	h1, err := manager.Acquire(ctx, 1, []string{"A1"}, "alice")
	require.NoError(t, err)
	h2, err := manager.Acquire(ctx, 1, []string{"A2"}, "bob")
	require.NoError(t, err)

	setClock(manager, ledger, func() time.Time { return base.Add(2 * time.Minute) })
	n, err := manager.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for _, id := range []string{h1.ID, h2.ID} {
		got, err := store.GetHold(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.HoldExpired, got.Status)
	}

	// A second sweep finds nothing.
	n, err = manager.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
