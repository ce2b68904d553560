package booking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
	"github.com/iliyamo/bus-seat-reservation/internal/pkg/logger"
	"github.com/iliyamo/bus-seat-reservation/internal/pkg/metrics"
)

// TripLocker is an optional cross-instance lock around a trip's
// critical section.  When the service runs as a single process the
// in-process TripLocks registry is sufficient and this may be nil.
type TripLocker interface {
	// Acquire obtains the lock for the trip, returning the matching
	// release function.  Implementations retry briefly and return an
	// error when the lock cannot be obtained.
	Acquire(ctx context.Context, tripID uint64, ttl time.Duration) (func(context.Context), error)
}

// HoldManager issues time-bounded provisional holds on seats.  The
// availability check and hold creation form one atomic critical
// section per trip: the manager takes the trip's write lock (and the
// cross-instance lock when configured), computes the unavailable set
// through the ledger and creates the hold only if no requested seat
// overlaps it.
type HoldManager struct {
	registry *SeatMapRegistry
	ledger   *Ledger
	holds    HoldStore
	locks    *TripLocks
	dist     TripLocker
	ttl      time.Duration
	now      func() time.Time
	metrics  *metrics.Metrics
}

// distLockTTL bounds how long a crashed instance can keep a trip's
// cross-instance lock.  The critical section itself is a few store
// round-trips, never a payment call.
const distLockTTL = 5 * time.Second

// NewHoldManager constructs a hold manager.  ttl is the hold TTL, a
// business parameter supplied by configuration.  dist and m may be nil.
func NewHoldManager(registry *SeatMapRegistry, ledger *Ledger, holds HoldStore, locks *TripLocks, dist TripLocker, ttl time.Duration, m *metrics.Metrics) *HoldManager {
	return &HoldManager{
		registry: registry,
		ledger:   ledger,
		holds:    holds,
		locks:    locks,
		dist:     dist,
		ttl:      ttl,
		now:      time.Now,
		metrics:  m,
	}
}

// TTL returns the configured hold time-to-live.
func (m *HoldManager) TTL() time.Duration { return m.ttl }

// Acquire validates every requested seat label against the trip's seat
// map, then atomically checks that none of the seats intersect the
// current unavailable set and creates the hold with expiry now+TTL.
// On any overlap it fails with a ConflictError listing the conflicting
// seats; no partial hold is ever created.
func (m *HoldManager) Acquire(ctx context.Context, tripID uint64, seatLabels []string, requester string) (*model.Hold, error) {
	labels := dedupe(seatLabels)
	if len(labels) == 0 {
		return nil, fmt.Errorf("%w: no seats requested", ErrSeatUnknown)
	}

	seatmap, err := m.registry.Seats(ctx, tripID)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(seatmap))
	for _, s := range seatmap {
		known[s] = struct{}{}
	}
	for _, s := range labels {
		if _, ok := known[s]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrSeatUnknown, s)
		}
	}

	unlock := m.locks.Lock(tripID)
	defer unlock()
	if m.dist != nil {
		release, err := m.dist.Acquire(ctx, tripID, distLockTTL)
		if err != nil {
			m.count("busy")
			return nil, err
		}
		defer release(ctx)
	}

	now := m.now()
	unavailable, err := m.ledger.unavailableLocked(ctx, tripID, now)
	if err != nil {
		return nil, err
	}
	var conflicts []string
	for _, s := range labels {
		if _, taken := unavailable[s]; taken {
			conflicts = append(conflicts, s)
		}
	}
	if len(conflicts) > 0 {
		sort.Strings(conflicts)
		m.count("conflict")
		return nil, &ConflictError{Seats: conflicts}
	}

	h := &model.Hold{
		ID:         uuid.NewString(),
		TripID:     tripID,
		SeatLabels: labels,
		Requester:  requester,
		Status:     model.HoldActive,
		ExpiresAt:  now.Add(m.ttl),
		CreatedAt:  now,
	}
	if err := m.holds.CreateHold(ctx, h); err != nil {
		return nil, err
	}
	m.count("acquired")
	logger.Debug("hold acquired",
		zap.String("hold_id", h.ID),
		zap.Uint64("trip_id", tripID),
		zap.Strings("seats", labels),
		zap.Time("expires_at", h.ExpiresAt))
	return h, nil
}

// Get returns a hold by identifier.
func (m *HoldManager) Get(ctx context.Context, holdID string) (*model.Hold, error) {
	return m.holds.GetHold(ctx, holdID)
}

// Release marks the hold released, freeing its seats.  Releasing a
// hold that is already released, expired or converted is a no-op;
// an unknown hold yields ErrHoldNotFound.
func (m *HoldManager) Release(ctx context.Context, holdID string) error {
	h, err := m.holds.GetHold(ctx, holdID)
	if err != nil {
		return err
	}
	if h.Status != model.HoldActive {
		return nil
	}
	unlock := m.locks.Lock(h.TripID)
	defer unlock()
	if _, err := m.holds.SetHoldStatus(ctx, holdID, model.HoldActive, model.HoldReleased); err != nil {
		return err
	}
	m.count("released")
	return nil
}

// SweepExpired transitions every active hold whose expiry has passed to
// EXPIRED and returns the count.  The sweep only persists what the
// availability checks already treat as fact: BlockingSeats ignores
// past-expiry holds regardless of their stored status.
func (m *HoldManager) SweepExpired(ctx context.Context) (int64, error) {
	n, err := m.holds.ExpireDue(ctx, m.now())
	if err != nil {
		return 0, err
	}
	if n > 0 && m.metrics != nil {
		m.metrics.ExpiredHoldsSwept.Add(float64(n))
	}
	return n, nil
}

func (m *HoldManager) count(result string) {
	if m.metrics != nil {
		m.metrics.HoldAttempts.WithLabelValues(result).Inc()
	}
}

// dedupe drops empty and duplicate labels, preserving request order.
func dedupe(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, s := range labels {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
