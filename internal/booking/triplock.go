package booking

import "sync"

// TripLocks is a sharded lock registry keyed by trip identifier.  Every
// mutating operation on a trip's seat state (acquire, commit, cancel)
// takes the trip's write lock; availability snapshots take the read
// lock so concurrent readers see a consistent view without blocking
// each other.  Locks are per trip, never global, so operations on
// different trips do not contend.
type TripLocks struct {
	mu    sync.Mutex
	locks map[uint64]*sync.RWMutex
}

// NewTripLocks returns an empty lock registry.
func NewTripLocks() *TripLocks {
	return &TripLocks{locks: make(map[uint64]*sync.RWMutex)}
}

// forTrip returns the lock for a trip, creating it on first use.  Locks
// are never evicted; the registry is bounded by the number of trips
// touched by this process.
func (t *TripLocks) forTrip(tripID uint64) *sync.RWMutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[tripID]
	if !ok {
		l = &sync.RWMutex{}
		t.locks[tripID] = l
	}
	return l
}

// Lock takes the trip's write lock and returns the matching unlock.
func (t *TripLocks) Lock(tripID uint64) func() {
	l := t.forTrip(tripID)
	l.Lock()
	return l.Unlock
}

// RLock takes the trip's read lock and returns the matching unlock.
func (t *TripLocks) RLock(tripID uint64) func() {
	l := t.forTrip(tripID)
	l.RLock()
	return l.RUnlock
}
