package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTripLocksIndependentTrips(t *testing.T) {
	locks := NewTripLocks()

	unlock1 := locks.Lock(1)
	defer unlock1()

	// A different trip's lock must be acquirable while trip 1 is held.
	done := make(chan struct{})
	go func() {
		unlock2 := locks.Lock(2)
		unlock2()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for trip 2 blocked on trip 1")
	}
}

func TestTripLocksWriterExcludesReaders(t *testing.T) {
	locks := NewTripLocks()

	unlock := locks.Lock(1)
	acquired := make(chan struct{})
	go func() {
		runlock := locks.RLock(1)
		runlock()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("read lock acquired while write lock held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("read lock never acquired after write unlock")
	}
}

func TestTripLocksConcurrentReaders(t *testing.T) {
	locks := NewTripLocks()

	r1 := locks.RLock(1)
	done := make(chan struct{})
	go func() {
		r2 := locks.RLock(1)
		r2()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second reader blocked by first")
	}
	r1()
}

func TestTripLocksSameLockReturned(t *testing.T) {
	locks := NewTripLocks()
	assert.Same(t, locks.forTrip(7), locks.forTrip(7))
	assert.NotSame(t, locks.forTrip(7), locks.forTrip(8))
}
