package booking

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// memStore is an in-memory implementation of TripStore, HoldStore and
// ReservationStore used across the package tests.  It mirrors the
// contract of the SQL repositories, including the conditional status
// transitions, so the core can be exercised without a database.
type memStore struct {
	mu           sync.Mutex
	trips        map[uint64][]string
	holds        map[string]*model.Hold
	reservations map[string]*model.Reservation
}

func newMemStore() *memStore {
	return &memStore{
		trips:        make(map[uint64][]string),
		holds:        make(map[string]*model.Hold),
		reservations: make(map[string]*model.Reservation),
	}
}

func (s *memStore) addTrip(tripID uint64, labels ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trips[tripID] = labels
}

func (s *memStore) GetTrip(_ context.Context, tripID uint64) (*model.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	labels, ok := s.trips[tripID]
	if !ok {
		return nil, ErrTripNotFound
	}
	return &model.Trip{ID: tripID, Capacity: len(labels)}, nil
}

func (s *memStore) SeatLabels(_ context.Context, tripID uint64) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	labels, ok := s.trips[tripID]
	if !ok {
		return nil, ErrTripNotFound
	}
	return append([]string(nil), labels...), nil
}

func (s *memStore) CreateHold(_ context.Context, h *model.Hold) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *h
	cp.SeatLabels = append([]string(nil), h.SeatLabels...)
	s.holds[h.ID] = &cp
	return nil
}

func (s *memStore) GetHold(_ context.Context, id string) (*model.Hold, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holds[id]
	if !ok {
		return nil, ErrHoldNotFound
	}
	cp := *h
	cp.SeatLabels = append([]string(nil), h.SeatLabels...)
	return &cp, nil
}

func (s *memStore) SetHoldStatus(_ context.Context, id string, from, to model.HoldStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holds[id]
	if !ok {
		return false, ErrHoldNotFound
	}
	if h.Status != from {
		return false, nil
	}
	h.Status = to
	return true, nil
}

func (s *memStore) BlockingSeats(_ context.Context, tripID uint64, now time.Time) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]struct{})
	for _, h := range s.holds {
		if h.TripID != tripID || h.Status != model.HoldActive || !now.Before(h.ExpiresAt) {
			continue
		}
		for _, seat := range h.SeatLabels {
			out[seat] = struct{}{}
		}
	}
	return out, nil
}

func (s *memStore) ExpireDue(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, h := range s.holds {
		if h.Status == model.HoldActive && !now.Before(h.ExpiresAt) {
			h.Status = model.HoldExpired
			n++
		}
	}
	return n, nil
}

func (s *memStore) ConvertHold(_ context.Context, holdID string, res *model.Reservation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.holds[holdID]
	if !ok {
		return false, ErrHoldNotFound
	}
	if h.Status != model.HoldActive {
		return false, nil
	}
	h.Status = model.HoldConverted
	cp := *res
	cp.SeatLabels = append([]string(nil), res.SeatLabels...)
	s.reservations[res.ID] = &cp
	return true, nil
}

func (s *memStore) GetReservation(_ context.Context, id string) (*model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, ErrReservationNotFound
	}
	cp := *r
	cp.SeatLabels = append([]string(nil), r.SeatLabels...)
	return &cp, nil
}

func (s *memStore) SetReservationStatus(_ context.Context, id string, from, to model.ReservationStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return false, ErrReservationNotFound
	}
	if r.Status != from {
		return false, nil
	}
	r.Status = to
	return true, nil
}

func (s *memStore) ConfirmedSeats(_ context.Context, tripID uint64) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]struct{})
	for _, r := range s.reservations {
		if r.TripID != tripID || r.Status != model.ReservationConfirmed {
			continue
		}
		for _, seat := range r.SeatLabels {
			out[seat] = struct{}{}
		}
	}
	return out, nil
}

// newTestCore wires a hold manager and ledger over a fresh memStore with
// one trip.  The returned clock function can be swapped on both to
// simulate the passage of time.
func newTestCore(ttl time.Duration, seats ...string) (*memStore, *HoldManager, *Ledger) {
	store := newMemStore()
	store.addTrip(1, seats...)
	locks := NewTripLocks()
	ledger := NewLedger(store, store, locks)
	manager := NewHoldManager(NewSeatMapRegistry(store), ledger, store, locks, nil, ttl, nil)
	return store, manager, ledger
}

func setClock(m *HoldManager, l *Ledger, now func() time.Time) {
	m.now = now
	l.now = now
}
