// Package repository implements the durable stores on MySQL using the
// standard database/sql interfaces.  Multi-statement writes run inside
// transactions; callers above provide per-trip serialization.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/bus-seat-reservation/internal/booking"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// TripRepo provides access to trips and their seat maps.  It backs the
// booking core's seat map registry and the fleet ingestion endpoint.
type TripRepo struct {
	db *sql.DB
}

// NewTripRepo returns a TripRepo bound to the provided database.
func NewTripRepo(db *sql.DB) *TripRepo { return &TripRepo{db: db} }

// Create inserts a trip together with its seat map in one transaction.
// Seat labels are stored in the given order; capacity is derived from
// the label count.  On success the trip's ID is populated.
func (r *TripRepo) Create(ctx context.Context, t *model.Trip, seatLabels []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO trips (route_id, bus_id, departure_time, capacity) VALUES (?, ?, ?, ?)`,
		t.RouteID, t.BusID, t.DepartureTime.UTC(), len(seatLabels),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	t.Capacity = len(seatLabels)

	if len(seatLabels) > 0 {
		query := `INSERT INTO seats (trip_id, label, pos) VALUES `
		args := make([]interface{}, 0, len(seatLabels)*3)
		for i, label := range seatLabels {
			if i > 0 {
				query += ","
			}
			query += "(?, ?, ?)"
			args = append(args, t.ID, label, i)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetTrip returns a trip by ID or booking.ErrTripNotFound.
func (r *TripRepo) GetTrip(ctx context.Context, tripID uint64) (*model.Trip, error) {
	const q = `SELECT id, route_id, bus_id, departure_time, capacity, created_at
	           FROM trips WHERE id = ?`
	var t model.Trip
	err := r.db.QueryRowContext(ctx, q, tripID).Scan(
		&t.ID, &t.RouteID, &t.BusID, &t.DepartureTime, &t.Capacity, &t.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrTripNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// SeatLabels returns the trip's seat labels in seat-map order, or
// booking.ErrTripNotFound when the trip does not exist.
func (r *TripRepo) SeatLabels(ctx context.Context, tripID uint64) ([]string, error) {
	// An empty result is ambiguous between "no seats" and "no trip",
	// so verify existence first.
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM trips WHERE id = ?`, tripID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrTripNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT label FROM seats WHERE trip_id = ? ORDER BY pos, label`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var labels []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// ListUpcoming returns trips departing at or after the given instant,
// soonest first, up to limit rows.
func (r *TripRepo) ListUpcoming(ctx context.Context, after time.Time, limit int) ([]model.Trip, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const q = `SELECT id, route_id, bus_id, departure_time, capacity, created_at
	           FROM trips WHERE departure_time >= ? ORDER BY departure_time LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, after.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var trips []model.Trip
	for rows.Next() {
		var t model.Trip
		if err := rows.Scan(&t.ID, &t.RouteID, &t.BusID, &t.DepartureTime, &t.Capacity, &t.CreatedAt); err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}
