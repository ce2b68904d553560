package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/bus-seat-reservation/internal/booking"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// ReservationRepo provides data access to the reservations and
// reservation_seats tables, including the atomic hold conversion.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// ConvertHold atomically marks the hold CONVERTED and inserts the
// reservation with its seat set.  The conditional UPDATE guards the
// transition: when the hold is no longer ACTIVE nothing is written and
// false is returned.  booking.ErrHoldNotFound is returned for an
// unknown hold.
func (r *ReservationRepo) ConvertHold(ctx context.Context, holdID string, res *model.Reservation) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	upd, err := tx.ExecContext(ctx,
		`UPDATE holds SET status = 'CONVERTED' WHERE id = ? AND status = 'ACTIVE'`, holdID)
	if err != nil {
		return false, err
	}
	n, err := upd.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM holds WHERE id = ?`, holdID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return false, booking.ErrHoldNotFound
		}
		if err != nil {
			return false, err
		}
		return false, nil
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO reservations
		 (id, hold_id, trip_id, payer, amount_cents, payment_ref, ticket_number, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ID, res.HoldID, res.TripID, res.Payer, res.AmountCents, res.PaymentRef,
		res.TicketNumber, string(res.Status), res.CreatedAt.UTC(), res.UpdatedAt.UTC(),
	)
	if err != nil {
		return false, err
	}

	query := `INSERT INTO reservation_seats (reservation_id, trip_id, seat_label) VALUES `
	args := make([]interface{}, 0, len(res.SeatLabels)*3)
	for i, label := range res.SeatLabels {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, res.ID, res.TripID, label)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return true, nil
}

// GetReservation returns the reservation with its seat set, or
// booking.ErrReservationNotFound.
func (r *ReservationRepo) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	const q = `SELECT id, hold_id, trip_id, payer, amount_cents, payment_ref,
	                  ticket_number, status, created_at, updated_at
	           FROM reservations WHERE id = ?`
	var res model.Reservation
	var status string
	var paymentRef sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&res.ID, &res.HoldID, &res.TripID, &res.Payer, &res.AmountCents, &paymentRef,
		&res.TicketNumber, &status, &res.CreatedAt, &res.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	res.Status = model.ReservationStatus(status)
	res.PaymentRef = paymentRef.String

	rows, err := r.db.QueryContext(ctx,
		`SELECT seat_label FROM reservation_seats WHERE reservation_id = ? ORDER BY seat_label`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		res.SeatLabels = append(res.SeatLabels, l)
	}
	return &res, rows.Err()
}

// SetReservationStatus transitions the reservation between statuses
// using a conditional UPDATE, returning false when it was not in the
// expected status.
func (r *ReservationRepo) SetReservationStatus(ctx context.Context, id string, from, to model.ReservationStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET status = ?, updated_at = NOW(3) WHERE id = ? AND status = ?`,
		string(to), id, string(from),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM reservations WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, booking.ErrReservationNotFound
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// ConfirmedSeats returns the seats of all CONFIRMED reservations on the
// trip.
func (r *ReservationRepo) ConfirmedSeats(ctx context.Context, tripID uint64) (map[string]struct{}, error) {
	const q = `SELECT rs.seat_label
	           FROM reservation_seats rs
	           JOIN reservations res ON res.id = rs.reservation_id
	           WHERE res.trip_id = ? AND res.status = 'CONFIRMED'`
	rows, err := r.db.QueryContext(ctx, q, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make(map[string]struct{})
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		seats[l] = struct{}{}
	}
	return seats, rows.Err()
}
