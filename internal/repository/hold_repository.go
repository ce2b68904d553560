package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/bus-seat-reservation/internal/booking"
	"github.com/iliyamo/bus-seat-reservation/internal/model"
)

// HoldRepo provides data access to the holds and hold_seats tables.
// All timestamps are stored and compared in UTC.
type HoldRepo struct {
	db *sql.DB
}

// NewHoldRepo returns a HoldRepo bound to the provided database.
func NewHoldRepo(db *sql.DB) *HoldRepo { return &HoldRepo{db: db} }

// CreateHold inserts the hold and its seat set in one transaction.
func (r *HoldRepo) CreateHold(ctx context.Context, h *model.Hold) error {
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

	_, err = tx.ExecContext(ctx,
		`INSERT INTO holds (id, trip_id, requester, status, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		h.ID, h.TripID, h.Requester, string(h.Status), h.ExpiresAt.UTC(), h.CreatedAt.UTC(),
	)
	if err != nil {
		return err
	}

	query := `INSERT INTO hold_seats (hold_id, trip_id, seat_label) VALUES `
	args := make([]interface{}, 0, len(h.SeatLabels)*3)
	for i, label := range h.SeatLabels {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, h.ID, h.TripID, label)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetHold returns the hold with its seat set, or booking.ErrHoldNotFound.
func (r *HoldRepo) GetHold(ctx context.Context, id string) (*model.Hold, error) {
	const q = `SELECT id, trip_id, requester, status, expires_at, created_at
	           FROM holds WHERE id = ?`
	var h model.Hold
	var status string
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&h.ID, &h.TripID, &h.Requester, &status, &h.ExpiresAt, &h.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrHoldNotFound
	}
	if err != nil {
		return nil, err
	}
	h.Status = model.HoldStatus(status)

	rows, err := r.db.QueryContext(ctx,
		`SELECT seat_label FROM hold_seats WHERE hold_id = ? ORDER BY seat_label`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		h.SeatLabels = append(h.SeatLabels, l)
	}
	return &h, rows.Err()
}

// SetHoldStatus transitions the hold from one status to another using a
// conditional UPDATE.  It returns false when the hold exists but was
// not in the expected status.
func (r *HoldRepo) SetHoldStatus(ctx context.Context, id string, from, to model.HoldStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE holds SET status = ? WHERE id = ? AND status = ?`,
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
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM holds WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, booking.ErrHoldNotFound
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// BlockingSeats returns the seats of all ACTIVE holds on the trip whose
// expiry lies after now.  Past-expiry holds never count, whether or not
// a sweep has transitioned them yet.
func (r *HoldRepo) BlockingSeats(ctx context.Context, tripID uint64, now time.Time) (map[string]struct{}, error) {
	const q = `SELECT hs.seat_label
	           FROM hold_seats hs
	           JOIN holds h ON h.id = hs.hold_id
	           WHERE h.trip_id = ? AND h.status = 'ACTIVE' AND h.expires_at > ?`
	rows, err := r.db.QueryContext(ctx, q, tripID, now.UTC())
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

// ExpireDue transitions every ACTIVE hold whose expiry has passed to
// EXPIRED and returns the number of rows changed.  A single UPDATE
// keeps the sweep atomic without touching per-trip locks.
func (r *HoldRepo) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE holds SET status = 'EXPIRED' WHERE status = 'ACTIVE' AND expires_at <= ?`,
		now.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
