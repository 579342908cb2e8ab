package store

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/panaview/reservation-engine/internal/model"
)

// MySQL is the production seat store backed by the seat_status, bookings
// and booking_seats tables.  Every transition is a single conditional
// UPDATE guarded by the current status, so the database adjudicates races:
// exactly one of two concurrent writers observes RowsAffected == 1.
type MySQL struct {
    db      *sql.DB
    holdTTL time.Duration // 0 disables hold expiry
}

// Option configures optional MySQL store behavior.
type Option func(*MySQL)

// WithHoldTTL enables hold expiry: holds older than d are reclaimed to
// AVAILABLE the next time a write touches their showtime.  Holds never
// expire when the TTL is zero, which is the default; a stale hold then
// persists until Release, Commit or Abandon.
func WithHoldTTL(d time.Duration) Option {
    return func(s *MySQL) {
        if d > 0 {
            s.holdTTL = d
        }
    }
}

// NewMySQL returns a MySQL-backed store bound to the given database.
func NewMySQL(db *sql.DB, opts ...Option) *MySQL {
    s := &MySQL{db: db}
    for _, opt := range opts {
        opt(s)
    }
    return s
}

// ListSeats returns all seat rows of the showtime ordered by row label then
// column.  It reads outside any transaction so it never blocks writers.
func (s *MySQL) ListSeats(ctx context.Context, showtimeID uint64) ([]model.Seat, error) {
    const q = `SELECT showtime_id, seat_id, row_label, seat_col, status, holder_token, held_at
               FROM seat_status
               WHERE showtime_id = ?
               ORDER BY row_label, seat_col`
    rows, err := s.db.QueryContext(ctx, q, showtimeID)
    if err != nil {
        return nil, unavailable("list seats", err)
    }
    defer rows.Close()
    var seats []model.Seat
    for rows.Next() {
        var st model.Seat
        var holder sql.NullString
        var heldAt sql.NullTime
        if err := rows.Scan(&st.ShowtimeID, &st.SeatID, &st.RowLabel, &st.SeatCol, &st.Status, &holder, &heldAt); err != nil {
            return nil, unavailable("list seats", err)
        }
        if holder.Valid {
            h := holder.String
            st.HolderToken = &h
        }
        if heldAt.Valid {
            t := heldAt.Time
            st.HeldAt = &t
        }
        seats = append(seats, st)
    }
    if err := rows.Err(); err != nil {
        return nil, unavailable("list seats", err)
    }
    return seats, nil
}

// TryHold atomically claims an AVAILABLE seat for the holder.  The status
// check and the write are one statement, so reading the value first and
// deciding in Go is never needed (and would reintroduce the race).
func (s *MySQL) TryHold(ctx context.Context, showtimeID, seatID uint64, holder string) error {
    if s.holdTTL > 0 {
        if err := s.reclaimExpired(ctx, showtimeID); err != nil {
            return err
        }
    }
    const q = `UPDATE seat_status
               SET status = ?, holder_token = ?, held_at = UTC_TIMESTAMP()
               WHERE showtime_id = ? AND seat_id = ? AND status = ?`
    res, err := s.db.ExecContext(ctx, q, model.StatusHeld, holder, showtimeID, seatID, model.StatusAvailable)
    if err != nil {
        return unavailable("try hold", err)
    }
    if n, _ := res.RowsAffected(); n == 1 {
        return nil
    }
    // The seat was not AVAILABLE.  Distinguish a missing row from a
    // genuine conflict for the caller's error message.
    var status string
    err = s.db.QueryRowContext(ctx,
        `SELECT status FROM seat_status WHERE showtime_id = ? AND seat_id = ?`,
        showtimeID, seatID,
    ).Scan(&status)
    if errors.Is(err, sql.ErrNoRows) {
        return ErrSeatNotFound
    }
    if err != nil {
        return unavailable("try hold", err)
    }
    return ErrSeatConflict
}

// Release returns a held seat to AVAILABLE, but only when the recorded
// holder matches the caller.
func (s *MySQL) Release(ctx context.Context, showtimeID, seatID uint64, holder string) error {
    const q = `UPDATE seat_status
               SET status = ?, holder_token = NULL, held_at = NULL
               WHERE showtime_id = ? AND seat_id = ? AND status = ? AND holder_token = ?`
    res, err := s.db.ExecContext(ctx, q, model.StatusAvailable, showtimeID, seatID, model.StatusHeld, holder)
    if err != nil {
        return unavailable("release", err)
    }
    if n, _ := res.RowsAffected(); n == 1 {
        return nil
    }
    var exists int
    err = s.db.QueryRowContext(ctx,
        `SELECT 1 FROM seat_status WHERE showtime_id = ? AND seat_id = ?`,
        showtimeID, seatID,
    ).Scan(&exists)
    if errors.Is(err, sql.ErrNoRows) {
        return ErrSeatNotFound
    }
    if err != nil {
        return unavailable("release", err)
    }
    return ErrNotHeldByYou
}

// Commit re-validates every seat against current persisted state and sells
// the ones still held by the session.  Transitions and the booking insert
// share one transaction so the sale is durable as a unit, but the
// semantics are seat-granular: seats whose hold was lost are reported and
// left untouched while the rest are sold.
func (s *MySQL) Commit(ctx context.Context, showtimeID uint64, seatIDs []uint64, holder string) (*model.Booking, error) {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, unavailable("commit", err)
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if s.holdTTL > 0 {
        if err := s.reclaimExpiredTx(ctx, tx, showtimeID); err != nil {
            return nil, err
        }
    }

    const q = `UPDATE seat_status
               SET status = ?, holder_token = NULL, held_at = NULL
               WHERE showtime_id = ? AND seat_id = ? AND status = ? AND holder_token = ?`
    sold := make([]uint64, 0, len(seatIDs))
    var lost []uint64
    for _, seatID := range seatIDs {
        res, err := tx.ExecContext(ctx, q, model.StatusSold, showtimeID, seatID, model.StatusHeld, holder)
        if err != nil {
            return nil, unavailable("commit", err)
        }
        if n, _ := res.RowsAffected(); n == 1 {
            sold = append(sold, seatID)
        } else {
            lost = append(lost, seatID)
        }
    }

    var booking *model.Booking
    if len(sold) > 0 {
        booking, err = s.insertBookingTx(ctx, tx, showtimeID, sold)
        if err != nil {
            return nil, err
        }
    }

    if err := tx.Commit(); err != nil {
        return nil, unavailable("commit", err)
    }
    committed = true

    if len(lost) > 0 {
        return booking, &PartialConflictError{Lost: lost}
    }
    return booking, nil
}

// insertBookingTx appends the booking and its seats.  Seat IDs are stored
// and returned in row/column order for deterministic output.
func (s *MySQL) insertBookingTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, seatIDs []uint64) (*model.Booking, error) {
    ordered, err := orderSeatsTx(ctx, tx, showtimeID, seatIDs)
    if err != nil {
        return nil, err
    }
    res, err := tx.ExecContext(ctx, `INSERT INTO bookings (showtime_id) VALUES (?)`, showtimeID)
    if err != nil {
        return nil, unavailable("insert booking", err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return nil, unavailable("insert booking", err)
    }
    query := `INSERT INTO booking_seats (booking_id, showtime_id, seat_id) VALUES `
    args := make([]interface{}, 0, len(ordered)*3)
    for i, sid := range ordered {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?)"
        args = append(args, id, showtimeID, sid)
    }
    if _, err := tx.ExecContext(ctx, query, args...); err != nil {
        return nil, unavailable("insert booking seats", err)
    }
    var createdAt time.Time
    if err := tx.QueryRowContext(ctx, `SELECT created_at FROM bookings WHERE id = ?`, id).Scan(&createdAt); err != nil {
        return nil, unavailable("insert booking", err)
    }
    return &model.Booking{
        ID:         uint64(id),
        ShowtimeID: showtimeID,
        SeatIDs:    ordered,
        CreatedAt:  createdAt.UTC(),
    }, nil
}

// orderSeatsTx returns the given seat IDs sorted by row label then column.
func orderSeatsTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, seatIDs []uint64) ([]uint64, error) {
    query := `SELECT seat_id FROM seat_status WHERE showtime_id = ? AND seat_id IN (`
    args := make([]interface{}, 0, len(seatIDs)+1)
    args = append(args, showtimeID)
    for i, sid := range seatIDs {
        if i > 0 {
            query += ","
        }
        query += "?"
        args = append(args, sid)
    }
    query += `) ORDER BY row_label, seat_col`
    rows, err := tx.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, unavailable("order seats", err)
    }
    defer rows.Close()
    ordered := make([]uint64, 0, len(seatIDs))
    for rows.Next() {
        var sid uint64
        if err := rows.Scan(&sid); err != nil {
            return nil, unavailable("order seats", err)
        }
        ordered = append(ordered, sid)
    }
    if err := rows.Err(); err != nil {
        return nil, unavailable("order seats", err)
    }
    return ordered, nil
}

// Materialize bulk-inserts the initial AVAILABLE rows for a newly
// scheduled showtime.  INSERT IGNORE keeps the call idempotent: re-running
// it after a partial failure never resets rows that already transitioned.
func (s *MySQL) Materialize(ctx context.Context, showtimeID uint64, layout []model.LayoutSeat) error {
    if len(layout) == 0 {
        return nil
    }
    query := `INSERT IGNORE INTO seat_status (showtime_id, seat_id, row_label, seat_col, status) VALUES `
    args := make([]interface{}, 0, len(layout)*5)
    for i, ls := range layout {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?, ?)"
        args = append(args, showtimeID, ls.SeatID, ls.RowLabel, ls.SeatCol, model.StatusAvailable)
    }
    if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
        return unavailable("materialize", err)
    }
    return nil
}

// reclaimExpired frees holds older than the configured TTL for a showtime.
func (s *MySQL) reclaimExpired(ctx context.Context, showtimeID uint64) error {
    const q = `UPDATE seat_status
               SET status = ?, holder_token = NULL, held_at = NULL
               WHERE showtime_id = ? AND status = ? AND held_at <= UTC_TIMESTAMP() - INTERVAL ? SECOND`
    if _, err := s.db.ExecContext(ctx, q, model.StatusAvailable, showtimeID, model.StatusHeld, int64(s.holdTTL/time.Second)); err != nil {
        return unavailable("reclaim expired holds", err)
    }
    return nil
}

func (s *MySQL) reclaimExpiredTx(ctx context.Context, tx *sql.Tx, showtimeID uint64) error {
    const q = `UPDATE seat_status
               SET status = ?, holder_token = NULL, held_at = NULL
               WHERE showtime_id = ? AND status = ? AND held_at <= UTC_TIMESTAMP() - INTERVAL ? SECOND`
    if _, err := tx.ExecContext(ctx, q, model.StatusAvailable, showtimeID, model.StatusHeld, int64(s.holdTTL/time.Second)); err != nil {
        return unavailable("reclaim expired holds", err)
    }
    return nil
}
