package store

import (
    "context"

    "github.com/panaview/reservation-engine/internal/model"
)

// Store is the single transition gate for seat status.  No component may
// read-then-write a seat's status outside of these operations: every
// transition is conditional on the current persisted state, so two
// sessions racing on the same seat are adjudicated strictly by arrival
// order at the store.
//
// Two implementations exist: MySQL (production, conditional UPDATE as the
// atomic primitive) and Memory (tests and standalone mode, mutex-guarded).
type Store interface {
    // ListSeats returns a snapshot of every seat for the showtime ordered
    // by row then column.  It never blocks writers; the snapshot may be
    // briefly stale relative to concurrent transitions.
    ListSeats(ctx context.Context, showtimeID uint64) ([]model.Seat, error)

    // TryHold transitions one AVAILABLE seat to HELD and records the
    // holder.  It returns ErrSeatConflict when the seat is held by another
    // session or sold.  Two simultaneous callers racing on the same seat
    // never both succeed.
    TryHold(ctx context.Context, showtimeID, seatID uint64, holder string) error

    // Release transitions HELD back to AVAILABLE only when the recorded
    // holder matches; otherwise it returns ErrNotHeldByYou without
    // mutating state.
    Release(ctx context.Context, showtimeID, seatID uint64, holder string) error

    // Commit attempts to move every listed seat from HELD(holder) to SOLD.
    // The transition is re-validated per seat against current persisted
    // state: seats still held by the session are sold even when others in
    // the batch fail, and the failures are reported via
    // *PartialConflictError.  A booking covering the sold seats is
    // appended atomically with the transitions; it is nil when every seat
    // was lost.
    Commit(ctx context.Context, showtimeID uint64, seatIDs []uint64, holder string) (*model.Booking, error)

    // Materialize creates one AVAILABLE status row per seat in the layout
    // of a newly scheduled showtime.  It is idempotent: rows that already
    // exist are left untouched.
    Materialize(ctx context.Context, showtimeID uint64, layout []model.LayoutSeat) error
}
