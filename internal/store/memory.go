package store

import (
    "context"
    "sort"
    "sync"
    "time"

    "github.com/panaview/reservation-engine/internal/model"
)

// Memory is a mutex-guarded in-memory seat store.  It implements the same
// transition semantics as the MySQL store and backs the engine's tests and
// standalone mode.  Combined with Snapshot/Restore it also serves as the
// file-backed variant: sold state survives restarts via a JSON snapshot.
type Memory struct {
    mu            sync.Mutex
    seats         map[uint64]map[uint64]*model.Seat // showtime -> seat id -> seat
    bookings      []model.Booking
    nextBookingID uint64
    holdTTL       time.Duration
    now           func() time.Time
}

// MemoryOption configures optional Memory store behavior.
type MemoryOption func(*Memory)

// WithMemoryHoldTTL enables hold expiry, mirroring WithHoldTTL on the
// MySQL store.  Zero leaves holds permanent until released or committed.
func WithMemoryHoldTTL(d time.Duration) MemoryOption {
    return func(m *Memory) {
        if d > 0 {
            m.holdTTL = d
        }
    }
}

// WithClock overrides the time source.  Tests use it to force hold expiry
// without sleeping.
func WithClock(now func() time.Time) MemoryOption {
    return func(m *Memory) {
        if now != nil {
            m.now = now
        }
    }
}

// NewMemory returns an empty in-memory store.
func NewMemory(opts ...MemoryOption) *Memory {
    m := &Memory{
        seats:         make(map[uint64]map[uint64]*model.Seat),
        nextBookingID: 1,
        now:           time.Now,
    }
    for _, opt := range opts {
        opt(m)
    }
    return m
}

// ListSeats returns a copy of the showtime's seats ordered by row then
// column.  Callers may mutate the returned slice freely.
func (m *Memory) ListSeats(ctx context.Context, showtimeID uint64) ([]model.Seat, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    byID := m.seats[showtimeID]
    seats := make([]model.Seat, 0, len(byID))
    for _, s := range byID {
        seats = append(seats, *s)
    }
    sort.Slice(seats, func(i, j int) bool {
        if seats[i].RowLabel != seats[j].RowLabel {
            return seats[i].RowLabel < seats[j].RowLabel
        }
        return seats[i].SeatCol < seats[j].SeatCol
    })
    return seats, nil
}

// TryHold claims an AVAILABLE seat for the holder.  The check and the
// write happen under one lock acquisition, so concurrent callers racing on
// the same seat are serialized and exactly one wins.
func (m *Memory) TryHold(ctx context.Context, showtimeID, seatID uint64, holder string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    s, err := m.seat(showtimeID, seatID)
    if err != nil {
        return err
    }
    m.expireLocked(s)
    if s.Status != model.StatusAvailable {
        return ErrSeatConflict
    }
    now := m.now().UTC()
    s.Status = model.StatusHeld
    s.HolderToken = &holder
    s.HeldAt = &now
    return nil
}

// Release frees a seat held by the caller; any other state is left
// untouched and reported as ErrNotHeldByYou.
func (m *Memory) Release(ctx context.Context, showtimeID, seatID uint64, holder string) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    s, err := m.seat(showtimeID, seatID)
    if err != nil {
        return err
    }
    if !s.HeldBy(holder) {
        return ErrNotHeldByYou
    }
    s.Status = model.StatusAvailable
    s.HolderToken = nil
    s.HeldAt = nil
    return nil
}

// Commit sells every seat still held by the session and reports the rest
// as lost.  The booking is appended under the same lock as the
// transitions.
func (m *Memory) Commit(ctx context.Context, showtimeID uint64, seatIDs []uint64, holder string) (*model.Booking, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    sold := make([]*model.Seat, 0, len(seatIDs))
    var lost []uint64
    for _, seatID := range seatIDs {
        s, err := m.seat(showtimeID, seatID)
        if err != nil {
            return nil, err
        }
        m.expireLocked(s)
        if !s.HeldBy(holder) {
            lost = append(lost, seatID)
            continue
        }
        sold = append(sold, s)
    }
    var booking *model.Booking
    if len(sold) > 0 {
        sort.Slice(sold, func(i, j int) bool {
            if sold[i].RowLabel != sold[j].RowLabel {
                return sold[i].RowLabel < sold[j].RowLabel
            }
            return sold[i].SeatCol < sold[j].SeatCol
        })
        ids := make([]uint64, 0, len(sold))
        for _, s := range sold {
            s.Status = model.StatusSold
            s.HolderToken = nil
            s.HeldAt = nil
            ids = append(ids, s.SeatID)
        }
        b := model.Booking{
            ID:         m.nextBookingID,
            ShowtimeID: showtimeID,
            SeatIDs:    ids,
            CreatedAt:  m.now().UTC(),
        }
        m.nextBookingID++
        m.bookings = append(m.bookings, b)
        booking = &b
    }
    if len(lost) > 0 {
        return booking, &PartialConflictError{Lost: lost}
    }
    return booking, nil
}

// Materialize creates AVAILABLE rows for seats that do not exist yet.
func (m *Memory) Materialize(ctx context.Context, showtimeID uint64, layout []model.LayoutSeat) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    byID := m.seats[showtimeID]
    if byID == nil {
        byID = make(map[uint64]*model.Seat, len(layout))
        m.seats[showtimeID] = byID
    }
    for _, ls := range layout {
        if _, ok := byID[ls.SeatID]; ok {
            continue
        }
        byID[ls.SeatID] = &model.Seat{
            ShowtimeID: showtimeID,
            SeatID:     ls.SeatID,
            RowLabel:   ls.RowLabel,
            SeatCol:    ls.SeatCol,
            Status:     model.StatusAvailable,
        }
    }
    return nil
}

// Bookings returns a copy of all bookings, newest last.
func (m *Memory) Bookings() []model.Booking {
    m.mu.Lock()
    defer m.mu.Unlock()
    out := make([]model.Booking, len(m.bookings))
    copy(out, m.bookings)
    return out
}

// seat looks up a status row.  Callers must hold m.mu.
func (m *Memory) seat(showtimeID, seatID uint64) (*model.Seat, error) {
    s, ok := m.seats[showtimeID][seatID]
    if !ok {
        return nil, ErrSeatNotFound
    }
    return s, nil
}

// expireLocked reclaims the seat's hold when the TTL has elapsed.
// Callers must hold m.mu.
func (m *Memory) expireLocked(s *model.Seat) {
    if m.holdTTL <= 0 || s.Status != model.StatusHeld || s.HeldAt == nil {
        return
    }
    if m.now().UTC().Sub(*s.HeldAt) >= m.holdTTL {
        s.Status = model.StatusAvailable
        s.HolderToken = nil
        s.HeldAt = nil
    }
}
