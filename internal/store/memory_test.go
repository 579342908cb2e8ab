package store

import (
    "bytes"
    "context"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/panaview/reservation-engine/internal/model"
)

const showtime = uint64(1)

// grid5x8 returns the standard five-row, eight-column layout.
func grid5x8() []model.LayoutSeat {
    layout := make([]model.LayoutSeat, 0, 40)
    var id uint64
    for r := 0; r < 5; r++ {
        for c := 1; c <= 8; c++ {
            id++
            layout = append(layout, model.LayoutSeat{SeatID: id, RowLabel: string(rune('A' + r)), SeatCol: uint32(c)})
        }
    }
    return layout
}

func newTestStore(t *testing.T, opts ...MemoryOption) *Memory {
    t.Helper()
    m := NewMemory(opts...)
    if err := m.Materialize(context.Background(), showtime, grid5x8()); err != nil {
        t.Fatalf("materialize: %v", err)
    }
    return m
}

func seatStatus(t *testing.T, m *Memory, seatID uint64) model.Seat {
    t.Helper()
    seats, err := m.ListSeats(context.Background(), showtime)
    if err != nil {
        t.Fatalf("list seats: %v", err)
    }
    for _, s := range seats {
        if s.SeatID == seatID {
            return s
        }
    }
    t.Fatalf("seat %d not found", seatID)
    return model.Seat{}
}

func TestMemory_TryHold(t *testing.T) {
    t.Parallel()
    ctx := context.Background()

    t.Run("claims an available seat", func(t *testing.T) {
        m := newTestStore(t)
        if err := m.TryHold(ctx, showtime, 1, "alice"); err != nil {
            t.Fatalf("expected hold to succeed, got %v", err)
        }
        s := seatStatus(t, m, 1)
        if s.Status != model.StatusHeld {
            t.Fatalf("expected HELD, got %s", s.Status)
        }
        if !s.HeldBy("alice") {
            t.Fatalf("expected holder alice")
        }
    })

    t.Run("rejects a seat held by someone else", func(t *testing.T) {
        m := newTestStore(t)
        if err := m.TryHold(ctx, showtime, 1, "alice"); err != nil {
            t.Fatalf("first hold: %v", err)
        }
        if err := m.TryHold(ctx, showtime, 1, "bob"); !errors.Is(err, ErrSeatConflict) {
            t.Fatalf("expected ErrSeatConflict, got %v", err)
        }
        // Loser must not disturb the winner's hold.
        if s := seatStatus(t, m, 1); !s.HeldBy("alice") {
            t.Fatalf("winner's hold was disturbed: %+v", s)
        }
    })

    t.Run("rejects a hold by the same session twice", func(t *testing.T) {
        m := newTestStore(t)
        if err := m.TryHold(ctx, showtime, 1, "alice"); err != nil {
            t.Fatalf("first hold: %v", err)
        }
        if err := m.TryHold(ctx, showtime, 1, "alice"); !errors.Is(err, ErrSeatConflict) {
            t.Fatalf("expected ErrSeatConflict, got %v", err)
        }
    })

    t.Run("rejects a sold seat", func(t *testing.T) {
        m := newTestStore(t)
        if err := m.TryHold(ctx, showtime, 1, "alice"); err != nil {
            t.Fatalf("hold: %v", err)
        }
        if _, err := m.Commit(ctx, showtime, []uint64{1}, "alice"); err != nil {
            t.Fatalf("commit: %v", err)
        }
        if err := m.TryHold(ctx, showtime, 1, "bob"); !errors.Is(err, ErrSeatConflict) {
            t.Fatalf("expected ErrSeatConflict on sold seat, got %v", err)
        }
    })

    t.Run("unknown seat", func(t *testing.T) {
        m := newTestStore(t)
        if err := m.TryHold(ctx, showtime, 999, "alice"); !errors.Is(err, ErrSeatNotFound) {
            t.Fatalf("expected ErrSeatNotFound, got %v", err)
        }
    })
}

// TestMemory_TryHold_Race drives many concurrent holders at one seat and
// requires exactly one winner regardless of scheduling.
func TestMemory_TryHold_Race(t *testing.T) {
    t.Parallel()
    ctx := context.Background()
    m := newTestStore(t)

    const holders = 32
    var wg sync.WaitGroup
    wins := make(chan string, holders)
    for i := 0; i < holders; i++ {
        holder := string(rune('a' + i%26))
        wg.Add(1)
        go func(h string) {
            defer wg.Done()
            if err := m.TryHold(ctx, showtime, 7, h); err == nil {
                wins <- h
            }
        }(holder)
    }
    wg.Wait()
    close(wins)

    var winners []string
    for w := range wins {
        winners = append(winners, w)
    }
    if len(winners) != 1 {
        t.Fatalf("expected exactly one winner, got %d", len(winners))
    }
    if s := seatStatus(t, m, 7); !s.HeldBy(winners[0]) {
        t.Fatalf("seat holder %v does not match winner %s", s.HolderToken, winners[0])
    }
}

func TestMemory_Release(t *testing.T) {
    t.Parallel()
    ctx := context.Background()

    t.Run("frees own hold", func(t *testing.T) {
        m := newTestStore(t)
        if err := m.TryHold(ctx, showtime, 2, "alice"); err != nil {
            t.Fatalf("hold: %v", err)
        }
        if err := m.Release(ctx, showtime, 2, "alice"); err != nil {
            t.Fatalf("release: %v", err)
        }
        s := seatStatus(t, m, 2)
        if s.Status != model.StatusAvailable || s.HolderToken != nil || s.HeldAt != nil {
            t.Fatalf("expected clean AVAILABLE seat, got %+v", s)
        }
    })

    t.Run("rejects releasing another session's hold", func(t *testing.T) {
        m := newTestStore(t)
        if err := m.TryHold(ctx, showtime, 2, "alice"); err != nil {
            t.Fatalf("hold: %v", err)
        }
        if err := m.Release(ctx, showtime, 2, "bob"); !errors.Is(err, ErrNotHeldByYou) {
            t.Fatalf("expected ErrNotHeldByYou, got %v", err)
        }
        if s := seatStatus(t, m, 2); !s.HeldBy("alice") {
            t.Fatalf("hold was disturbed: %+v", s)
        }
    })

    t.Run("rejects releasing an available seat", func(t *testing.T) {
        m := newTestStore(t)
        if err := m.Release(ctx, showtime, 2, "alice"); !errors.Is(err, ErrNotHeldByYou) {
            t.Fatalf("expected ErrNotHeldByYou, got %v", err)
        }
    })

    t.Run("never demotes a sold seat", func(t *testing.T) {
        m := newTestStore(t)
        if err := m.TryHold(ctx, showtime, 2, "alice"); err != nil {
            t.Fatalf("hold: %v", err)
        }
        if _, err := m.Commit(ctx, showtime, []uint64{2}, "alice"); err != nil {
            t.Fatalf("commit: %v", err)
        }
        if err := m.Release(ctx, showtime, 2, "alice"); !errors.Is(err, ErrNotHeldByYou) {
            t.Fatalf("expected ErrNotHeldByYou on sold seat, got %v", err)
        }
        if s := seatStatus(t, m, 2); s.Status != model.StatusSold {
            t.Fatalf("sold seat left SOLD state: %s", s.Status)
        }
    })
}

func TestMemory_Commit(t *testing.T) {
    t.Parallel()
    ctx := context.Background()

    t.Run("full commit sells every held seat", func(t *testing.T) {
        m := newTestStore(t)
        for _, id := range []uint64{3, 4, 5} {
            if err := m.TryHold(ctx, showtime, id, "alice"); err != nil {
                t.Fatalf("hold %d: %v", id, err)
            }
        }
        booking, err := m.Commit(ctx, showtime, []uint64{3, 4, 5}, "alice")
        if err != nil {
            t.Fatalf("commit: %v", err)
        }
        if booking == nil || len(booking.SeatIDs) != 3 {
            t.Fatalf("expected booking with 3 seats, got %+v", booking)
        }
        for _, id := range booking.SeatIDs {
            if s := seatStatus(t, m, id); s.Status != model.StatusSold {
                t.Fatalf("seat %d not SOLD: %s", id, s.Status)
            }
        }
    })

    t.Run("partial commit sells survivors and names lost seats", func(t *testing.T) {
        m := newTestStore(t)
        for _, id := range []uint64{3, 4, 5} {
            if err := m.TryHold(ctx, showtime, id, "alice"); err != nil {
                t.Fatalf("hold %d: %v", id, err)
            }
        }
        // Seat 4 is snatched away: released out from under alice, then
        // re-held and sold to bob.
        if err := m.Release(ctx, showtime, 4, "alice"); err != nil {
            t.Fatalf("release: %v", err)
        }
        if err := m.TryHold(ctx, showtime, 4, "bob"); err != nil {
            t.Fatalf("bob hold: %v", err)
        }
        if _, err := m.Commit(ctx, showtime, []uint64{4}, "bob"); err != nil {
            t.Fatalf("bob commit: %v", err)
        }

        booking, err := m.Commit(ctx, showtime, []uint64{3, 4, 5}, "alice")
        var partial *PartialConflictError
        if !errors.As(err, &partial) {
            t.Fatalf("expected PartialConflictError, got %v", err)
        }
        if len(partial.Lost) != 1 || partial.Lost[0] != 4 {
            t.Fatalf("expected lost=[4], got %v", partial.Lost)
        }
        if booking == nil || len(booking.SeatIDs) != 2 {
            t.Fatalf("expected booking for 2 surviving seats, got %+v", booking)
        }
        // The winner's sale stands untouched.
        if s := seatStatus(t, m, 4); s.Status != model.StatusSold {
            t.Fatalf("seat 4 should remain SOLD, got %s", s.Status)
        }
        for _, id := range []uint64{3, 5} {
            if s := seatStatus(t, m, id); s.Status != model.StatusSold {
                t.Fatalf("surviving seat %d not SOLD: %s", id, s.Status)
            }
        }
    })

    t.Run("reclaimed seat is reported lost and left available", func(t *testing.T) {
        m := newTestStore(t)
        for _, id := range []uint64{1, 2, 3} {
            if err := m.TryHold(ctx, showtime, id, "alice"); err != nil {
                t.Fatalf("hold %d: %v", id, err)
            }
        }
        // Seat 2's hold is reclaimed out from under the session.
        if err := m.Release(ctx, showtime, 2, "alice"); err != nil {
            t.Fatalf("release: %v", err)
        }

        booking, err := m.Commit(ctx, showtime, []uint64{1, 2, 3}, "alice")
        var partial *PartialConflictError
        if !errors.As(err, &partial) {
            t.Fatalf("expected PartialConflictError, got %v", err)
        }
        if len(partial.Lost) != 1 || partial.Lost[0] != 2 {
            t.Fatalf("expected lost=[2], got %v", partial.Lost)
        }
        if booking == nil || len(booking.SeatIDs) != 2 {
            t.Fatalf("expected booking for seats 1 and 3, got %+v", booking)
        }
        if s := seatStatus(t, m, 2); s.Status != model.StatusAvailable {
            t.Fatalf("lost seat must be left untouched, got %s", s.Status)
        }
        for _, id := range []uint64{1, 3} {
            if s := seatStatus(t, m, id); s.Status != model.StatusSold {
                t.Fatalf("seat %d not SOLD: %s", id, s.Status)
            }
        }
    })

    t.Run("total loss returns nil booking", func(t *testing.T) {
        m := newTestStore(t)
        if err := m.TryHold(ctx, showtime, 6, "bob"); err != nil {
            t.Fatalf("hold: %v", err)
        }
        booking, err := m.Commit(ctx, showtime, []uint64{6}, "alice")
        var partial *PartialConflictError
        if !errors.As(err, &partial) {
            t.Fatalf("expected PartialConflictError, got %v", err)
        }
        if booking != nil {
            t.Fatalf("expected nil booking when every seat was lost, got %+v", booking)
        }
        if len(partial.Lost) != 1 || partial.Lost[0] != 6 {
            t.Fatalf("expected lost=[6], got %v", partial.Lost)
        }
    })

    t.Run("booking seat ids follow row and column order", func(t *testing.T) {
        m := newTestStore(t)
        // Hold out of order: B1 (seat 9), A2 (seat 2), A1 (seat 1).
        for _, id := range []uint64{9, 2, 1} {
            if err := m.TryHold(ctx, showtime, id, "alice"); err != nil {
                t.Fatalf("hold %d: %v", id, err)
            }
        }
        booking, err := m.Commit(ctx, showtime, []uint64{9, 2, 1}, "alice")
        if err != nil {
            t.Fatalf("commit: %v", err)
        }
        want := []uint64{1, 2, 9}
        for i, id := range booking.SeatIDs {
            if id != want[i] {
                t.Fatalf("expected seat order %v, got %v", want, booking.SeatIDs)
            }
        }
    })
}

func TestMemory_ListSeats_Order(t *testing.T) {
    t.Parallel()
    m := newTestStore(t)
    seats, err := m.ListSeats(context.Background(), showtime)
    if err != nil {
        t.Fatalf("list seats: %v", err)
    }
    if len(seats) != 40 {
        t.Fatalf("expected 40 seats, got %d", len(seats))
    }
    if seats[0].Label() != "A1" || seats[7].Label() != "A8" || seats[8].Label() != "B1" || seats[39].Label() != "E8" {
        t.Fatalf("unexpected order: first=%s last=%s", seats[0].Label(), seats[39].Label())
    }
}

func TestMemory_Materialize_Idempotent(t *testing.T) {
    t.Parallel()
    ctx := context.Background()
    m := newTestStore(t)
    if err := m.TryHold(ctx, showtime, 1, "alice"); err != nil {
        t.Fatalf("hold: %v", err)
    }
    // Re-running materialization must not reset existing status rows.
    if err := m.Materialize(ctx, showtime, grid5x8()); err != nil {
        t.Fatalf("re-materialize: %v", err)
    }
    if s := seatStatus(t, m, 1); !s.HeldBy("alice") {
        t.Fatalf("materialize reset an existing hold: %+v", s)
    }
}

func TestMemory_HoldTTL(t *testing.T) {
    t.Parallel()
    ctx := context.Background()

    now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
    current := now
    var mu sync.Mutex
    clock := func() time.Time {
        mu.Lock()
        defer mu.Unlock()
        return current
    }
    advance := func(d time.Duration) {
        mu.Lock()
        current = current.Add(d)
        mu.Unlock()
    }

    m := newTestStore(t, WithMemoryHoldTTL(10*time.Minute), WithClock(clock))
    if err := m.TryHold(ctx, showtime, 1, "alice"); err != nil {
        t.Fatalf("hold: %v", err)
    }

    // Before the TTL the hold still defends the seat.
    advance(9 * time.Minute)
    if err := m.TryHold(ctx, showtime, 1, "bob"); !errors.Is(err, ErrSeatConflict) {
        t.Fatalf("expected conflict before expiry, got %v", err)
    }

    // After the TTL the seat is reclaimable by the next holder.
    advance(2 * time.Minute)
    if err := m.TryHold(ctx, showtime, 1, "bob"); err != nil {
        t.Fatalf("expected reclaim after expiry, got %v", err)
    }

    // An expired hold is also worthless at commit time.
    if err := m.TryHold(ctx, showtime, 2, "carol"); err != nil {
        t.Fatalf("hold: %v", err)
    }
    advance(11 * time.Minute)
    booking, err := m.Commit(ctx, showtime, []uint64{2}, "carol")
    var partial *PartialConflictError
    if !errors.As(err, &partial) {
        t.Fatalf("expected PartialConflictError for expired hold, got %v", err)
    }
    if booking != nil {
        t.Fatalf("expected nil booking, got %+v", booking)
    }
}

func TestMemory_NoTTLHoldsNeverExpire(t *testing.T) {
    t.Parallel()
    ctx := context.Background()

    now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
    m := newTestStore(t, WithClock(func() time.Time { return now.Add(240 * time.Hour) }))
    // HeldAt predates the clock by ten days; with no TTL configured the
    // hold still stands.
    if err := m.TryHold(ctx, showtime, 1, "alice"); err != nil {
        t.Fatalf("hold: %v", err)
    }
    if err := m.TryHold(ctx, showtime, 1, "bob"); !errors.Is(err, ErrSeatConflict) {
        t.Fatalf("expected indefinite hold to defend the seat, got %v", err)
    }
}

func TestMemory_SnapshotRoundtrip(t *testing.T) {
    t.Parallel()
    ctx := context.Background()
    m := newTestStore(t)

    if err := m.TryHold(ctx, showtime, 1, "alice"); err != nil {
        t.Fatalf("hold: %v", err)
    }
    if err := m.TryHold(ctx, showtime, 2, "alice"); err != nil {
        t.Fatalf("hold: %v", err)
    }
    if _, err := m.Commit(ctx, showtime, []uint64{1, 2}, "alice"); err != nil {
        t.Fatalf("commit: %v", err)
    }
    // A live hold at snapshot time must not survive the restart.
    if err := m.TryHold(ctx, showtime, 3, "bob"); err != nil {
        t.Fatalf("hold: %v", err)
    }

    var buf bytes.Buffer
    if err := m.Snapshot(&buf); err != nil {
        t.Fatalf("snapshot: %v", err)
    }

    restored := NewMemory()
    if err := restored.Restore(&buf); err != nil {
        t.Fatalf("restore: %v", err)
    }

    if s := seatStatus(t, restored, 1); s.Status != model.StatusSold {
        t.Fatalf("sold seat lost across restart: %s", s.Status)
    }
    if s := seatStatus(t, restored, 3); s.Status != model.StatusAvailable {
        t.Fatalf("hold should not survive a restart, got %s", s.Status)
    }
    bookings := restored.Bookings()
    if len(bookings) != 1 || len(bookings[0].SeatIDs) != 2 {
        t.Fatalf("bookings lost across restart: %+v", bookings)
    }
}
