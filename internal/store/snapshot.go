package store

import (
    "encoding/json"
    "io"

    "github.com/panaview/reservation-engine/internal/model"
)

// snapshot is the JSON wire format for persisting a Memory store.  Holds
// are deliberately excluded: a hold is session-scoped and must not outlive
// the process, so only the seat grid, the sold set and the bookings are
// durable.
type snapshot struct {
    Showtimes []snapshotShowtime `json:"showtimes"`
    Bookings  []model.Booking    `json:"bookings"`
}

type snapshotShowtime struct {
    ShowtimeID uint64             `json:"showtime_id"`
    Layout     []model.LayoutSeat `json:"layout"`
    SoldSeats  []uint64           `json:"sold_seats"`
}

// Snapshot writes the store's durable state as JSON.  In-flight holds
// appear as AVAILABLE in the snapshot.
func (m *Memory) Snapshot(w io.Writer) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    snap := snapshot{Bookings: m.bookings}
    for showtimeID, byID := range m.seats {
        st := snapshotShowtime{ShowtimeID: showtimeID}
        for _, s := range byID {
            st.Layout = append(st.Layout, model.LayoutSeat{SeatID: s.SeatID, RowLabel: s.RowLabel, SeatCol: s.SeatCol})
            if s.Status == model.StatusSold {
                st.SoldSeats = append(st.SoldSeats, s.SeatID)
            }
        }
        snap.Showtimes = append(snap.Showtimes, st)
    }
    enc := json.NewEncoder(w)
    enc.SetIndent("", "  ")
    return enc.Encode(snap)
}

// Restore replaces the store's state with a previously written snapshot.
// Restored seats come back AVAILABLE or SOLD; holds never survive.
func (m *Memory) Restore(r io.Reader) error {
    var snap snapshot
    if err := json.NewDecoder(r).Decode(&snap); err != nil {
        return err
    }
    m.mu.Lock()
    defer m.mu.Unlock()
    m.seats = make(map[uint64]map[uint64]*model.Seat, len(snap.Showtimes))
    for _, st := range snap.Showtimes {
        byID := make(map[uint64]*model.Seat, len(st.Layout))
        for _, ls := range st.Layout {
            byID[ls.SeatID] = &model.Seat{
                ShowtimeID: st.ShowtimeID,
                SeatID:     ls.SeatID,
                RowLabel:   ls.RowLabel,
                SeatCol:    ls.SeatCol,
                Status:     model.StatusAvailable,
            }
        }
        for _, sid := range st.SoldSeats {
            if s, ok := byID[sid]; ok {
                s.Status = model.StatusSold
            }
        }
        m.seats[st.ShowtimeID] = byID
    }
    m.bookings = snap.Bookings
    m.nextBookingID = 1
    for _, b := range m.bookings {
        if b.ID >= m.nextBookingID {
            m.nextBookingID = b.ID + 1
        }
    }
    return nil
}
