package model

import (
    "strconv"
    "time"
)

// Seat status values.  A seat row exists for every physical seat of every
// showtime and only ever moves between these three states.  SOLD is
// terminal: a sold seat never returns to AVAILABLE or HELD.
const (
    StatusAvailable = "AVAILABLE" // free for any session to hold
    StatusHeld      = "HELD"      // temporarily claimed by one session
    StatusSold      = "SOLD"      // permanently booked
)

// Seat tracks the status of one physical seat for one showtime.  The pair
// (ShowtimeID, SeatID) is the identity; RowLabel and SeatCol describe the
// seat's position in the auditorium grid.
//
// Fields:
//  ShowtimeID  – showtime this status row belongs to.
//  SeatID      – physical seat within the screen's layout.
//  RowLabel    – letter designating the row (A, B, ...).
//  SeatCol     – 1-based column within the row.
//  Status      – AVAILABLE, HELD or SOLD.
//  HolderToken – session that owns the hold; nil unless Status is HELD.
//  HeldAt      – when the current hold was taken; nil unless Status is HELD.
type Seat struct {
    ShowtimeID  uint64     `json:"showtime_id"`
    SeatID      uint64     `json:"seat_id"`
    RowLabel    string     `json:"row"`
    SeatCol     uint32     `json:"col"`
    Status      string     `json:"status"`
    HolderToken *string    `json:"-"`
    HeldAt      *time.Time `json:"-"`
}

// Label renders the customer-facing seat name, e.g. "A1" for row A column 1.
func (s Seat) Label() string {
    return s.RowLabel + strconv.FormatUint(uint64(s.SeatCol), 10)
}

// HeldBy reports whether the seat is currently held by the given session
// token.  It is false for AVAILABLE and SOLD seats.
func (s Seat) HeldBy(holder string) bool {
    return s.Status == StatusHeld && s.HolderToken != nil && *s.HolderToken == holder
}
