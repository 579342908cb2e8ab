package model

import "time"

// Booking records a durable, conflict-free sale of one or more seats for a
// showtime.  Bookings are append-only: once created they are never
// mutated, only ever superseded by a future cancellation flow.
//
// Fields:
//  ID         – generated on successful commit.
//  ShowtimeID – showtime the seats belong to.
//  SeatIDs    – seats sold under this booking, ordered by row then column.
//  CreatedAt  – UTC commit timestamp.
type Booking struct {
    ID         uint64    `json:"id"`
    ShowtimeID uint64    `json:"showtime_id"`
    SeatIDs    []uint64  `json:"seat_ids"`
    CreatedAt  time.Time `json:"created_at"`
}
