// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published after a commit sells at least one
// seat.  It carries enough context for downstream consumers to log or
// notify without querying the primary database.  LostSeatLabels is
// non-empty when the commit was partial.
type BookingConfirmedEvent struct {
    BookingID      uint64   `json:"booking_id"`
    ShowtimeID     uint64   `json:"showtime_id"`
    MovieTitle     string   `json:"movie_title"`
    ShowDate       string   `json:"show_date"`
    ShowTime       string   `json:"show_time"`
    Screen         string   `json:"screen"`
    SeatLabels     []string `json:"seats"`
    LostSeatLabels []string `json:"lost_seats,omitempty"`
    ConfirmedAt    string   `json:"confirmed_at"`
}
