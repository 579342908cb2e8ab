package model

// Showtime is a scheduled screening of a movie on a particular screen.
// Showtimes are owned by the external catalog and never mutated by the
// reservation engine; the engine treats ShowtimeID as a read-only
// foreign key when tracking seat status.
//
// Fields:
//  ID       – primary key identifier.
//  MovieID  – movie being screened.
//  ShowDate – calendar date of the screening (YYYY-MM-DD).
//  ShowTime – wall-clock start time (HH:MM).
//  Screen   – auditorium name or number.
type Showtime struct {
    ID       uint64 `json:"id"`
    MovieID  uint64 `json:"movie_id"`
    ShowDate string `json:"date"`
    ShowTime string `json:"time"`
    Screen   string `json:"screen"`
}

// LayoutSeat describes one position in a screen's fixed seating grid.  The
// catalog exposes the layout once per showtime so the seat store can
// materialize its initial all-AVAILABLE rows.
type LayoutSeat struct {
    SeatID   uint64 `json:"seat_id"`
    RowLabel string `json:"row"`
    SeatCol  uint32 `json:"col"`
}
