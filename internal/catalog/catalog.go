// Package catalog reads movies, showtimes and seat layouts.  The catalog
// is owned by an external scheduling system; the engine consumes it
// strictly read-only and treats showtime IDs as foreign keys.
package catalog

import (
    "context"
    "database/sql"
    "errors"

    "github.com/panaview/reservation-engine/internal/model"
)

// ErrShowtimeNotFound is returned when a showtime lookup yields no rows.
var ErrShowtimeNotFound = errors.New("showtime not found")

// ErrMovieNotFound is returned when a movie lookup yields no rows.
var ErrMovieNotFound = errors.New("movie not found")

// Repo provides read access to the catalog tables.
type Repo struct {
    db *sql.DB
}

// NewRepo constructs a Repo with the given DB handle.
func NewRepo(db *sql.DB) *Repo {
    return &Repo{db: db}
}

// ListMovies returns all movies ordered by title.
func (r *Repo) ListMovies(ctx context.Context) ([]model.Movie, error) {
    const q = `SELECT id, title FROM movies ORDER BY title`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var movies []model.Movie
    for rows.Next() {
        var mv model.Movie
        if err := rows.Scan(&mv.ID, &mv.Title); err != nil {
            return nil, err
        }
        movies = append(movies, mv)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return movies, nil
}

// ListShowtimesByMovie returns a movie's showtimes ordered by date then
// time.  It returns ErrMovieNotFound when the movie does not exist so the
// handler can distinguish "no showtimes" from a bad ID.
func (r *Repo) ListShowtimesByMovie(ctx context.Context, movieID uint64) ([]model.Showtime, error) {
    var exists int
    err := r.db.QueryRowContext(ctx, `SELECT 1 FROM movies WHERE id = ?`, movieID).Scan(&exists)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrMovieNotFound
    }
    if err != nil {
        return nil, err
    }
    const q = `SELECT id, movie_id, show_date, show_time, screen
               FROM showtimes
               WHERE movie_id = ?
               ORDER BY show_date, show_time`
    rows, err := r.db.QueryContext(ctx, q, movieID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var showtimes []model.Showtime
    for rows.Next() {
        var st model.Showtime
        if err := rows.Scan(&st.ID, &st.MovieID, &st.ShowDate, &st.ShowTime, &st.Screen); err != nil {
            return nil, err
        }
        showtimes = append(showtimes, st)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return showtimes, nil
}

// GetShowtime returns one showtime by ID.
func (r *Repo) GetShowtime(ctx context.Context, showtimeID uint64) (*model.Showtime, error) {
    const q = `SELECT id, movie_id, show_date, show_time, screen FROM showtimes WHERE id = ?`
    var st model.Showtime
    err := r.db.QueryRowContext(ctx, q, showtimeID).
        Scan(&st.ID, &st.MovieID, &st.ShowDate, &st.ShowTime, &st.Screen)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrShowtimeNotFound
    }
    if err != nil {
        return nil, err
    }
    return &st, nil
}

// GetMovie returns one movie by ID.
func (r *Repo) GetMovie(ctx context.Context, movieID uint64) (*model.Movie, error) {
    const q = `SELECT id, title FROM movies WHERE id = ?`
    var mv model.Movie
    err := r.db.QueryRowContext(ctx, q, movieID).Scan(&mv.ID, &mv.Title)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrMovieNotFound
    }
    if err != nil {
        return nil, err
    }
    return &mv, nil
}

// ListSeatLayout returns the fixed seating grid of the showtime's screen
// ordered by row then column.  The seat store consumes it once to
// materialize the initial all-AVAILABLE status rows.
func (r *Repo) ListSeatLayout(ctx context.Context, showtimeID uint64) ([]model.LayoutSeat, error) {
    if _, err := r.GetShowtime(ctx, showtimeID); err != nil {
        return nil, err
    }
    const q = `SELECT ss.id, ss.row_label, ss.seat_col
               FROM screen_seats ss
               JOIN showtimes st ON st.screen = ss.screen
               WHERE st.id = ?
               ORDER BY ss.row_label, ss.seat_col`
    rows, err := r.db.QueryContext(ctx, q, showtimeID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var layout []model.LayoutSeat
    for rows.Next() {
        var ls model.LayoutSeat
        if err := rows.Scan(&ls.SeatID, &ls.RowLabel, &ls.SeatCol); err != nil {
            return nil, err
        }
        layout = append(layout, ls)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return layout, nil
}
