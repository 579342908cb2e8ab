package catalog

import (
    "context"
    "fmt"
    "sort"

    "github.com/panaview/reservation-engine/internal/model"
)

// Fixture is a static in-memory catalog used by the memory store backend.
// It serves a fixed board of movies, showtimes and screen layouts and is
// suitable for local development and tests where no catalog database is
// available.
type Fixture struct {
    movies    []model.Movie
    showtimes []model.Showtime
    layouts   map[string][]model.LayoutSeat // keyed by screen name
}

// NewFixture builds a catalog with one movie, one showtime and a 5x8
// seating grid on screen "1".  Seat IDs are assigned row-major starting
// at 1 so seat 1 is A1 and seat 40 is E8.
func NewFixture() *Fixture {
    f := &Fixture{
        movies: []model.Movie{
            {ID: 1, Title: "Panaview Premiere"},
        },
        showtimes: []model.Showtime{
            {ID: 1, MovieID: 1, ShowDate: "2026-01-01", ShowTime: "19:30", Screen: "1"},
        },
        layouts: map[string][]model.LayoutSeat{},
    }
    f.layouts["1"] = GridLayout(5, 8)
    return f
}

// GridLayout builds a rows-by-cols seat grid with letter row labels.
// Rows beyond Z wrap with a numeric suffix, though no real screen gets
// that big.
func GridLayout(rows, cols int) []model.LayoutSeat {
    layout := make([]model.LayoutSeat, 0, rows*cols)
    var id uint64
    for r := 0; r < rows; r++ {
        label := rowLabel(r)
        for c := 1; c <= cols; c++ {
            id++
            layout = append(layout, model.LayoutSeat{SeatID: id, RowLabel: label, SeatCol: uint32(c)})
        }
    }
    return layout
}

func rowLabel(r int) string {
    if r < 26 {
        return string(rune('A' + r))
    }
    return fmt.Sprintf("%c%d", 'A'+r%26, r/26)
}

// AddMovie registers an extra movie on the board.
func (f *Fixture) AddMovie(m model.Movie) { f.movies = append(f.movies, m) }

// AddShowtime registers an extra showtime.  The screen must already have
// a layout; use AddScreen first for new screens.
func (f *Fixture) AddShowtime(st model.Showtime) { f.showtimes = append(f.showtimes, st) }

// AddScreen registers a screen layout.
func (f *Fixture) AddScreen(name string, layout []model.LayoutSeat) { f.layouts[name] = layout }

// ListMovies returns every movie on the board ordered by title.
func (f *Fixture) ListMovies(ctx context.Context) ([]model.Movie, error) {
    out := make([]model.Movie, len(f.movies))
    copy(out, f.movies)
    sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
    return out, nil
}

// ListShowtimesByMovie returns the showtimes scheduled for a movie.
func (f *Fixture) ListShowtimesByMovie(ctx context.Context, movieID uint64) ([]model.Showtime, error) {
    if _, err := f.GetMovie(ctx, movieID); err != nil {
        return nil, err
    }
    var out []model.Showtime
    for _, st := range f.showtimes {
        if st.MovieID == movieID {
            out = append(out, st)
        }
    }
    return out, nil
}

// GetShowtime looks up a single showtime by id.
func (f *Fixture) GetShowtime(ctx context.Context, showtimeID uint64) (*model.Showtime, error) {
    for i := range f.showtimes {
        if f.showtimes[i].ID == showtimeID {
            st := f.showtimes[i]
            return &st, nil
        }
    }
    return nil, ErrShowtimeNotFound
}

// GetMovie looks up a single movie by id.
func (f *Fixture) GetMovie(ctx context.Context, movieID uint64) (*model.Movie, error) {
    for i := range f.movies {
        if f.movies[i].ID == movieID {
            m := f.movies[i]
            return &m, nil
        }
    }
    return nil, ErrMovieNotFound
}

// ListSeatLayout returns the seating grid of the screen hosting the
// showtime.
func (f *Fixture) ListSeatLayout(ctx context.Context, showtimeID uint64) ([]model.LayoutSeat, error) {
    st, err := f.GetShowtime(ctx, showtimeID)
    if err != nil {
        return nil, err
    }
    layout := f.layouts[st.Screen]
    out := make([]model.LayoutSeat, len(layout))
    copy(out, layout)
    return out, nil
}
