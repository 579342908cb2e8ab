// Package handler exposes the engine's operations over HTTP.  This file
// defines the read-only browse endpoints: movie listings, showtime
// dropdown data and the seat snapshot that drives the seat map's
// color-coding (green=AVAILABLE, blue=held by me, red=SOLD).
package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/panaview/reservation-engine/internal/catalog"
    "github.com/panaview/reservation-engine/internal/model"
    "github.com/panaview/reservation-engine/internal/store"
)

// ShowtimeCatalog is the slice of the external catalog the engine
// consumes.  *catalog.Repo satisfies it; tests substitute a fake.
type ShowtimeCatalog interface {
    ListMovies(ctx context.Context) ([]model.Movie, error)
    ListShowtimesByMovie(ctx context.Context, movieID uint64) ([]model.Showtime, error)
    GetShowtime(ctx context.Context, showtimeID uint64) (*model.Showtime, error)
    GetMovie(ctx context.Context, movieID uint64) (*model.Movie, error)
    ListSeatLayout(ctx context.Context, showtimeID uint64) ([]model.LayoutSeat, error)
}

// BrowseHandler serves the unauthenticated read endpoints.
type BrowseHandler struct {
    Catalog ShowtimeCatalog
    Store   store.Store
}

// NewBrowseHandler constructs a BrowseHandler.  Both dependencies must be
// non-nil.
func NewBrowseHandler(cat ShowtimeCatalog, st store.Store) *BrowseHandler {
    if cat == nil || st == nil {
        panic("nil dependency passed to NewBrowseHandler")
    }
    return &BrowseHandler{Catalog: cat, Store: st}
}

// SeatView is the seat map entry exposed to clients.  Holder identity is
// never exposed: a HELD seat looks the same whoever holds it, and the
// client decides "held by me" from its own session's held list.
type SeatView struct {
    SeatID uint64 `json:"seat_id"`
    Label  string `json:"label"`
    Row    string `json:"row"`
    Col    uint32 `json:"col"`
    Status string `json:"status"`
}

// ListMovies handles GET /v1/movies.
func (h *BrowseHandler) ListMovies(c echo.Context) error {
    movies, err := h.Catalog.ListMovies(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    if movies == nil {
        movies = []model.Movie{}
    }
    return c.JSON(http.StatusOK, echo.Map{"items": movies})
}

// ListShowtimes handles GET /v1/movies/:id/showtimes.  It feeds the
// date/time dropdown pickers.
func (h *BrowseHandler) ListShowtimes(c echo.Context) error {
    movieID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || movieID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
    }
    showtimes, err := h.Catalog.ListShowtimesByMovie(c.Request().Context(), movieID)
    if err != nil {
        if errors.Is(err, catalog.ErrMovieNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    if showtimes == nil {
        showtimes = []model.Showtime{}
    }
    return c.JSON(http.StatusOK, echo.Map{"items": showtimes})
}

// ListSeats handles GET /v1/showtimes/:id/seats.  The response is a
// snapshot ordered by row then column; it may be briefly stale relative
// to concurrent holds, and clients are expected to re-fetch after any
// conflict response.
func (h *BrowseHandler) ListSeats(c echo.Context) error {
    showtimeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || showtimeID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
    }
    ctx := c.Request().Context()
    if _, err := h.Catalog.GetShowtime(ctx, showtimeID); err != nil {
        if errors.Is(err, catalog.ErrShowtimeNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    seats, err := h.Store.ListSeats(ctx, showtimeID)
    if err != nil {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "seat store unavailable"})
    }
    out := make([]SeatView, 0, len(seats))
    for _, s := range seats {
        out = append(out, SeatView{
            SeatID: s.SeatID,
            Label:  s.Label(),
            Row:    s.RowLabel,
            Col:    s.SeatCol,
            Status: s.Status,
        })
    }
    return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// InitSeats handles POST /v1/showtimes/:id/seats/init.  The external
// scheduler calls it once after creating a showtime; the engine reads the
// screen's layout from the catalog and materializes the initial
// all-AVAILABLE rows.  Re-running is harmless.
func (h *BrowseHandler) InitSeats(c echo.Context) error {
    showtimeID, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || showtimeID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
    }
    ctx := c.Request().Context()
    layout, err := h.Catalog.ListSeatLayout(ctx, showtimeID)
    if err != nil {
        if errors.Is(err, catalog.ErrShowtimeNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
    }
    if len(layout) == 0 {
        return c.JSON(http.StatusConflict, echo.Map{"error": "showtime has no seat layout"})
    }
    if err := h.Store.Materialize(ctx, showtimeID, layout); err != nil {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "seat store unavailable"})
    }
    return c.JSON(http.StatusCreated, echo.Map{"seats": len(layout)})
}
