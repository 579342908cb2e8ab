package router // router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing

    "github.com/panaview/reservation-engine/internal/handler"    // import the handlers that implement business logic
    "github.com/panaview/reservation-engine/internal/middleware" // import middleware for session authentication
)

// RegisterRoutes registers routes that do not require a session on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // Map the GET request at path "/healthz" to the Health handler.  This
    // endpoint can be used by load balancers or monitoring systems to verify
    // that the service is up and running.
    e.GET("/healthz", handler.Health)
}

// RegisterBrowse registers unauthenticated browse endpoints.  These routes
// return sanitized catalog and seat-status data for guests; they never
// expose holder identities.  The optional cache middleware serves hot
// seat maps from Redis when configured; pass nil to disable caching.
func RegisterBrowse(e *echo.Echo, b *handler.BrowseHandler, cache echo.MiddlewareFunc) {
    mws := []echo.MiddlewareFunc{}
    if cache != nil {
        mws = append(mws, cache)
    }
    // Expose the list of movies currently on the board.
    e.GET("/v1/movies", b.ListMovies, mws...)
    // List showtimes scheduled for a specific movie.
    e.GET("/v1/movies/:id/showtimes", b.ListShowtimes, mws...)
    // Seat map for a showtime.  Status values are AVAILABLE, HELD or SOLD.
    e.GET("/v1/showtimes/:id/seats", b.ListSeats, mws...)
}

// RegisterEngine registers the reservation session endpoints.  Opening a
// session only needs a valid showtime; every other route requires the
// session token minted at open time, verified by SessionAuth.  The
// optional rate limiter throttles seat mutations per session; pass nil
// to disable limiting.
func RegisterEngine(e *echo.Echo, s *handler.SessionHandler, sessionSecret string, limiter echo.MiddlewareFunc) {
    open := []echo.MiddlewareFunc{}
    if limiter != nil {
        open = append(open, limiter)
    }
    // Open a reservation session against a showtime and receive a token.
    e.POST("/v1/showtimes/:id/session", s.Open, open...)

    // Attach middlewares at group construction time for clarity.
    g := e.Group(
        "/v1/session",
        middleware.SessionAuth(sessionSecret),
    )
    if limiter != nil {
        g.Use(limiter)
    }
    // Toggle a seat in or out of the session's selection.
    g.POST("/seats/:seatID/toggle", s.Toggle)
    // Commit the selection into a booking, first-writer-wins per seat.
    g.POST("/confirm", s.Confirm)
    // Release every hold and close the session.
    g.DELETE("", s.Abandon)
}

// RegisterAdmin registers operational endpoints used when provisioning a
// showtime.  Seat materialization is idempotent, so the route is safe to
// re-run; it is kept off the public surface by path convention only since
// operator authentication is out of scope for this service.
func RegisterAdmin(e *echo.Echo, b *handler.BrowseHandler) {
    // Materialize the screen layout into per-showtime seat rows.
    e.POST("/v1/showtimes/:id/seats/init", b.InitSeats)
}
