package handler

import (
    "context"
    "errors"
    "log"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/panaview/reservation-engine/internal/catalog"
    "github.com/panaview/reservation-engine/internal/middleware"
    "github.com/panaview/reservation-engine/internal/model"
    "github.com/panaview/reservation-engine/internal/queue"
    "github.com/panaview/reservation-engine/internal/session"
    "github.com/panaview/reservation-engine/internal/store"
    "github.com/panaview/reservation-engine/internal/utils"
)

// EventPublisher publishes booking events after a commit.  A nil
// publisher disables events; failures never affect the booking.
type EventPublisher interface {
    PublishBookingConfirmed(ctx context.Context, event queue.BookingConfirmedEvent) error
}

// SessionHandler drives the reservation session lifecycle: open, toggle,
// confirm, abandon.  The toggle/confirm/abandon routes must sit behind
// middleware.SessionAuth, which resolves the bearer token to a holder
// token in the request context.
type SessionHandler struct {
    Catalog       ShowtimeCatalog
    Store         store.Store
    Sessions      *session.Manager
    Publisher     EventPublisher
    SessionSecret string
    SessionTTLMin int
}

// NewSessionHandler constructs a SessionHandler.  Publisher may be nil;
// all other dependencies must be non-nil.
func NewSessionHandler(cat ShowtimeCatalog, st store.Store, mgr *session.Manager, pub EventPublisher, secret string, ttlMin int) *SessionHandler {
    if cat == nil || st == nil || mgr == nil {
        panic("nil dependency passed to NewSessionHandler")
    }
    return &SessionHandler{
        Catalog:       cat,
        Store:         st,
        Sessions:      mgr,
        Publisher:     pub,
        SessionSecret: secret,
        SessionTTLMin: ttlMin,
    }
}

// Open handles POST /v1/showtimes/:id/session.  It verifies the showtime
// exists, opens a reservation session and returns the signed session
// token the client must present on every subsequent seat operation.
func (h *SessionHandler) Open(c echo.Context) error {
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
    sess, err := h.Sessions.Open(showtimeID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to open session"})
    }
    tok, err := utils.NewSessionToken(h.SessionSecret, sess.Token(), showtimeID, h.SessionTTLMin)
    if err != nil {
        h.Sessions.Forget(sess.Token())
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to sign session token"})
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "session_token": tok.Token,
        "expires_at":    tok.Exp.Format(time.RFC3339),
        "max_seats":     session.MaxSeats,
    })
}

// Toggle handles POST /v1/session/seats/:seatID/toggle.  The response
// reports the seat's new relationship to this session plus the full held
// list so the client can re-render its blue seats without extra calls.
func (h *SessionHandler) Toggle(c echo.Context) error {
    sess, ok := h.currentSession(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown session"})
    }
    seatID, err := strconv.ParseUint(c.Param("seatID"), 10, 64)
    if err != nil || seatID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
    }
    result, err := sess.Toggle(c.Request().Context(), seatID)
    if err != nil {
        switch {
        case errors.Is(err, session.ErrCapExceeded):
            return c.JSON(http.StatusUnprocessableEntity, echo.Map{
                "error":     "selection cap exceeded",
                "max_seats": session.MaxSeats,
            })
        case errors.Is(err, store.ErrSeatConflict):
            // Expected under contention; the client refreshes the seat map.
            return c.JSON(http.StatusConflict, echo.Map{"error": "seat no longer available"})
        case errors.Is(err, store.ErrSeatNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
        case errors.Is(err, session.ErrSessionClosed):
            return c.JSON(http.StatusGone, echo.Map{"error": "session closed"})
        default:
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "seat store unavailable"})
        }
    }
    return c.JSON(http.StatusOK, echo.Map{
        "seat_id":       seatID,
        "state":         result,
        "held_seat_ids": sess.HeldSeats(),
    })
}

// Confirm handles POST /v1/session/confirm.  A full commit returns 201
// with the booking.  A partial commit returns 409 listing exactly the
// seats that were lost between hold and commit, together with the
// booking that covers the seats that did sell; the customer re-picks
// only the lost ones.
func (h *SessionHandler) Confirm(c echo.Context) error {
    sess, ok := h.currentSession(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown session"})
    }
    ctx := c.Request().Context()
    booking, err := sess.Confirm(ctx)

    var partial *store.PartialConflictError
    switch {
    case err == nil:
        h.Sessions.Forget(sess.Token())
        h.publishConfirmed(booking, nil)
        return c.JSON(http.StatusCreated, echo.Map{"booking": booking})
    case errors.As(err, &partial):
        h.Sessions.Forget(sess.Token())
        h.publishConfirmed(booking, partial.Lost)
        return c.JSON(http.StatusConflict, echo.Map{
            "error":         "some seats were lost before commit",
            "lost_seat_ids": partial.Lost,
            "booking":       booking, // nil when every seat was lost
        })
    case errors.Is(err, session.ErrNoSelection):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "no seats selected"})
    case errors.Is(err, session.ErrSessionClosed):
        return c.JSON(http.StatusGone, echo.Map{"error": "session closed"})
    default:
        // Holds stand; the client may retry the confirm.
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "seat store unavailable"})
    }
}

// Abandon handles DELETE /v1/session.  Every held seat is released
// best-effort and the session is forgotten; the route always succeeds
// because abandonment has no user waiting on a result.
func (h *SessionHandler) Abandon(c echo.Context) error {
    token, _ := c.Get(middleware.CtxHolderToken).(string)
    if token != "" {
        h.Sessions.Abandon(c.Request().Context(), token)
    }
    return c.NoContent(http.StatusNoContent)
}

// currentSession resolves the holder token injected by SessionAuth to a
// live session.
func (h *SessionHandler) currentSession(c echo.Context) (*session.Session, bool) {
    token, _ := c.Get(middleware.CtxHolderToken).(string)
    if token == "" {
        return nil, false
    }
    return h.Sessions.Get(token)
}

// publishConfirmed emits the booking event in the background.  Publish
// and lookup failures are logged only; the sale is already durable.
func (h *SessionHandler) publishConfirmed(booking *model.Booking, lost []uint64) {
    if h.Publisher == nil || booking == nil {
        return
    }
    ev := queue.BookingConfirmedEvent{
        BookingID:   booking.ID,
        ShowtimeID:  booking.ShowtimeID,
        ConfirmedAt: booking.CreatedAt.Format(time.RFC3339),
    }
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer cancel()
        h.decorateEvent(ctx, &ev, booking, lost)
        if err := h.Publisher.PublishBookingConfirmed(ctx, ev); err != nil {
            log.Printf("booking event publish failed for booking %d: %v", booking.ID, err)
        }
    }()
}

// decorateEvent fills in movie and seat label context, best effort.
func (h *SessionHandler) decorateEvent(ctx context.Context, ev *queue.BookingConfirmedEvent, booking *model.Booking, lost []uint64) {
    if st, err := h.Catalog.GetShowtime(ctx, booking.ShowtimeID); err == nil {
        ev.ShowDate = st.ShowDate
        ev.ShowTime = st.ShowTime
        ev.Screen = st.Screen
        if mv, err := h.Catalog.GetMovie(ctx, st.MovieID); err == nil {
            ev.MovieTitle = mv.Title
        }
    }
    seats, err := h.Store.ListSeats(ctx, booking.ShowtimeID)
    if err != nil {
        return
    }
    labels := make(map[uint64]string, len(seats))
    for _, s := range seats {
        labels[s.SeatID] = s.Label()
    }
    for _, sid := range booking.SeatIDs {
        if l, ok := labels[sid]; ok {
            ev.SeatLabels = append(ev.SeatLabels, l)
        }
    }
    for _, sid := range lost {
        if l, ok := labels[sid]; ok {
            ev.LostSeatLabels = append(ev.LostSeatLabels, l)
        }
    }
}
