// Package session bridges raw seat-toggle events from the presentation
// layer to seat store transitions.  A session is the only mutation path
// for a customer's working set of picks: it enforces the selection cap,
// keeps toggling idempotent, and guarantees that no hold leaks when the
// customer navigates away.
package session

import (
    "context"
    "errors"
    "sync"

    "github.com/panaview/reservation-engine/internal/model"
    "github.com/panaview/reservation-engine/internal/store"
)

// MaxSeats is the per-session selection cap.  The sixth hold attempt is
// rejected before the store is touched.
const MaxSeats = 5

// Session lifecycle states.
const (
    StateBrowsing        = "BROWSING"         // no seats held yet
    StateSelecting       = "SELECTING"        // 1..MaxSeats seats held
    StateBooked          = "BOOKED"           // terminal: full commit succeeded
    StatePartiallyBooked = "PARTIALLY_BOOKED" // terminal: commit lost some seats
    StateAbandoned       = "ABANDONED"        // terminal: customer walked away
)

// Toggle outcomes.
const (
    NowHeld      = "HELD"      // the toggle took a hold on the seat
    NowAvailable = "AVAILABLE" // the toggle released the caller's hold
)

// ErrCapExceeded is returned when a toggle would exceed MaxSeats held
// seats.  The store is left untouched.
var ErrCapExceeded = errors.New("selection cap exceeded")

// ErrNoSelection is returned by Confirm when the session holds no seats.
var ErrNoSelection = errors.New("no seats selected")

// ErrSessionClosed is returned when an operation reaches a session in a
// terminal state.  The customer must open a fresh session.
var ErrSessionClosed = errors.New("session closed")

// Session is one customer's in-progress seat selection for one showtime.
// The holder token doubles as the session's identity and as the ownership
// marker the store records on each hold.
type Session struct {
    mu         sync.Mutex
    token      string
    showtimeID uint64
    held       map[uint64]struct{}
    state      string
    store      store.Store
}

// Token returns the session's opaque holder token.
func (s *Session) Token() string { return s.token }

// ShowtimeID returns the showtime this session selects seats for.
func (s *Session) ShowtimeID() uint64 { return s.showtimeID }

// State returns the session's current lifecycle state.
func (s *Session) State() string {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.state
}

// HeldSeats returns the seat IDs currently held by this session.
func (s *Session) HeldSeats() []uint64 {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.heldLocked()
}

func (s *Session) heldLocked() []uint64 {
    ids := make([]uint64, 0, len(s.held))
    for id := range s.held {
        ids = append(ids, id)
    }
    return ids
}

func (s *Session) terminalLocked() bool {
    switch s.state {
    case StateBooked, StatePartiallyBooked, StateAbandoned:
        return true
    }
    return false
}

// Toggle flips one seat in or out of the selection.
//
// A seat already held by this session is released and removed; that path
// always succeeds, so repeated clicks after a successful release behave
// exactly like toggling from a fresh AVAILABLE seat.  A seat not held by
// this session is first checked against the cap, then claimed via the
// store; on store.ErrSeatConflict the selection is unchanged and the UI
// must refresh that seat's rendered status.
func (s *Session) Toggle(ctx context.Context, seatID uint64) (string, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.terminalLocked() {
        return "", ErrSessionClosed
    }
    if _, mine := s.held[seatID]; mine {
        if err := s.store.Release(ctx, s.showtimeID, seatID, s.token); err != nil && !errors.Is(err, store.ErrNotHeldByYou) {
            // Infrastructure failure: keep the pick so the customer can retry.
            return "", err
        }
        delete(s.held, seatID)
        if len(s.held) == 0 {
            s.state = StateBrowsing
        }
        return NowAvailable, nil
    }
    if len(s.held) >= MaxSeats {
        return "", ErrCapExceeded
    }
    if err := s.store.TryHold(ctx, s.showtimeID, seatID, s.token); err != nil {
        return "", err
    }
    s.held[seatID] = struct{}{}
    s.state = StateSelecting
    return NowHeld, nil
}

// Confirm converts the session's held seats into a booking.  The store
// re-validates every hold against current persisted state at commit time:
// on a full commit the session ends Booked; when some seats were lost the
// session ends PartiallyBooked and the returned *store.PartialConflictError
// names exactly the seats the customer must re-pick.  The booking, when
// non-nil, covers the seats that were sold in this same call.
func (s *Session) Confirm(ctx context.Context) (*model.Booking, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.terminalLocked() {
        return nil, ErrSessionClosed
    }
    if len(s.held) == 0 {
        return nil, ErrNoSelection
    }
    booking, err := s.store.Commit(ctx, s.showtimeID, s.heldLocked(), s.token)
    var partial *store.PartialConflictError
    switch {
    case err == nil:
        s.held = make(map[uint64]struct{})
        s.state = StateBooked
        return booking, nil
    case errors.As(err, &partial):
        // Lost seats are gone and sold seats no longer need the hold;
        // either way nothing remains held by this session.
        s.held = make(map[uint64]struct{})
        s.state = StatePartiallyBooked
        return booking, err
    default:
        // Infrastructure failure: holds stand, the caller decides the
        // retry policy.
        return nil, err
    }
}

// Abandon releases every held seat.  Cleanup is advisory: release
// failures are swallowed because no customer is waiting on a result, and
// a seat that could not be released is already owned by someone else or
// will be reclaimed by hold expiry.
func (s *Session) Abandon(ctx context.Context) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.terminalLocked() {
        return
    }
    for seatID := range s.held {
        _ = s.store.Release(ctx, s.showtimeID, seatID, s.token)
    }
    s.held = make(map[uint64]struct{})
    s.state = StateAbandoned
}
