// Package store implements the seat store: the authoritative record of
// every seat's status for every showtime.  All status transitions pass
// through it so that two customers can never be sold the same seat.
package store

import (
    "errors"
    "fmt"
    "strconv"
    "strings"
)

// ErrSeatConflict is returned by TryHold when the seat is already held by a
// different session or already sold.  This is an expected outcome, not an
// infrastructure failure; handlers should translate it into a "seat no
// longer available" response.
var ErrSeatConflict = errors.New("seat unavailable")

// ErrNotHeldByYou is returned by Release when the seat is not currently
// held by the calling session.  The store leaves the seat untouched, which
// prevents a stale UI event from releasing someone else's hold.
var ErrNotHeldByYou = errors.New("seat not held by this session")

// ErrSeatNotFound is returned when the (showtime, seat) pair has no status
// row, i.e. the showtime was never materialized or the seat id is bogus.
var ErrSeatNotFound = errors.New("seat not found")

// PartialConflictError reports a commit in which some held seats could not
// be transitioned to SOLD because their hold was no longer owned by the
// committing session.  Seats that were still held by the session are sold
// regardless; Lost contains exactly the seat IDs that must be re-picked.
type PartialConflictError struct {
    Lost []uint64
}

func (e *PartialConflictError) Error() string {
    ids := make([]string, 0, len(e.Lost))
    for _, id := range e.Lost {
        ids = append(ids, strconv.FormatUint(id, 10))
    }
    return fmt.Sprintf("commit lost %d seat(s): %s", len(e.Lost), strings.Join(ids, ","))
}

// UnavailableError wraps an infrastructure failure (database down, broken
// connection).  The store never retries these itself; callers decide the
// retry policy.  Use errors.As to distinguish it from the expected-outcome
// sentinels above.
type UnavailableError struct {
    Op  string
    Err error
}

func (e *UnavailableError) Error() string { return "store unavailable: " + e.Op + ": " + e.Err.Error() }
func (e *UnavailableError) Unwrap() error { return e.Err }

func unavailable(op string, err error) error {
    return &UnavailableError{Op: op, Err: err}
}
