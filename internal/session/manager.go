package session

import (
    "context"
    "crypto/rand"
    "encoding/hex"
    "sync"

    "github.com/panaview/reservation-engine/internal/store"
)

// Manager tracks every live session by holder token.  The transport layer
// opens a session when a customer enters seat selection, resolves tokens
// back to sessions on each toggle, and closes the session on confirm,
// cancel or abandonment.
type Manager struct {
    mu       sync.Mutex
    store    store.Store
    sessions map[string]*Session
}

// NewManager returns a Manager that creates sessions against the given
// seat store.
func NewManager(st store.Store) *Manager {
    return &Manager{
        store:    st,
        sessions: make(map[string]*Session),
    }
}

// Open creates a session for the showtime with a fresh random holder
// token.
func (m *Manager) Open(showtimeID uint64) (*Session, error) {
    token, err := newHolderToken()
    if err != nil {
        return nil, err
    }
    s := &Session{
        token:      token,
        showtimeID: showtimeID,
        held:       make(map[uint64]struct{}),
        state:      StateBrowsing,
        store:      m.store,
    }
    m.mu.Lock()
    m.sessions[token] = s
    m.mu.Unlock()
    return s, nil
}

// Get resolves a holder token to its live session.
func (m *Manager) Get(token string) (*Session, bool) {
    m.mu.Lock()
    defer m.mu.Unlock()
    s, ok := m.sessions[token]
    return s, ok
}

// Abandon releases the session's holds and forgets it.  Unknown tokens
// are a no-op: abandonment may race with confirm and the second caller
// must not fail.
func (m *Manager) Abandon(ctx context.Context, token string) {
    m.mu.Lock()
    s, ok := m.sessions[token]
    delete(m.sessions, token)
    m.mu.Unlock()
    if ok {
        s.Abandon(ctx)
    }
}

// Forget drops a terminal session without touching the store.  Called
// after Confirm, whose commit already consumed or reported every hold.
func (m *Manager) Forget(token string) {
    m.mu.Lock()
    delete(m.sessions, token)
    m.mu.Unlock()
}

// newHolderToken returns 64 hex chars of cryptographically secure
// randomness.  The token is opaque to every layer but the store, which
// compares it verbatim on release and commit.
func newHolderToken() (string, error) {
    b := make([]byte, 32)
    if _, err := rand.Read(b); err != nil {
        return "", err
    }
    return hex.EncodeToString(b), nil
}
