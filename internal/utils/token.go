package utils // package utils provides helpers for session token signing

import (
    "errors"
    "time"

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// SessionToken is the signed bearer token handed to the browser when a
// reservation session opens.  It is not user authentication: it only
// correlates subsequent toggle/confirm calls with the session that owns
// the holds, and signing prevents a client from forging another session's
// holder token.
type SessionToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// SessionClaims are the values recovered from a verified session token.
type SessionClaims struct {
    HolderToken string // the session's opaque holder token ("sid" claim)
    ShowtimeID  uint64 // the showtime the session was opened for
}

// ErrInvalidSessionToken is returned when a token fails signature or
// claim validation.
var ErrInvalidSessionToken = errors.New("invalid session token")

// NewSessionToken signs an HS256 JWT binding the holder token to its
// showtime.  The TTL bounds how long an idle browser tab can keep acting
// on the session; expiry of the bearer token does not by itself release
// the session's holds.
func NewSessionToken(secret, holderToken string, showtimeID uint64, ttlMin int) (SessionToken, error) {
    exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sid":      holderToken,
        "showtime": showtimeID,
        "exp":      exp.Unix(),
        "iat":      time.Now().UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return SessionToken{}, err
    }
    return SessionToken{Token: signed, Exp: exp}, nil
}

// ParseSessionToken verifies a session token and returns its claims.
func ParseSessionToken(secret, raw string) (SessionClaims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidSessionToken
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return SessionClaims{}, ErrInvalidSessionToken
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return SessionClaims{}, ErrInvalidSessionToken
    }
    sid, ok := claims["sid"].(string)
    if !ok || sid == "" {
        return SessionClaims{}, ErrInvalidSessionToken
    }
    showtime, ok := claims["showtime"].(float64)
    if !ok || showtime <= 0 {
        return SessionClaims{}, ErrInvalidSessionToken
    }
    return SessionClaims{HolderToken: sid, ShowtimeID: uint64(showtime)}, nil
}
