package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/panaview/reservation-engine/internal/utils"
)

// Context keys populated by SessionAuth for downstream handlers.
const (
    CtxHolderToken = "holder_token"
    CtxShowtimeID  = "showtime_id"
)

// SessionAuth returns an Echo middleware that validates a Bearer session
// token and injects the holder token and showtime ID into the request
// context.  It guards the toggle/confirm/abandon routes so that a client
// can only act on a session whose token this service signed; it performs
// no user authentication.
func SessionAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing session token"})
            }
            raw := strings.TrimPrefix(auth, "Bearer ")
            claims, err := utils.ParseSessionToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid session token"})
            }
            c.Set(CtxHolderToken, claims.HolderToken)
            c.Set(CtxShowtimeID, claims.ShowtimeID)
            return next(c)
        }
    }
}
