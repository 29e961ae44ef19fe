package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserIDKey is the echo context key the acting user's id is stored under.
const UserIDKey = "userID"

// UserContext extracts the acting user id set by the auth gateway.
// Verifying identity is the gateway's job; this service only needs to know
// who is acting for ownership checks.
func UserContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get("X-User-ID")
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing X-User-ID header")
			}
			id, err := strconv.ParseUint(raw, 10, 32)
			if err != nil || id == 0 {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid X-User-ID header")
			}
			c.Set(UserIDKey, uint(id))
			return next(c)
		}
	}
}
