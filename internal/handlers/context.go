package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/regami-app/backend/internal/middleware"
)

// getUserIDFromContext returns the acting user id set by the user-context
// middleware, or 0 when absent.
func getUserIDFromContext(c echo.Context) uint {
	if id, ok := c.Get(middleware.UserIDKey).(uint); ok {
		return id
	}
	return 0
}
