package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/regami-app/backend/internal/models"
	"github.com/regami-app/backend/internal/repositories"
)

// UserHandler handles the small slice of user data this service owns
type UserHandler struct {
	userRepository repositories.UserRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo}
}

// RegisterUserRoutes registers user routes
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.PUT("/users/me/device-token", h.UpdateDeviceToken)
}

// UpdateDeviceToken registers the FCM token of the acting user's device
func (h *UserHandler) UpdateDeviceToken(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.UpdateDeviceTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.userRepository.SaveDeviceToken(userID, req.Token); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
