package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/regami-app/backend/internal/matching"
	"github.com/regami-app/backend/internal/models"
	"github.com/regami-app/backend/internal/repositories"
)

// MatchHandler exposes the match lifecycle to clients. All state changes go
// through the lifecycle manager; this layer only maps errors to statuses.
type MatchHandler struct {
	matchRepository repositories.MatchRepository
	lifecycle       *matching.Lifecycle
}

// NewMatchHandler creates a new MatchHandler
func NewMatchHandler(matchRepo repositories.MatchRepository, lifecycle *matching.Lifecycle) *MatchHandler {
	return &MatchHandler{matchRepository: matchRepo, lifecycle: lifecycle}
}

// RegisterMatchRoutes registers match routes
func (h *MatchHandler) RegisterMatchRoutes(g *echo.Group) {
	g.GET("/matches/mine", h.MyMatches)
	g.POST("/matches/:id/accept", h.transition(matching.ActionAccept))
	g.POST("/matches/:id/confirm", h.transition(matching.ActionConfirm))
	g.POST("/matches/:id/reject", h.transition(matching.ActionReject))
	g.POST("/matches/:id/cancel", h.transition(matching.ActionCancel))
}

// MyMatches lists matches where the acting user owns either side, with an
// optional status filter
func (h *MatchHandler) MyMatches(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	status := models.MatchStatus(c.QueryParam("status"))
	matches, err := h.matchRepository.ListByUser(userID, status)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"items": matches, "total": len(matches)})
}

func (h *MatchHandler) transition(action matching.Action) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := getUserIDFromContext(c)
		if userID == 0 {
			return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
		}
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid match id")
		}

		match, err := h.lifecycle.Transition(c.Request().Context(), uint(id), action, userID)
		if err != nil {
			switch {
			case errors.Is(err, matching.ErrMatchNotFound):
				return echo.NewHTTPError(http.StatusNotFound, "Match not found")
			case errors.Is(err, matching.ErrForbidden):
				return echo.NewHTTPError(http.StatusForbidden, "Not authorized to respond to this match")
			case errors.Is(err, matching.ErrStaleTransition):
				return echo.NewHTTPError(http.StatusConflict, "Match state changed, re-fetch and retry")
			case errors.Is(err, matching.ErrInvalidAction):
				return echo.NewHTTPError(http.StatusBadRequest, "Unknown action")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, match)
	}
}
