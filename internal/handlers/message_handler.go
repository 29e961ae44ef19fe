package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/regami-app/backend/internal/models"
	"github.com/regami-app/backend/internal/realtime"
	"github.com/regami-app/backend/internal/repositories"
)

// MessageHandler handles chat between the two parties of a match. Delivery
// of new-message events reuses the dispatcher's notify path; clients order
// messages by their own created_at, not by arrival.
type MessageHandler struct {
	messageRepository      repositories.MessageRepository
	matchRepository        repositories.MatchRepository
	availabilityRepository repositories.AvailabilityRepository
	dispatcher             *realtime.Dispatcher
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(msgRepo repositories.MessageRepository, matchRepo repositories.MatchRepository, availRepo repositories.AvailabilityRepository, dispatcher *realtime.Dispatcher) *MessageHandler {
	return &MessageHandler{
		messageRepository:      msgRepo,
		matchRepository:        matchRepo,
		availabilityRepository: availRepo,
		dispatcher:             dispatcher,
	}
}

// RegisterMessageRoutes registers chat routes
func (h *MessageHandler) RegisterMessageRoutes(g *echo.Group) {
	g.POST("/matches/:id/messages", h.SendMessage)
	g.GET("/matches/:id/messages", h.GetMessages)
}

// matchParties resolves the owner and seeker of a match and verifies the
// acting user is one of them.
func (h *MessageHandler) matchParties(c echo.Context, userID uint) (*models.Match, uint, uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return nil, 0, 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid match id")
	}
	match, err := h.matchRepository.GetMatchByID(uint(id))
	if err != nil {
		return nil, 0, 0, echo.NewHTTPError(http.StatusNotFound, "Match not found")
	}
	offer, err := h.availabilityRepository.GetOfferByID(match.OfferID)
	if err != nil {
		return nil, 0, 0, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	request, err := h.availabilityRepository.GetRequestByID(match.RequestID)
	if err != nil {
		return nil, 0, 0, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if userID != offer.UserID && userID != request.UserID {
		return nil, 0, 0, echo.NewHTTPError(http.StatusForbidden, "Not a party to this match")
	}
	return match, offer.UserID, request.UserID, nil
}

// SendMessage stores a chat message and notifies the counterparty
func (h *MessageHandler) SendMessage(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	match, ownerID, seekerID, err := h.matchParties(c, userID)
	if err != nil {
		return err
	}

	var req models.SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	recipientID := ownerID
	if userID == ownerID {
		recipientID = seekerID
	}

	msg := &models.Message{
		MatchID:     match.ID,
		SenderID:    userID,
		RecipientID: recipientID,
		Content:     req.Content,
	}
	if err := h.messageRepository.CreateMessage(c.Request().Context(), msg); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	data := models.MessageEventData{
		MatchID:   match.ID,
		MessageID: msg.ID.Hex(),
		SenderID:  userID,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
	if err := h.dispatcher.Notify(c.Request().Context(), recipientID, models.EventNewMessage, data,
		"You have a new message about your match."); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, msg)
}

// GetMessages lists a match's conversation in send order
func (h *MessageHandler) GetMessages(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	match, _, _, err := h.matchParties(c, userID)
	if err != nil {
		return err
	}

	skip, _ := strconv.ParseInt(c.QueryParam("skip"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	messages, err := h.messageRepository.GetMessagesByMatchID(c.Request().Context(), match.ID, skip, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"items": messages, "count": len(messages)})
}
