package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/regami-app/backend/internal/matching"
	"github.com/regami-app/backend/internal/models"
	"github.com/regami-app/backend/internal/repositories"
	"gorm.io/gorm"
)

// AvailabilityHandler handles HTTP requests for care offers and requests.
// Every successful upsert triggers a synchronous matcher scan.
type AvailabilityHandler struct {
	availabilityRepository repositories.AvailabilityRepository
	matcher                *matching.Matcher
}

// NewAvailabilityHandler creates a new AvailabilityHandler
func NewAvailabilityHandler(availRepo repositories.AvailabilityRepository, matcher *matching.Matcher) *AvailabilityHandler {
	return &AvailabilityHandler{
		availabilityRepository: availRepo,
		matcher:                matcher,
	}
}

// RegisterAvailabilityRoutes registers offer and request routes
func (h *AvailabilityHandler) RegisterAvailabilityRoutes(g *echo.Group) {
	g.POST("/availability/offers", h.CreateOffer)
	g.PUT("/availability/offers/:id", h.UpdateOffer)
	g.DELETE("/availability/offers/:id", h.WithdrawOffer)
	g.GET("/availability/offers/mine", h.MyOffers)
	g.POST("/availability/requests", h.CreateRequest)
	g.PUT("/availability/requests/:id", h.UpdateRequest)
	g.DELETE("/availability/requests/:id", h.WithdrawRequest)
	g.GET("/availability/requests/mine", h.MyRequests)
}

// validateWindow rejects malformed intervals before they reach the store or
// the matcher.
func validateWindow(start, end time.Time) error {
	if !start.Before(end) {
		return echo.NewHTTPError(http.StatusBadRequest, "start_at must be before end_at")
	}
	if !end.After(time.Now()) {
		return echo.NewHTTPError(http.StatusBadRequest, "time range must be in the future")
	}
	return nil
}

// CreateOffer posts a new care offer and scans for matching requests
func (h *AvailabilityHandler) CreateOffer(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateOfferRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := validateWindow(req.StartAt, req.EndAt); err != nil {
		return err
	}

	offer := &models.AvailabilityOffer{
		UserID:  userID,
		DogID:   req.DogID,
		StartAt: req.StartAt,
		EndAt:   req.EndAt,
		Lat:     req.Lat,
		Lng:     req.Lng,
	}
	if err := h.availabilityRepository.CreateOffer(offer); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	matches, err := h.matcher.OfferUpserted(c.Request().Context(), offer)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Offer saved but matching failed, retry later")
	}

	return c.JSON(http.StatusCreated, echo.Map{"offer": offer, "matches": matches})
}

// UpdateOffer changes an open offer's window or location and re-scans
func (h *AvailabilityHandler) UpdateOffer(c echo.Context) error {
	userID := getUserIDFromContext(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid offer id")
	}

	offer, err := h.availabilityRepository.GetOfferByID(uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Offer not found")
	}
	if offer.UserID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "Not your offer")
	}
	if offer.Status != models.AvailabilityOpen {
		return echo.NewHTTPError(http.StatusConflict, "Offer is no longer open")
	}

	var req models.CreateOfferRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := validateWindow(req.StartAt, req.EndAt); err != nil {
		return err
	}

	offer.DogID = req.DogID
	offer.StartAt = req.StartAt
	offer.EndAt = req.EndAt
	offer.Lat = req.Lat
	offer.Lng = req.Lng
	if err := h.availabilityRepository.UpdateOffer(offer); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	matches, err := h.matcher.OfferUpserted(c.Request().Context(), offer)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Offer saved but matching failed, retry later")
	}

	return c.JSON(http.StatusOK, echo.Map{"offer": offer, "matches": matches})
}

// WithdrawOffer takes an open offer off the market. Existing matches stay
// alive and must be rejected or cancelled by a party.
func (h *AvailabilityHandler) WithdrawOffer(c echo.Context) error {
	userID := getUserIDFromContext(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid offer id")
	}

	offer, err := h.availabilityRepository.GetOfferByID(uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Offer not found")
	}
	if offer.UserID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "Not your offer")
	}

	if err := h.availabilityRepository.WithdrawOffer(offer.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusConflict, "Offer is no longer open")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// MyOffers lists the acting user's offers
func (h *AvailabilityHandler) MyOffers(c echo.Context) error {
	userID := getUserIDFromContext(c)
	offers, err := h.availabilityRepository.ListOffersByUser(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"items": offers, "total": len(offers)})
}

// CreateRequest posts a new care request and scans for matching offers
func (h *AvailabilityHandler) CreateRequest(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateCareRequestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := validateWindow(req.StartAt, req.EndAt); err != nil {
		return err
	}

	careReq := &models.AvailabilityRequest{
		UserID:  userID,
		StartAt: req.StartAt,
		EndAt:   req.EndAt,
		Lat:     req.Lat,
		Lng:     req.Lng,
		RadiusM: req.RadiusM,
	}
	if err := h.availabilityRepository.CreateRequest(careReq); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	matches, err := h.matcher.RequestUpserted(c.Request().Context(), careReq)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Request saved but matching failed, retry later")
	}

	return c.JSON(http.StatusCreated, echo.Map{"request": careReq, "matches": matches})
}

// UpdateRequest changes an open request's window, location or radius and re-scans
func (h *AvailabilityHandler) UpdateRequest(c echo.Context) error {
	userID := getUserIDFromContext(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request id")
	}

	careReq, err := h.availabilityRepository.GetRequestByID(uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Request not found")
	}
	if careReq.UserID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "Not your request")
	}
	if careReq.Status != models.AvailabilityOpen {
		return echo.NewHTTPError(http.StatusConflict, "Request is no longer open")
	}

	var req models.CreateCareRequestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := validateWindow(req.StartAt, req.EndAt); err != nil {
		return err
	}

	careReq.StartAt = req.StartAt
	careReq.EndAt = req.EndAt
	careReq.Lat = req.Lat
	careReq.Lng = req.Lng
	careReq.RadiusM = req.RadiusM
	if err := h.availabilityRepository.UpdateRequest(careReq); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	matches, err := h.matcher.RequestUpserted(c.Request().Context(), careReq)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Request saved but matching failed, retry later")
	}

	return c.JSON(http.StatusOK, echo.Map{"request": careReq, "matches": matches})
}

// WithdrawRequest takes an open request off the market
func (h *AvailabilityHandler) WithdrawRequest(c echo.Context) error {
	userID := getUserIDFromContext(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request id")
	}

	careReq, err := h.availabilityRepository.GetRequestByID(uint(id))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Request not found")
	}
	if careReq.UserID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "Not your request")
	}

	if err := h.availabilityRepository.WithdrawRequest(careReq.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusConflict, "Request is no longer open")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// MyRequests lists the acting user's requests
func (h *AvailabilityHandler) MyRequests(c echo.Context) error {
	userID := getUserIDFromContext(c)
	reqs, err := h.availabilityRepository.ListRequestsByUser(userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"items": reqs, "total": len(reqs)})
}
