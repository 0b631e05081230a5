package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/piresc/tripdispatch/internal/pkg/middleware"
	"github.com/piresc/tripdispatch/internal/pkg/models"
	"github.com/piresc/tripdispatch/internal/utils"
	"github.com/piresc/tripdispatch/services/dispatch"
)

// TripHandler handles HTTP requests for trip and driver operations
type TripHandler struct {
	dispatchUC dispatch.DispatchUC
}

// NewTripHandler creates a new trip HTTP handler
func NewTripHandler(dispatchUC dispatch.DispatchUC) *TripHandler {
	return &TripHandler{
		dispatchUC: dispatchUC,
	}
}

// RegisterRoutes registers the trip and driver routes on g
func (h *TripHandler) RegisterRoutes(g *echo.Group, positionLimiter echo.MiddlewareFunc) {
	trips := g.Group("/trips")
	trips.POST("", h.RequestTrip)
	trips.GET("", h.ListTrips)
	trips.GET("/:tripID", h.GetTrip)
	trips.POST("/:tripID/offer", h.RespondToOffer)
	trips.PUT("/:tripID/status", h.UpdateStatus)
	trips.POST("/:tripID/cancel", h.CancelTrip)
	if positionLimiter != nil {
		trips.POST("/:tripID/position", h.UpdatePosition, positionLimiter)
	} else {
		trips.POST("/:tripID/position", h.UpdatePosition)
	}

	drivers := g.Group("/drivers")
	drivers.POST("/online", h.GoOnline)
	drivers.POST("/offline", h.GoOffline)
}

// RequestTripResponse is returned once a trip is recorded
type RequestTripResponse struct {
	TripID string            `json:"trip_id"`
	Status models.TripStatus `json:"status"`
}

type offerResponseBody struct {
	Accept bool `json:"accept"`
}

type statusBody struct {
	Status   models.TripStatus `json:"status"`
	Position *models.Position  `json:"position,omitempty"`
}

type cancelBody struct {
	Reason string `json:"reason"`
}

func tripIDOf(c echo.Context) string {
	tripID := c.Param("tripID")
	middleware.SetTripID(c, tripID)
	return tripID
}

// RequestTrip creates a trip for the calling rider and starts dispatch
func (h *TripHandler) RequestTrip(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return utils.UnauthorizedResponse(c, "Missing caller identity")
	}

	var req models.TripRequest
	if err := c.Bind(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	trip, err := h.dispatchUC.RequestTrip(c.Request().Context(), actor, req)
	if err != nil {
		return writeError(c, err)
	}
	middleware.SetTripID(c, trip.ID)

	return utils.SuccessResponse(c, http.StatusCreated, "Trip requested", RequestTripResponse{
		TripID: trip.ID,
		Status: trip.Status,
	})
}

// GetTrip returns one trip to either of its parties
func (h *TripHandler) GetTrip(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return utils.UnauthorizedResponse(c, "Missing caller identity")
	}

	trip, err := h.dispatchUC.GetTrip(c.Request().Context(), actor, tripIDOf(c))
	if err != nil {
		return writeError(c, err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "", trip)
}

// ListTrips returns the caller's trips, optionally filtered by status
func (h *TripHandler) ListTrips(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return utils.UnauthorizedResponse(c, "Missing caller identity")
	}

	var statuses []models.TripStatus
	for _, s := range c.QueryParams()["status"] {
		status := models.TripStatus(s)
		if !status.Valid() {
			return utils.BadRequestResponse(c, "Unknown status "+s)
		}
		statuses = append(statuses, status)
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return utils.BadRequestResponse(c, "limit must be a positive integer")
		}
		limit = n
	}

	trips, err := h.dispatchUC.ListTrips(c.Request().Context(), actor, statuses, limit)
	if err != nil {
		return writeError(c, err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "", trips)
}

// RespondToOffer accepts or declines the driver's open offer
func (h *TripHandler) RespondToOffer(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return utils.UnauthorizedResponse(c, "Missing caller identity")
	}

	var body offerResponseBody
	if err := c.Bind(&body); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	if err := h.dispatchUC.RespondToOffer(c.Request().Context(), actor, tripIDOf(c), body.Accept); err != nil {
		return writeError(c, err)
	}
	return utils.SuccessResponse(c, http.StatusAccepted, "Response recorded", nil)
}

// UpdateStatus moves the trip along its lifecycle
func (h *TripHandler) UpdateStatus(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return utils.UnauthorizedResponse(c, "Missing caller identity")
	}

	var body statusBody
	if err := c.Bind(&body); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}
	if body.Status == "" {
		return utils.BadRequestResponse(c, "status is required")
	}

	trip, err := h.dispatchUC.UpdateStatus(c.Request().Context(), actor, tripIDOf(c), body.Status, body.Position)
	if err != nil {
		return writeError(c, err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Trip updated", trip)
}

// CancelTrip cancels the trip on behalf of the caller
func (h *TripHandler) CancelTrip(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return utils.UnauthorizedResponse(c, "Missing caller identity")
	}

	var body cancelBody
	if err := c.Bind(&body); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	trip, err := h.dispatchUC.CancelTrip(c.Request().Context(), actor, tripIDOf(c), body.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Trip cancelled", trip)
}

// UpdatePosition relays a live position for an active trip. HTTP callers
// share one throttling key per user.
func (h *TripHandler) UpdatePosition(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return utils.UnauthorizedResponse(c, "Missing caller identity")
	}

	var pos models.Position
	if err := c.Bind(&pos); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	err := h.dispatchUC.UpdatePosition(c.Request().Context(), actor, "http:"+actor.ID, tripIDOf(c), pos)
	if err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusAccepted)
}

// GoOnline makes the calling driver available for offers
func (h *TripHandler) GoOnline(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return utils.UnauthorizedResponse(c, "Missing caller identity")
	}

	var req models.GoOnlineRequest
	if err := c.Bind(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	if err := h.dispatchUC.GoOnline(c.Request().Context(), actor, req); err != nil {
		return writeError(c, err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Driver online", nil)
}

// GoOffline removes the calling driver from dispatch
func (h *TripHandler) GoOffline(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return utils.UnauthorizedResponse(c, "Missing caller identity")
	}

	if err := h.dispatchUC.GoOffline(c.Request().Context(), actor); err != nil {
		return writeError(c, err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Driver offline", nil)
}
