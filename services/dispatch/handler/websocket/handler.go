package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/piresc/tripdispatch/internal/pkg/constants"
	"github.com/piresc/tripdispatch/internal/pkg/logger"
	"github.com/piresc/tripdispatch/internal/pkg/models"
	wspkg "github.com/piresc/tripdispatch/internal/pkg/websocket"
	"github.com/piresc/tripdispatch/services/dispatch"
)

// errUnknownEvent is reported back for events the server does not handle
var errUnknownEvent = errors.New("unknown event")

// WebSocketHandler serves the live connection of riders and drivers
type WebSocketHandler struct {
	wsManager  *wspkg.Manager
	dispatchUC dispatch.DispatchUC
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(wsManager *wspkg.Manager, dispatchUC dispatch.DispatchUC) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:  wsManager,
		dispatchUC: dispatchUC,
	}
}

// HandleWebSocket upgrades the request and runs the read loop
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	return h.wsManager.HandleConnection(c, h.serve)
}

func (h *WebSocketHandler) serve(client *models.WebSocketClient) error {
	actor := models.Actor{ID: client.UserID, Role: client.Role}
	ctx := context.Background()

	logger.Info("WebSocket client connected",
		logger.String("user_id", actor.ID),
		logger.String("role", string(actor.Role)),
		logger.String("conn_id", client.ConnID))
	defer func() {
		// A newer connection of the same party took over; its state stays
		if !h.wsManager.RemoveClient(client) {
			logger.Info("WebSocket connection replaced",
				logger.String("user_id", actor.ID),
				logger.String("conn_id", client.ConnID))
			return
		}
		h.dispatchUC.Disconnect(ctx, actor, client.ConnID)
		logger.Info("WebSocket client disconnected",
			logger.String("user_id", actor.ID),
			logger.String("conn_id", client.ConnID))
	}()

	for {
		var msg models.WSMessage
		if err := client.Conn.ReadJSON(&msg); err != nil {
			if gorillaws.IsUnexpectedCloseError(err, gorillaws.CloseGoingAway, gorillaws.CloseNormalClosure) {
				logger.Warn("WebSocket read failed",
					logger.String("user_id", actor.ID),
					logger.Err(err))
			}
			return nil
		}

		if err := h.handleMessage(ctx, client, actor, msg); err != nil {
			h.sendError(client, msg.Event, err)
		}
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, client *models.WebSocketClient, actor models.Actor, msg models.WSMessage) error {
	switch msg.Event {
	case constants.EventPing:
		return h.wsManager.SendMessage(client, constants.EventPong, nil)

	case constants.EventOfferResponse:
		var req models.OfferResponse
		if err := decode(msg.Data, &req); err != nil {
			return err
		}
		return h.dispatchUC.RespondToOffer(ctx, actor, req.TripID, req.Accept)

	case constants.EventPositionUpdate:
		var req models.PositionRequest
		if err := decode(msg.Data, &req); err != nil {
			return err
		}
		return h.dispatchUC.UpdatePosition(ctx, actor, client.ConnID, req.TripID, req.Position)

	case constants.EventStatusUpdate:
		var req models.StatusUpdateRequest
		if err := decode(msg.Data, &req); err != nil {
			return err
		}
		_, err := h.dispatchUC.UpdateStatus(ctx, actor, req.TripID, req.Status, req.Position)
		return err

	case constants.EventCancelTrip:
		var req models.CancelRequest
		if err := decode(msg.Data, &req); err != nil {
			return err
		}
		_, err := h.dispatchUC.CancelTrip(ctx, actor, req.TripID, req.Reason)
		return err

	case constants.EventGoOnline:
		var req models.GoOnlineRequest
		if err := decode(msg.Data, &req); err != nil {
			return err
		}
		return h.dispatchUC.GoOnline(ctx, actor, req)

	case constants.EventGoOffline:
		return h.dispatchUC.GoOffline(ctx, actor)
	}
	return fmt.Errorf("%w: %s", errUnknownEvent, msg.Event)
}

type decodeError struct{ err error }

func (e decodeError) Error() string { return "invalid message format: " + e.err.Error() }
func (e decodeError) Unwrap() error { return e.err }

func decode(data json.RawMessage, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return decodeError{err: err}
	}
	return nil
}

// errorCode maps a use case error onto a WebSocket error code. Only the
// client-caused errors expose their message.
func errorCode(err error) (string, bool) {
	var de decodeError
	switch {
	case errors.As(err, &de):
		return constants.ErrorInvalidFormat, true
	case errors.Is(err, errUnknownEvent):
		return constants.ErrorUnknownEvent, true
	case errors.Is(err, dispatch.ErrRateLimited):
		return constants.ErrorRateLimitExceeded, true
	case errors.Is(err, dispatch.ErrInvalidLocation):
		return constants.ErrorInvalidLocation, true
	case errors.Is(err, dispatch.ErrNotAuthorized):
		return constants.ErrorNotAuthorized, true
	case errors.Is(err, dispatch.ErrTripNotFound):
		return constants.ErrorTripNotFound, true
	case errors.Is(err, dispatch.ErrTripNotActive):
		return constants.ErrorTripNotActive, true
	case errors.Is(err, dispatch.ErrIllegalTransition):
		return constants.ErrorIllegalTransition, true
	case errors.Is(err, dispatch.ErrTransitionContention):
		return constants.ErrorTripContention, true
	case errors.Is(err, dispatch.ErrOfferNotFound):
		return constants.ErrorOfferNotFound, true
	}
	return constants.ErrorInternalError, false
}

func (h *WebSocketHandler) sendError(client *models.WebSocketClient, event string, err error) {
	code, expose := errorCode(err)
	message := "Operation failed"
	if expose {
		message = err.Error()
		logger.Debug("WebSocket request rejected",
			logger.String("user_id", client.UserID),
			logger.String("event", event),
			logger.String("code", code),
			logger.Err(err))
	} else {
		logger.Error("WebSocket operation failed",
			logger.String("user_id", client.UserID),
			logger.String("event", event),
			logger.Err(err))
	}

	if sendErr := h.wsManager.SendErrorMessage(client, code, message); sendErr != nil {
		logger.Warn("Failed to send error message",
			logger.String("user_id", client.UserID),
			logger.Err(sendErr))
	}
}
