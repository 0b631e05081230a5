package handler

import (
	"github.com/piresc/tripdispatch/internal/pkg/models"
	natspkg "github.com/piresc/tripdispatch/internal/pkg/nats"
	wspkg "github.com/piresc/tripdispatch/internal/pkg/websocket"
	"github.com/piresc/tripdispatch/services/dispatch"
	httpHandler "github.com/piresc/tripdispatch/services/dispatch/handler/http"
	natsHandler "github.com/piresc/tripdispatch/services/dispatch/handler/nats"
	wsHandler "github.com/piresc/tripdispatch/services/dispatch/handler/websocket"
)

// Handler combines all handlers for the dispatch service
type Handler struct {
	tripHTTP   *httpHandler.TripHandler
	tripWS     *wsHandler.WebSocketHandler
	beaconNATS *natsHandler.BeaconHandler
	jwtConfig  models.JWTConfig
}

// NewHandler creates a new combined handler. natsClient may be nil when
// beacons are not consumed.
func NewHandler(
	dispatchUC dispatch.DispatchUC,
	wsManager *wspkg.Manager,
	natsClient *natspkg.Client,
	cfg *models.Config,
) *Handler {
	h := &Handler{
		tripHTTP:  httpHandler.NewTripHandler(dispatchUC),
		tripWS:    wsHandler.NewWebSocketHandler(wsManager, dispatchUC),
		jwtConfig: cfg.JWT,
	}
	if natsClient != nil {
		h.beaconNATS = natsHandler.NewBeaconHandler(dispatchUC, natsClient)
	}
	return h
}

// InitNATSConsumers initializes all NATS consumers
func (h *Handler) InitNATSConsumers() error {
	if h.beaconNATS == nil {
		return nil
	}
	return h.beaconNATS.InitNATSConsumers()
}

// CloseNATSConsumers unsubscribes every NATS consumer
func (h *Handler) CloseNATSConsumers() {
	if h.beaconNATS != nil {
		h.beaconNATS.Close()
	}
}
