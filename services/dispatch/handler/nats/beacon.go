package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/piresc/tripdispatch/internal/pkg/constants"
	"github.com/piresc/tripdispatch/internal/pkg/logger"
	"github.com/piresc/tripdispatch/internal/pkg/models"
	natspkg "github.com/piresc/tripdispatch/internal/pkg/nats"
	"github.com/piresc/tripdispatch/services/dispatch"
)

// BeaconHandler consumes driver availability beacons from NATS
type BeaconHandler struct {
	dispatchUC dispatch.DispatchUC
	natsClient *natspkg.Client
	subs       []*nats.Subscription
}

// NewBeaconHandler creates a new beacon NATS handler
func NewBeaconHandler(dispatchUC dispatch.DispatchUC, client *natspkg.Client) *BeaconHandler {
	return &BeaconHandler{
		dispatchUC: dispatchUC,
		natsClient: client,
		subs:       make([]*nats.Subscription, 0),
	}
}

// InitNATSConsumers subscribes to the beacon subject
func (h *BeaconHandler) InitNATSConsumers() error {
	sub, err := h.natsClient.QueueSubscribe(constants.SubjectDriverBeacon, constants.QueueDispatch, func(msg *nats.Msg) {
		if err := h.handleBeacon(msg.Data); err != nil {
			logger.Error("Error handling driver beacon", logger.Err(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to driver beacons: %w", err)
	}
	h.subs = append(h.subs, sub)
	return nil
}

// Close unsubscribes every consumer
func (h *BeaconHandler) Close() {
	for _, sub := range h.subs {
		if err := sub.Unsubscribe(); err != nil {
			logger.Warn("Failed to unsubscribe", logger.String("subject", sub.Subject), logger.Err(err))
		}
	}
	h.subs = h.subs[:0]
}

func (h *BeaconHandler) handleBeacon(data []byte) error {
	var beacon models.DriverBeacon
	if err := json.Unmarshal(data, &beacon); err != nil {
		return fmt.Errorf("failed to unmarshal beacon: %w", err)
	}

	logger.Debug("Received driver beacon",
		logger.String("driver_id", beacon.DriverID),
		logger.Bool("is_active", beacon.IsActive))

	return h.dispatchUC.HandleBeacon(context.Background(), beacon)
}
