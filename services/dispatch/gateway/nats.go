package gateway

import (
	"context"
	"fmt"

	"github.com/piresc/tripdispatch/internal/pkg/constants"
	"github.com/piresc/tripdispatch/internal/pkg/logger"
	"github.com/piresc/tripdispatch/internal/pkg/models"
	natspkg "github.com/piresc/tripdispatch/internal/pkg/nats"
)

// NATSGateway publishes domain events to NATS subjects
type NATSGateway struct {
	natsClient *natspkg.Client
}

// NewNATSGateway creates a new NATS gateway instance
func NewNATSGateway(client *natspkg.Client) *NATSGateway {
	return &NATSGateway{
		natsClient: client,
	}
}

// PublishTripEvent publishes the event on the subject named by its type
func (g *NATSGateway) PublishTripEvent(ctx context.Context, event models.TripEvent) error {
	if err := g.natsClient.PublishJSON(event.Type, event); err != nil {
		return fmt.Errorf("failed to publish %s for trip %s: %w", event.Type, event.TripID, err)
	}

	logger.DebugCtx(ctx, "Published trip event",
		logger.String("subject", event.Type),
		logger.String("trip_id", event.TripID))
	return nil
}

// PublishPositionLost publishes a data-loss record for a dropped position
func (g *NATSGateway) PublishPositionLost(ctx context.Context, event models.PositionLostEvent) error {
	if err := g.natsClient.PublishJSON(constants.SubjectPositionLost, event); err != nil {
		return fmt.Errorf("failed to publish position loss for trip %s: %w", event.TripID, err)
	}
	return nil
}
