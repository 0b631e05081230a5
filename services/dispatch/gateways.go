package dispatch

import (
	"context"

	"github.com/piresc/tripdispatch/internal/pkg/models"
)

//go:generate mockgen -destination=mocks/mock_gateways.go -package=mocks github.com/piresc/tripdispatch/services/dispatch Notifier,EventGW

// Notifier pushes real-time messages to a connected party
type Notifier interface {
	SendToParty(ctx context.Context, party models.Actor, event string, data interface{}) error
}

// EventGW publishes domain events to downstream consumers
type EventGW interface {
	PublishTripEvent(ctx context.Context, event models.TripEvent) error
	PublishPositionLost(ctx context.Context, event models.PositionLostEvent) error
}
