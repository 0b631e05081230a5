package dispatch

import (
	"context"

	"github.com/piresc/tripdispatch/internal/pkg/models"
)

//go:generate mockgen -destination=mocks/mock_usecase.go -package=mocks github.com/piresc/tripdispatch/services/dispatch DispatchUC,PositionBuffer

// DispatchUC defines the interface for trip dispatch business logic
type DispatchUC interface {
	// Rider operations
	RequestTrip(ctx context.Context, rider models.Actor, req models.TripRequest) (*models.Trip, error)

	// Driver operations
	RespondToOffer(ctx context.Context, driver models.Actor, tripID string, accept bool) error
	GoOnline(ctx context.Context, driver models.Actor, req models.GoOnlineRequest) error
	GoOffline(ctx context.Context, driver models.Actor) error
	HandleBeacon(ctx context.Context, beacon models.DriverBeacon) error

	// Trip lifecycle operations, available to either party
	UpdateStatus(ctx context.Context, actor models.Actor, tripID string, status models.TripStatus, pos *models.Position) (*models.Trip, error)
	CancelTrip(ctx context.Context, actor models.Actor, tripID, reason string) (*models.Trip, error)
	UpdatePosition(ctx context.Context, actor models.Actor, connID, tripID string, pos models.Position) error
	GetTrip(ctx context.Context, actor models.Actor, tripID string) (*models.Trip, error)
	ListTrips(ctx context.Context, actor models.Actor, statuses []models.TripStatus, limit int) ([]*models.Trip, error)

	// Disconnect releases per-connection state once a socket closes
	Disconnect(ctx context.Context, actor models.Actor, connID string)
}

// PositionBuffer holds position updates whose persistence or delivery failed
type PositionBuffer interface {
	Enqueue(update models.PositionUpdate, persisted bool, cause error)
}
