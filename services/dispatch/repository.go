package dispatch

import (
	"context"
	"time"

	"github.com/piresc/tripdispatch/internal/pkg/models"
)

//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks github.com/piresc/tripdispatch/services/dispatch TripRepo,DriverRepo

// TripRepo defines the trip store operations
type TripRepo interface {
	CreateTrip(ctx context.Context, trip *models.Trip) error
	// GetTrip returns ErrTripNotFound for unknown ids
	GetTrip(ctx context.Context, tripID string) (*models.Trip, error)
	// ConditionalUpdate applies patch only while the stored status equals
	// expected and reports whether it did
	ConditionalUpdate(ctx context.Context, tripID string, expected models.TripStatus, patch models.TripPatch) (bool, error)
	// UpdatePosition records pos as the live position and appends it to the
	// route. It returns ErrTripNotActive when the trip is not active.
	UpdatePosition(ctx context.Context, tripID string, pos models.Position) error
	FindTrips(ctx context.Context, filter models.TripFilter) ([]*models.Trip, error)
}

// DriverRepo defines the driver directory operations
type DriverRepo interface {
	// Spatial queries return online, available drivers sorted by distance
	QueryNearby(ctx context.Context, point models.Location, radiusMeters float64) ([]models.NearbyDriver, error)
	GetDriver(ctx context.Context, driverID string) (*models.Driver, error)

	// Binding operations are atomic per driver
	ConditionalBind(ctx context.Context, driverID, tripID string) (bool, error)
	ConditionalRelease(ctx context.Context, driverID, tripID string) (bool, error)

	// Presence operations
	GoOnline(ctx context.Context, driverID string, pos models.Position, rating float64) error
	SetPosition(ctx context.Context, driverID string, pos models.Position) error
	SetOffline(ctx context.Context, driverID string) error
	StaleDrivers(ctx context.Context, before time.Time) ([]string, error)
}
