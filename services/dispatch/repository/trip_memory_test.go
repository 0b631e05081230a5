package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/piresc/tripdispatch/internal/pkg/models"
	"github.com/piresc/tripdispatch/services/dispatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequestedTrip(id, riderID string, requestedAt time.Time) *models.Trip {
	return &models.Trip{
		ID:          id,
		RiderID:     riderID,
		Pickup:      models.Location{Latitude: -6.2, Longitude: 106.8},
		Dropoff:     models.Location{Latitude: -6.25, Longitude: 106.85},
		Status:      models.TripStatusRequested,
		RequestedAt: requestedAt,
		UpdatedAt:   requestedAt,
	}
}

func TestMemoryTripRepo_CreateAndGet(t *testing.T) {
	// Arrange
	repo := NewMemoryTripRepository()
	ctx := context.Background()
	trip := newRequestedTrip("trip-1", "rider-1", time.Now())

	// Act
	err := repo.CreateTrip(ctx, trip)
	got, getErr := repo.GetTrip(ctx, "trip-1")
	dupErr := repo.CreateTrip(ctx, trip)

	// Assert
	require.NoError(t, err)
	require.NoError(t, getErr)
	assert.Equal(t, trip.RiderID, got.RiderID)
	assert.Error(t, dupErr)

	got.Status = models.TripStatusCompleted
	again, _ := repo.GetTrip(ctx, "trip-1")
	assert.Equal(t, models.TripStatusRequested, again.Status, "callers must not mutate the stored trip")
}

func TestMemoryTripRepo_GetTrip_NotFound(t *testing.T) {
	repo := NewMemoryTripRepository()

	_, err := repo.GetTrip(context.Background(), "missing")

	assert.ErrorIs(t, err, dispatch.ErrTripNotFound)
}

func TestMemoryTripRepo_ConditionalUpdate_SingleWinner(t *testing.T) {
	// Arrange
	repo := NewMemoryTripRepository()
	ctx := context.Background()
	require.NoError(t, repo.CreateTrip(ctx, newRequestedTrip("trip-1", "rider-1", time.Now())))

	var wins int32
	var wg sync.WaitGroup

	// Act
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			driverID := "driver-" + string(rune('a'+i))
			ok, err := repo.ConditionalUpdate(ctx, "trip-1", models.TripStatusRequested, models.TripPatch{
				Status:   models.TripStatusAccepted,
				DriverID: &driverID,
				At:       time.Now(),
			})
			if err == nil && ok {
				atomic.AddInt32(&wins, 1)
			}
		}(i)
	}
	wg.Wait()

	// Assert
	assert.Equal(t, int32(1), wins)
	trip, _ := repo.GetTrip(ctx, "trip-1")
	assert.Equal(t, models.TripStatusAccepted, trip.Status)
	assert.NotEmpty(t, trip.DriverID)
	assert.NotNil(t, trip.AcceptedAt)
}

func TestMemoryTripRepo_UpdatePosition(t *testing.T) {
	// Arrange
	repo := NewMemoryTripRepository()
	ctx := context.Background()
	require.NoError(t, repo.CreateTrip(ctx, newRequestedTrip("trip-1", "rider-1", time.Now())))
	pos := models.Position{Latitude: -6.21, Longitude: 106.81, Timestamp: time.Now()}

	// Act
	inactiveErr := repo.UpdatePosition(ctx, "trip-1", pos)
	driverID := "driver-1"
	_, _ = repo.ConditionalUpdate(ctx, "trip-1", models.TripStatusRequested, models.TripPatch{
		Status: models.TripStatusAccepted, DriverID: &driverID, At: time.Now(),
	})
	for i := 0; i < models.MaxRoutePoints+5; i++ {
		require.NoError(t, repo.UpdatePosition(ctx, "trip-1", pos))
	}

	// Assert
	assert.ErrorIs(t, inactiveErr, dispatch.ErrTripNotActive)
	trip, _ := repo.GetTrip(ctx, "trip-1")
	assert.Len(t, trip.Route, models.MaxRoutePoints)
	require.NotNil(t, trip.CurrentPosition)
	assert.Equal(t, pos.Latitude, trip.CurrentPosition.Latitude)
}

func TestMemoryTripRepo_FindTrips(t *testing.T) {
	// Arrange
	repo := NewMemoryTripRepository()
	ctx := context.Background()
	base := time.Now()
	require.NoError(t, repo.CreateTrip(ctx, newRequestedTrip("trip-1", "rider-1", base)))
	require.NoError(t, repo.CreateTrip(ctx, newRequestedTrip("trip-2", "rider-1", base.Add(time.Minute))))
	require.NoError(t, repo.CreateTrip(ctx, newRequestedTrip("trip-3", "rider-2", base.Add(2*time.Minute))))

	// Act
	all, err := repo.FindTrips(ctx, models.TripFilter{RiderID: "rider-1"})
	limited, _ := repo.FindTrips(ctx, models.TripFilter{Limit: 1})
	none, _ := repo.FindTrips(ctx, models.TripFilter{Statuses: []models.TripStatus{models.TripStatusStarted}})

	// Assert
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "trip-2", all[0].ID)
	require.Len(t, limited, 1)
	assert.Equal(t, "trip-3", limited[0].ID)
	assert.Empty(t, none)
}

func TestMemoryTripRepo_FindTrips_DriverSeesTripsTheyCancelled(t *testing.T) {
	// Arrange
	repo := NewMemoryTripRepository()
	ctx := context.Background()
	base := time.Now()
	driver := models.Actor{ID: "driver-1", Role: models.RoleDriver}
	require.NoError(t, repo.CreateTrip(ctx, newRequestedTrip("trip-1", "rider-1", base)))
	driverID := "driver-1"
	_, err := repo.ConditionalUpdate(ctx, "trip-1", models.TripStatusRequested, models.TripPatch{
		Status: models.TripStatusAccepted, DriverID: &driverID, At: base,
	})
	require.NoError(t, err)
	cleared := ""
	_, err = repo.ConditionalUpdate(ctx, "trip-1", models.TripStatusAccepted, models.TripPatch{
		Status: models.TripStatusCancelledByDriver, DriverID: &cleared, CancelledBy: &driver, At: base,
	})
	require.NoError(t, err)

	// Act
	mine, err := repo.FindTrips(ctx, models.TripFilter{DriverID: "driver-1"})
	others, _ := repo.FindTrips(ctx, models.TripFilter{DriverID: "driver-2"})

	// Assert
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, models.TripStatusCancelledByDriver, mine[0].Status)
	assert.Empty(t, others)
}
