package repository

import (
	"context"
	"testing"
	"time"

	"github.com/piresc/tripdispatch/internal/pkg/models"
	"github.com/piresc/tripdispatch/services/dispatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pickup = models.Location{Latitude: -6.175392, Longitude: 106.827153}

func TestMemoryDriverRepo_QueryNearby(t *testing.T) {
	// Arrange
	repo := NewMemoryDriverRepository()
	ctx := context.Background()
	require.NoError(t, repo.GoOnline(ctx, "near", models.Position{Latitude: -6.176, Longitude: 106.828}, 4.8))
	require.NoError(t, repo.GoOnline(ctx, "mid", models.Position{Latitude: -6.19, Longitude: 106.84}, 4.5))
	require.NoError(t, repo.GoOnline(ctx, "far", models.Position{Latitude: -6.5, Longitude: 107.2}, 4.9))
	require.NoError(t, repo.GoOnline(ctx, "offline", models.Position{Latitude: -6.1755, Longitude: 106.8272}, 4.9))
	require.NoError(t, repo.SetOffline(ctx, "offline"))

	// Act
	nearby, err := repo.QueryNearby(ctx, pickup, 5000)

	// Assert
	require.NoError(t, err)
	require.Len(t, nearby, 2)
	assert.Equal(t, "near", nearby[0].DriverID)
	assert.Equal(t, "mid", nearby[1].DriverID)
	assert.Less(t, nearby[0].DistanceMeters, nearby[1].DistanceMeters)
	assert.Equal(t, 4.8, nearby[0].Rating)
}

func TestMemoryDriverRepo_QueryNearby_TieBreaksOnID(t *testing.T) {
	// Arrange
	repo := NewMemoryDriverRepository()
	ctx := context.Background()
	pos := models.Position{Latitude: -6.18, Longitude: 106.83}
	require.NoError(t, repo.GoOnline(ctx, "driver-b", pos, 0))
	require.NoError(t, repo.GoOnline(ctx, "driver-a", pos, 0))

	// Act
	nearby, err := repo.QueryNearby(ctx, pickup, 5000)

	// Assert
	require.NoError(t, err)
	require.Len(t, nearby, 2)
	assert.Equal(t, "driver-a", nearby[0].DriverID)
	assert.Equal(t, "driver-b", nearby[1].DriverID)
}

func TestMemoryDriverRepo_BindAndRelease(t *testing.T) {
	// Arrange
	repo := NewMemoryDriverRepository()
	ctx := context.Background()
	require.NoError(t, repo.GoOnline(ctx, "driver-1", models.Position{Latitude: -6.176, Longitude: 106.828}, 0))

	// Act
	first, _ := repo.ConditionalBind(ctx, "driver-1", "trip-1")
	second, _ := repo.ConditionalBind(ctx, "driver-1", "trip-2")
	wrongRelease, _ := repo.ConditionalRelease(ctx, "driver-1", "trip-2")
	nearbyWhileBound, _ := repo.QueryNearby(ctx, pickup, 5000)
	release, _ := repo.ConditionalRelease(ctx, "driver-1", "trip-1")
	nearbyAfter, _ := repo.QueryNearby(ctx, pickup, 5000)

	// Assert
	assert.True(t, first)
	assert.False(t, second)
	assert.False(t, wrongRelease)
	assert.Empty(t, nearbyWhileBound)
	assert.True(t, release)
	assert.Len(t, nearbyAfter, 1)
}

func TestMemoryDriverRepo_GoOnlineKeepsBinding(t *testing.T) {
	// Arrange
	repo := NewMemoryDriverRepository()
	ctx := context.Background()
	pos := models.Position{Latitude: -6.176, Longitude: 106.828}
	require.NoError(t, repo.GoOnline(ctx, "driver-1", pos, 0))
	ok, _ := repo.ConditionalBind(ctx, "driver-1", "trip-1")
	require.True(t, ok)

	// Act
	require.NoError(t, repo.SetOffline(ctx, "driver-1"))
	require.NoError(t, repo.GoOnline(ctx, "driver-1", pos, 0))
	driver, err := repo.GetDriver(ctx, "driver-1")

	// Assert
	require.NoError(t, err)
	assert.True(t, driver.Online)
	assert.False(t, driver.Available)
	assert.Equal(t, "trip-1", driver.TripID)
}

func TestMemoryDriverRepo_SetPositionAndStale(t *testing.T) {
	// Arrange
	repo := NewMemoryDriverRepository()
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	require.NoError(t, repo.GoOnline(ctx, "quiet", models.Position{Latitude: -6.176, Longitude: 106.828}, 0))
	now = now.Add(5 * time.Minute)
	require.NoError(t, repo.GoOnline(ctx, "chatty", models.Position{Latitude: -6.176, Longitude: 106.828}, 0))

	// Act
	missingErr := repo.SetPosition(ctx, "ghost", models.Position{})
	stale, err := repo.StaleDrivers(ctx, now.Add(-time.Minute))

	// Assert
	assert.ErrorIs(t, missingErr, dispatch.ErrDriverNotFound)
	require.NoError(t, err)
	assert.Equal(t, []string{"quiet"}, stale)
}
