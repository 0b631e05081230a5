package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/piresc/tripdispatch/internal/pkg/constants"
	"github.com/piresc/tripdispatch/internal/pkg/database"
	"github.com/piresc/tripdispatch/internal/pkg/models"
	"github.com/piresc/tripdispatch/services/dispatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockRedis(t *testing.T) (*database.RedisClient, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return &database.RedisClient{Client: client}, mr
}

func TestDriverRepo_GoOnlineAndQueryNearby(t *testing.T) {
	// Arrange
	redisClient, _ := setupMockRedis(t)
	repo := NewDriverRepository(&models.Config{}, redisClient)
	ctx := context.Background()

	require.NoError(t, repo.GoOnline(ctx, "near", models.Position{Latitude: -6.176, Longitude: 106.828}, 4.8))
	require.NoError(t, repo.GoOnline(ctx, "mid", models.Position{Latitude: -6.19, Longitude: 106.84}, 4.5))
	require.NoError(t, repo.GoOnline(ctx, "far", models.Position{Latitude: -6.5, Longitude: 107.2}, 4.9))

	// Act
	nearby, err := repo.QueryNearby(ctx, pickup, 5000)

	// Assert
	require.NoError(t, err)
	require.Len(t, nearby, 2)
	assert.Equal(t, "near", nearby[0].DriverID)
	assert.Equal(t, "mid", nearby[1].DriverID)
	assert.InDelta(t, 4.8, nearby[0].Rating, 0.001)
	assert.InDelta(t, -6.176, nearby[0].Location.Latitude, 0.0001)
}

func TestDriverRepo_QueryNearby_SkipsUnavailable(t *testing.T) {
	// Arrange
	redisClient, _ := setupMockRedis(t)
	repo := NewDriverRepository(&models.Config{}, redisClient)
	ctx := context.Background()
	require.NoError(t, repo.GoOnline(ctx, "busy", models.Position{Latitude: -6.176, Longitude: 106.828}, 0))
	ok, err := repo.ConditionalBind(ctx, "busy", "trip-1")
	require.NoError(t, err)
	require.True(t, ok)

	// Act
	nearby, err := repo.QueryNearby(ctx, pickup, 5000)

	// Assert
	require.NoError(t, err)
	assert.Empty(t, nearby)
}

func TestDriverRepo_ConditionalBind(t *testing.T) {
	// Arrange
	redisClient, mr := setupMockRedis(t)
	repo := NewDriverRepository(&models.Config{}, redisClient)
	ctx := context.Background()
	require.NoError(t, repo.GoOnline(ctx, "driver-1", models.Position{Latitude: -6.176, Longitude: 106.828}, 0))

	// Act
	first, err1 := repo.ConditionalBind(ctx, "driver-1", "trip-1")
	second, err2 := repo.ConditionalBind(ctx, "driver-1", "trip-2")
	unknown, err3 := repo.ConditionalBind(ctx, "ghost", "trip-1")

	// Assert
	require.NoError(t, err1)
	require.NoError(t, err2)
	require.NoError(t, err3)
	assert.True(t, first)
	assert.False(t, second)
	assert.False(t, unknown)
	assert.Equal(t, "trip-1", mr.HGet("driver:state:driver-1", constants.FieldTripID))
	assert.Equal(t, "0", mr.HGet("driver:state:driver-1", constants.FieldAvailable))
}

func TestDriverRepo_ConditionalRelease(t *testing.T) {
	// Arrange
	redisClient, mr := setupMockRedis(t)
	repo := NewDriverRepository(&models.Config{}, redisClient)
	ctx := context.Background()
	require.NoError(t, repo.GoOnline(ctx, "driver-1", models.Position{Latitude: -6.176, Longitude: 106.828}, 0))
	_, err := repo.ConditionalBind(ctx, "driver-1", "trip-1")
	require.NoError(t, err)

	// Act
	wrong, _ := repo.ConditionalRelease(ctx, "driver-1", "trip-9")
	released, err := repo.ConditionalRelease(ctx, "driver-1", "trip-1")

	// Assert
	require.NoError(t, err)
	assert.False(t, wrong)
	assert.True(t, released)
	assert.Equal(t, "", mr.HGet("driver:state:driver-1", constants.FieldTripID))
	assert.Equal(t, "1", mr.HGet("driver:state:driver-1", constants.FieldAvailable))
}

func TestDriverRepo_ReleaseWhileOfflineStaysUnavailable(t *testing.T) {
	// Arrange
	redisClient, mr := setupMockRedis(t)
	repo := NewDriverRepository(&models.Config{}, redisClient)
	ctx := context.Background()
	require.NoError(t, repo.GoOnline(ctx, "driver-1", models.Position{Latitude: -6.176, Longitude: 106.828}, 0))
	_, err := repo.ConditionalBind(ctx, "driver-1", "trip-1")
	require.NoError(t, err)
	require.NoError(t, repo.SetOffline(ctx, "driver-1"))

	// Act
	released, err := repo.ConditionalRelease(ctx, "driver-1", "trip-1")

	// Assert
	require.NoError(t, err)
	assert.True(t, released)
	assert.Equal(t, "0", mr.HGet("driver:state:driver-1", constants.FieldAvailable))
}

func TestDriverRepo_GetDriver(t *testing.T) {
	// Arrange
	redisClient, _ := setupMockRedis(t)
	repo := NewDriverRepository(&models.Config{}, redisClient)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	require.NoError(t, repo.GoOnline(ctx, "driver-1", models.Position{Latitude: -6.176, Longitude: 106.828, Heading: 90, Speed: 12}, 4.7))

	// Act
	driver, err := repo.GetDriver(ctx, "driver-1")
	_, missingErr := repo.GetDriver(ctx, "ghost")

	// Assert
	require.NoError(t, err)
	assert.True(t, driver.Online)
	assert.True(t, driver.Available)
	assert.Equal(t, 4.7, driver.Rating)
	assert.Equal(t, now, driver.UpdatedAt)
	require.NotNil(t, driver.Position)
	assert.Equal(t, 90.0, driver.Position.Heading)
	assert.ErrorIs(t, missingErr, dispatch.ErrDriverNotFound)
}

func TestDriverRepo_SetPosition(t *testing.T) {
	// Arrange
	redisClient, mr := setupMockRedis(t)
	repo := NewDriverRepository(&models.Config{}, redisClient)
	ctx := context.Background()
	require.NoError(t, repo.GoOnline(ctx, "driver-1", models.Position{Latitude: -6.176, Longitude: 106.828}, 0))

	// Act
	err := repo.SetPosition(ctx, "driver-1", models.Position{Latitude: -6.3, Longitude: 106.9})
	missingErr := repo.SetPosition(ctx, "ghost", models.Position{Latitude: -6.3, Longitude: 106.9})

	// Assert
	require.NoError(t, err)
	assert.ErrorIs(t, missingErr, dispatch.ErrDriverNotFound)
	assert.Equal(t, "-6.3", mr.HGet("driver:state:driver-1", constants.FieldLatitude))
}

func TestDriverRepo_SetOfflineAndStale(t *testing.T) {
	// Arrange
	redisClient, _ := setupMockRedis(t)
	repo := NewDriverRepository(&models.Config{}, redisClient)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	require.NoError(t, repo.GoOnline(ctx, "quiet", models.Position{Latitude: -6.176, Longitude: 106.828}, 0))
	now = now.Add(5 * time.Minute)
	require.NoError(t, repo.GoOnline(ctx, "chatty", models.Position{Latitude: -6.176, Longitude: 106.828}, 0))

	// Act
	stale, err := repo.StaleDrivers(ctx, now.Add(-time.Minute))
	require.NoError(t, repo.SetOffline(ctx, "quiet"))
	staleAfter, _ := repo.StaleDrivers(ctx, now.Add(-time.Minute))
	nearby, _ := repo.QueryNearby(ctx, pickup, 5000)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"quiet"}, stale)
	assert.Empty(t, staleAfter)
	require.Len(t, nearby, 1)
	assert.Equal(t, "chatty", nearby[0].DriverID)
}
