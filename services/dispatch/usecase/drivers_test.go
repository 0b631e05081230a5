package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/piresc/tripdispatch/internal/pkg/models"
	"github.com/piresc/tripdispatch/internal/pkg/ratelimit"
	"github.com/piresc/tripdispatch/services/dispatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoOnlineAndOffline(t *testing.T) {
	// Arrange
	s := newScenario(t, testConfig())
	ctx := context.Background()
	req := models.GoOnlineRequest{
		Position: models.Position{Latitude: pickup.Latitude, Longitude: pickup.Longitude},
		Rating:   4.6,
	}

	// Act
	errOnline := s.uc.GoOnline(ctx, driverActor, req)
	online, _ := s.drivers.GetDriver(ctx, driverActor.ID)
	errOffline := s.uc.GoOffline(ctx, driverActor)
	offline, _ := s.drivers.GetDriver(ctx, driverActor.ID)

	// Assert
	require.NoError(t, errOnline)
	require.NoError(t, errOffline)
	assert.True(t, online.Online)
	assert.True(t, online.Available)
	assert.Equal(t, 4.6, online.Rating)
	assert.False(t, online.Position.Timestamp.IsZero())
	assert.False(t, offline.Online)
}

func TestGoOnline_Rejections(t *testing.T) {
	s := newScenario(t, testConfig())
	ctx := context.Background()

	err := s.uc.GoOnline(ctx, riderActor, models.GoOnlineRequest{Position: models.Position{Latitude: 1, Longitude: 1}})
	assert.ErrorIs(t, err, dispatch.ErrNotAuthorized)

	err = s.uc.GoOnline(ctx, driverActor, models.GoOnlineRequest{Position: models.Position{Latitude: 1, Longitude: 200}})
	assert.ErrorIs(t, err, dispatch.ErrInvalidLocation)

	err = s.uc.GoOffline(ctx, riderActor)
	assert.ErrorIs(t, err, dispatch.ErrNotAuthorized)
}

func TestHandleBeacon(t *testing.T) {
	// Arrange
	s := newScenario(t, testConfig())
	ctx := context.Background()
	beacon := models.DriverBeacon{
		DriverID:  "driver-7",
		IsActive:  true,
		Rating:    4.2,
		Position:  models.Position{Latitude: pickup.Latitude, Longitude: pickup.Longitude},
		Timestamp: fixedNow,
	}

	// Act
	errActive := s.uc.HandleBeacon(ctx, beacon)
	active, _ := s.drivers.GetDriver(ctx, "driver-7")
	beacon.IsActive = false
	errInactive := s.uc.HandleBeacon(ctx, beacon)
	inactive, _ := s.drivers.GetDriver(ctx, "driver-7")
	errAnonymous := s.uc.HandleBeacon(ctx, models.DriverBeacon{IsActive: true})

	// Assert
	require.NoError(t, errActive)
	require.NoError(t, errInactive)
	assert.True(t, active.Online)
	assert.Equal(t, fixedNow, active.Position.Timestamp)
	assert.False(t, inactive.Online)
	assert.Error(t, errAnonymous)
}

func TestGoOffline_KeepsTripBinding(t *testing.T) {
	// Arrange
	s := newScenario(t, testConfig())
	ctx := context.Background()
	s.online(t, driverActor.ID, 100)
	bound, err := s.drivers.ConditionalBind(ctx, driverActor.ID, "trip-1")
	require.NoError(t, err)
	require.True(t, bound)

	// Act
	require.NoError(t, s.uc.GoOffline(ctx, driverActor))
	require.NoError(t, s.uc.GoOnline(ctx, driverActor, models.GoOnlineRequest{
		Position: models.Position{Latitude: pickup.Latitude, Longitude: pickup.Longitude},
	}))

	// Assert
	driver, _ := s.drivers.GetDriver(ctx, driverActor.ID)
	assert.True(t, driver.Online)
	assert.False(t, driver.Available)
	assert.Equal(t, "trip-1", driver.TripID)
}

func TestDisconnect(t *testing.T) {
	// Arrange
	cfg := testConfig()
	cfg.RateLimit.MaxRequests = 1
	s := newScenario(t, cfg)
	ctx := context.Background()
	s.online(t, driverActor.ID, 100)
	invalid := models.Position{Latitude: 95}
	_ = s.uc.UpdatePosition(ctx, driverActor, "conn-1", "trip-1", invalid)
	require.ErrorIs(t, s.uc.UpdatePosition(ctx, driverActor, "conn-1", "trip-1", invalid), dispatch.ErrRateLimited)

	// Act
	s.uc.Disconnect(ctx, driverActor, "conn-1")

	// Assert
	driver, _ := s.drivers.GetDriver(ctx, driverActor.ID)
	assert.False(t, driver.Online)
	assert.ErrorIs(t, s.uc.UpdatePosition(ctx, driverActor, "conn-1", "trip-1", invalid), dispatch.ErrInvalidLocation)
}

func TestSweepStaleDrivers(t *testing.T) {
	// Arrange
	s := newScenario(t, testConfig())
	ctx := context.Background()
	s.online(t, "driver-quiet", 100)
	s.online(t, "driver-gone", 200)
	require.NoError(t, s.uc.GoOffline(ctx, models.Actor{ID: "driver-gone", Role: models.RoleDriver}))
	s.uc.now = func() time.Time { return time.Now().Add(5 * time.Minute) }

	// Act
	swept, err := s.uc.SweepStaleDrivers(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, swept)
	quiet, _ := s.drivers.GetDriver(ctx, "driver-quiet")
	assert.False(t, quiet.Online)
}

func TestSweepStaleDrivers_ListError(t *testing.T) {
	// Arrange
	m := newMockedUC(t, testConfig())
	m.driverRepo.EXPECT().StaleDrivers(gomock.Any(), fixedNow.Add(-2*time.Minute)).Return(nil, errors.New("redis down"))

	// Act
	swept, err := m.uc.SweepStaleDrivers(context.Background())

	// Assert
	assert.Error(t, err)
	assert.Zero(t, swept)
}

func TestStartSweeper_StopsWithContext(t *testing.T) {
	// Arrange
	cfg := testConfig()
	cfg.Drivers.SweepInterval = 10 * time.Millisecond
	m := newMockedUC(t, cfg)
	m.driverRepo.EXPECT().StaleDrivers(gomock.Any(), gomock.Any()).Return([]string{}, nil).MinTimes(1)
	ctx, cancel := context.WithCancel(context.Background())

	// Act
	m.uc.StartSweeper(ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()

	// Assert
	shutdownCtx, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	assert.NoError(t, m.uc.Shutdown(shutdownCtx))
}

type countingLimiter struct {
	prunes atomic.Int32
}

func (l *countingLimiter) Allow(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{Allowed: true}, nil
}

func (l *countingLimiter) Prune() int {
	l.prunes.Add(1)
	return 1
}

type remoteLimiter struct{}

func (remoteLimiter) Allow(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{Allowed: true}, nil
}

func TestPruneLimiters_OnlyInMemoryLimitersTracked(t *testing.T) {
	// Arrange
	m := newMockedUC(t, testConfig())
	tracked := &countingLimiter{}
	m.uc.TrackLimiter(tracked)
	m.uc.TrackLimiter(remoteLimiter{})

	// Act
	removed := m.uc.pruneLimiters(context.Background())

	// Assert
	assert.Len(t, m.uc.pruners, 2)
	assert.GreaterOrEqual(t, removed, 1)
	assert.Equal(t, int32(1), tracked.prunes.Load())
}

func TestStartSweeper_PrunesRateLimitBuckets(t *testing.T) {
	// Arrange
	cfg := testConfig()
	cfg.Drivers.SweepInterval = 10 * time.Millisecond
	m := newMockedUC(t, cfg)
	m.driverRepo.EXPECT().StaleDrivers(gomock.Any(), gomock.Any()).Return([]string{}, nil).AnyTimes()
	tracked := &countingLimiter{}
	m.uc.TrackLimiter(tracked)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Act
	m.uc.StartSweeper(ctx)

	// Assert
	assert.Eventually(t, func() bool { return tracked.prunes.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	assert.NoError(t, m.uc.Shutdown(shutdownCtx))
}
