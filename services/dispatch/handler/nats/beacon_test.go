package nats

import (
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/piresc/tripdispatch/internal/pkg/constants"
	"github.com/piresc/tripdispatch/internal/pkg/logger"
	"github.com/piresc/tripdispatch/internal/pkg/models"
	natspkg "github.com/piresc/tripdispatch/internal/pkg/nats"
	"github.com/piresc/tripdispatch/services/dispatch/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNatsURL = "nats://127.0.0.1:8370"

func TestMain(m *testing.M) {
	logger.SetGlobalLogger(logger.NewNopLogger())

	opts := natsserver.DefaultTestOptions
	opts.Port = 8370
	testNatsServer := natsserver.RunServer(&opts)
	code := m.Run()
	testNatsServer.Shutdown()
	os.Exit(code)
}

func TestBeaconHandler_HandleBeacon(t *testing.T) {
	// Arrange
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockUC := mocks.NewMockDispatchUC(ctrl)
	handler := NewBeaconHandler(mockUC, nil)

	beacon := models.DriverBeacon{
		DriverID: "driver-1",
		IsActive: true,
		Position: models.Position{Latitude: -6.175392, Longitude: 106.827153},
	}
	data, _ := json.Marshal(beacon)
	mockUC.EXPECT().HandleBeacon(gomock.Any(), beacon).Return(nil)

	// Act
	err := handler.handleBeacon(data)

	// Assert
	assert.NoError(t, err)
}

func TestBeaconHandler_HandleBeacon_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockUC := mocks.NewMockDispatchUC(ctrl)
	handler := NewBeaconHandler(mockUC, nil)

	err := handler.handleBeacon([]byte("{not json"))
	assert.ErrorContains(t, err, "failed to unmarshal beacon")

	mockUC.EXPECT().HandleBeacon(gomock.Any(), gomock.Any()).Return(errors.New("redis down"))
	err = handler.handleBeacon([]byte(`{"driver_id":"driver-1","is_active":false}`))
	assert.Error(t, err)
}

func TestBeaconHandler_ConsumesSubject(t *testing.T) {
	// Arrange
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockUC := mocks.NewMockDispatchUC(ctrl)

	nc, err := natspkg.NewClient(testNatsURL, "beacon-test")
	require.NoError(t, err, "Failed to connect to NATS server")
	defer nc.Close()

	received := make(chan models.DriverBeacon, 1)
	mockUC.EXPECT().HandleBeacon(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, beacon models.DriverBeacon) error {
			received <- beacon
			return nil
		})

	handler := NewBeaconHandler(mockUC, nc)
	require.NoError(t, handler.InitNATSConsumers())
	defer handler.Close()
	require.NoError(t, nc.GetConn().Flush())

	// Act
	err = nc.PublishJSON(constants.SubjectDriverBeacon, models.DriverBeacon{DriverID: "driver-9", IsActive: false})

	// Assert
	require.NoError(t, err)
	select {
	case beacon := <-received:
		assert.Equal(t, "driver-9", beacon.DriverID)
		assert.False(t, beacon.IsActive)
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for beacon")
	}
}
