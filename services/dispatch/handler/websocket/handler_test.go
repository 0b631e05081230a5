package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/piresc/tripdispatch/internal/pkg/constants"
	jwtpkg "github.com/piresc/tripdispatch/internal/pkg/jwt"
	"github.com/piresc/tripdispatch/internal/pkg/logger"
	"github.com/piresc/tripdispatch/internal/pkg/metrics"
	"github.com/piresc/tripdispatch/internal/pkg/models"
	wspkg "github.com/piresc/tripdispatch/internal/pkg/websocket"
	"github.com/piresc/tripdispatch/services/dispatch"
	"github.com/piresc/tripdispatch/services/dispatch/mocks"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testJWT = models.JWTConfig{Secret: "ws-handler-secret", Expiration: 10, Issuer: "test"}
	driver  = models.Actor{ID: "driver-1", Role: models.RoleDriver}
	rider   = models.Actor{ID: "rider-1", Role: models.RoleRider}
)

func TestMain(m *testing.M) {
	logger.SetGlobalLogger(logger.NewNopLogger())
	os.Exit(m.Run())
}

func startServer(t *testing.T, uc dispatch.DispatchUC) string {
	t.Helper()
	handler := NewWebSocketHandler(wspkg.NewManager(testJWT), uc)
	e := echo.New()
	e.GET("/ws", handler.HandleWebSocket)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string, actor models.Actor) *gorillaws.Conn {
	t.Helper()
	token, _, err := jwtpkg.GenerateToken(actor, testJWT)
	require.NoError(t, err)
	conn, _, err := gorillaws.DefaultDialer.Dial(url+"?token="+token, nil)
	require.NoError(t, err)
	return conn
}

func send(t *testing.T, conn *gorillaws.Conn, event string, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(models.WSMessage{Event: event, Data: raw}))
}

func readFrame(t *testing.T, conn *gorillaws.Conn) models.WSMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg models.WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func wait(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for use case call")
	}
}

func TestWebSocketHandler_DriverEvents(t *testing.T) {
	// Arrange
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockUC := mocks.NewMockDispatchUC(ctrl)
	called := make(chan struct{}, 4)

	pos := models.Position{Latitude: -6.2, Longitude: 106.8, Heading: 45}
	mockUC.EXPECT().GoOnline(gomock.Any(), driver, models.GoOnlineRequest{Position: pos}).
		DoAndReturn(func(context.Context, models.Actor, models.GoOnlineRequest) error {
			called <- struct{}{}
			return nil
		})
	mockUC.EXPECT().RespondToOffer(gomock.Any(), driver, "trip-1", true).
		DoAndReturn(func(context.Context, models.Actor, string, bool) error {
			called <- struct{}{}
			return nil
		})
	mockUC.EXPECT().UpdatePosition(gomock.Any(), driver, gomock.Any(), "trip-1", pos).
		DoAndReturn(func(context.Context, models.Actor, string, string, models.Position) error {
			called <- struct{}{}
			return nil
		})
	mockUC.EXPECT().Disconnect(gomock.Any(), driver, gomock.Any()).
		Do(func(context.Context, models.Actor, string) {
			called <- struct{}{}
		})

	url := startServer(t, mockUC)
	conn := dial(t, url, driver)

	// Act
	send(t, conn, constants.EventGoOnline, models.GoOnlineRequest{Position: pos})
	wait(t, called)
	send(t, conn, constants.EventOfferResponse, models.OfferResponse{TripID: "trip-1", Accept: true})
	wait(t, called)
	send(t, conn, constants.EventPositionUpdate, models.PositionRequest{TripID: "trip-1", Position: pos})
	wait(t, called)
	conn.Close()

	// Assert
	wait(t, called)
}

func TestWebSocketHandler_ErrorFrames(t *testing.T) {
	tests := []struct {
		name     string
		event    string
		data     interface{}
		setup    func(m *mocks.MockDispatchUC)
		wantCode string
	}{
		{
			name:     "unknown event",
			event:    "teleport",
			data:     map[string]string{},
			setup:    func(*mocks.MockDispatchUC) {},
			wantCode: constants.ErrorUnknownEvent,
		},
		{
			name:     "malformed payload",
			event:    constants.EventCancelTrip,
			data:     "not an object",
			setup:    func(*mocks.MockDispatchUC) {},
			wantCode: constants.ErrorInvalidFormat,
		},
		{
			name:  "not a party",
			event: constants.EventStatusUpdate,
			data:  models.StatusUpdateRequest{TripID: "trip-1", Status: models.TripStatusStarted},
			setup: func(m *mocks.MockDispatchUC) {
				m.EXPECT().UpdateStatus(gomock.Any(), rider, "trip-1", models.TripStatusStarted, nil).
					Return(nil, dispatch.ErrNotAuthorized)
			},
			wantCode: constants.ErrorNotAuthorized,
		},
		{
			name:  "rate limited",
			event: constants.EventPositionUpdate,
			data:  models.PositionRequest{TripID: "trip-1"},
			setup: func(m *mocks.MockDispatchUC) {
				m.EXPECT().UpdatePosition(gomock.Any(), rider, gomock.Any(), "trip-1", gomock.Any()).
					Return(dispatch.ErrRateLimited)
			},
			wantCode: constants.ErrorRateLimitExceeded,
		},
		{
			name:  "internal failure",
			event: constants.EventCancelTrip,
			data:  models.CancelRequest{TripID: "trip-1", Reason: "late"},
			setup: func(m *mocks.MockDispatchUC) {
				m.EXPECT().CancelTrip(gomock.Any(), rider, "trip-1", "late").
					Return(nil, errors.New("connection refused"))
			},
			wantCode: constants.ErrorInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			mockUC := mocks.NewMockDispatchUC(ctrl)
			tt.setup(mockUC)
			disconnected := make(chan struct{}, 1)
			mockUC.EXPECT().Disconnect(gomock.Any(), rider, gomock.Any()).Do(func(context.Context, models.Actor, string) {
				disconnected <- struct{}{}
			})
			conn := dial(t, startServer(t, mockUC), rider)

			// Act
			send(t, conn, tt.event, tt.data)
			frame := readFrame(t, conn)
			conn.Close()
			wait(t, disconnected)

			// Assert
			assert.Equal(t, constants.EventError, frame.Event)
			var payload models.WSErrorMessage
			require.NoError(t, json.Unmarshal(frame.Data, &payload))
			assert.Equal(t, tt.wantCode, payload.Code)
			if tt.wantCode == constants.ErrorInternalError {
				assert.Equal(t, "Operation failed", payload.Message)
			}
		})
	}
}

func TestWebSocketHandler_Ping(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockUC := mocks.NewMockDispatchUC(ctrl)
	disconnected := make(chan struct{}, 1)
	mockUC.EXPECT().Disconnect(gomock.Any(), rider, gomock.Any()).Do(func(context.Context, models.Actor, string) {
		disconnected <- struct{}{}
	})
	conn := dial(t, startServer(t, mockUC), rider)

	send(t, conn, constants.EventPing, nil)
	frame := readFrame(t, conn)
	conn.Close()
	wait(t, disconnected)

	assert.Equal(t, constants.EventPong, frame.Event)
}

func TestWebSocketHandler_RejectsMissingToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	url := startServer(t, mocks.NewMockDispatchUC(ctrl))

	_, resp, err := gorillaws.DefaultDialer.Dial(url, nil)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestWebSocketHandler_ReconnectKeepsDriverOnline(t *testing.T) {
	// Arrange
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockUC := mocks.NewMockDispatchUC(ctrl)
	disconnected := make(chan struct{}, 2)
	mockUC.EXPECT().Disconnect(gomock.Any(), driver, gomock.Any()).
		Do(func(context.Context, models.Actor, string) {
			disconnected <- struct{}{}
		}).Times(1)
	url := startServer(t, mockUC)
	first := dial(t, url, driver)
	defer first.Close()

	// Act
	second := dial(t, url, driver)
	_ = first.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, replacedErr := first.ReadMessage()
	onlineAfterReconnect := testutil.ToFloat64(metrics.DriversOnline)
	second.Close()
	wait(t, disconnected)

	// Assert
	require.Error(t, replacedErr)
	assert.Equal(t, 1.0, onlineAfterReconnect)
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.DriversOnline) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
