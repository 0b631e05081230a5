package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/piresc/tripdispatch/internal/pkg/constants"
	jwtpkg "github.com/piresc/tripdispatch/internal/pkg/jwt"
	"github.com/piresc/tripdispatch/internal/pkg/logger"
	"github.com/piresc/tripdispatch/internal/pkg/metrics"
	"github.com/piresc/tripdispatch/internal/pkg/models"
)

// ErrNotConnected is returned when the target party has no live connection
var ErrNotConnected = errors.New("party not connected")

const defaultWriteTimeout = 5 * time.Second

// Manager keeps one live connection per party and delivers events to it
type Manager struct {
	sync.RWMutex
	clients      map[string]*models.WebSocketClient
	cfg          models.JWTConfig
	upgrader     websocket.Upgrader
	writeTimeout time.Duration
}

// NewManager creates a new WebSocket manager
func NewManager(jwtConfig models.JWTConfig) *Manager {
	return &Manager{
		clients: make(map[string]*models.WebSocketClient),
		cfg:     jwtConfig,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		writeTimeout: defaultWriteTimeout,
	}
}

func partyKey(role models.Role, id string) string {
	return string(role) + ":" + id
}

// HandleConnection authenticates, upgrades and registers the connection,
// then hands it to handleClient until the read loop ends. handleClient may
// call RemoveClient itself to learn whether it was replaced.
func (m *Manager) HandleConnection(c echo.Context, handleClient func(*models.WebSocketClient) error) error {
	client, err := m.authenticateClient(c)
	if err != nil {
		return err
	}

	ws, err := m.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	client.Conn = ws
	client.ConnID = uuid.NewString()
	if prev := m.AddClient(client); prev != nil {
		logger.Info("Replacing previous connection",
			logger.String("user_id", client.UserID),
			logger.String("role", string(client.Role)))
		prev.Conn.Close()
	}
	defer m.RemoveClient(client)

	return handleClient(client)
}

// authenticateClient reads the bearer token from the Authorization header or,
// for browsers that cannot set headers on upgrade, the token query parameter
func (m *Manager) authenticateClient(c echo.Context) (*models.WebSocketClient, error) {
	token := c.QueryParam("token")
	if authHeader := c.Request().Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
		}
		token = parts[1]
	}
	if token == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is required")
	}

	claims, err := jwtpkg.ValidateToken(token, m.cfg.Secret)
	if err != nil {
		logger.Warn("Token validation failed", logger.Err(err))
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
	}

	return &models.WebSocketClient{UserID: claims.UserID, Role: claims.Role}, nil
}

// AddClient registers client and returns the connection it replaced, if any
func (m *Manager) AddClient(client *models.WebSocketClient) *models.WebSocketClient {
	m.Lock()
	defer m.Unlock()
	key := partyKey(client.Role, client.UserID)
	prev := m.clients[key]
	m.clients[key] = client
	m.reportConnected()
	return prev
}

// RemoveClient unregisters client unless a newer connection already replaced it
func (m *Manager) RemoveClient(client *models.WebSocketClient) bool {
	m.Lock()
	defer m.Unlock()
	key := partyKey(client.Role, client.UserID)
	if current, ok := m.clients[key]; ok && current == client {
		delete(m.clients, key)
		m.reportConnected()
		return true
	}
	return false
}

// GetClient returns the live connection of a party
func (m *Manager) GetClient(party models.Actor) (*models.WebSocketClient, bool) {
	m.RLock()
	defer m.RUnlock()
	client, exists := m.clients[partyKey(party.Role, party.ID)]
	return client, exists
}

// ConnectedCount returns the number of live connections for a role
func (m *Manager) ConnectedCount(role models.Role) int {
	m.RLock()
	defer m.RUnlock()
	return m.connectedCount(role)
}

// reportConnected refreshes the online drivers gauge; callers hold the lock
func (m *Manager) reportConnected() {
	metrics.DriversOnline.Set(float64(m.connectedCount(models.RoleDriver)))
}

func (m *Manager) connectedCount(role models.Role) int {
	n := 0
	for _, c := range m.clients {
		if c.Role == role {
			n++
		}
	}
	return n
}

// SendMessage writes one event frame to a client
func (m *Manager) SendMessage(client *models.WebSocketClient, event string, data interface{}) error {
	if client == nil || client.Conn == nil {
		return ErrNotConnected
	}

	rawData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("error marshaling message data: %w", err)
	}

	client.WriteMu.Lock()
	defer client.WriteMu.Unlock()
	_ = client.Conn.SetWriteDeadline(time.Now().Add(m.writeTimeout))
	return client.Conn.WriteJSON(models.WSMessage{Event: event, Data: rawData})
}

// SendErrorMessage sends an error frame to a client
func (m *Manager) SendErrorMessage(client *models.WebSocketClient, code string, message string) error {
	return m.SendMessage(client, constants.EventError, models.WSErrorMessage{
		Code:    code,
		Message: message,
	})
}

// SendToParty delivers an event to a party's live connection. It fails with
// ErrNotConnected when the party is offline and with the write error when
// the frame could not be written.
func (m *Manager) SendToParty(ctx context.Context, party models.Actor, event string, data interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	client, ok := m.GetClient(party)
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrNotConnected, party.Role, party.ID)
	}
	if err := m.SendMessage(client, event, data); err != nil {
		logger.WarnCtx(ctx, "Error sending message to client",
			logger.String("user_id", party.ID),
			logger.String("event", event),
			logger.Err(err))
		return fmt.Errorf("failed to deliver %s: %w", event, err)
	}
	return nil
}
