package models

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// WSMessage represents a WebSocket message structure
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// WSErrorMessage represents an error message sent over WebSocket
type WSErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WebSocketClient represents a connected WebSocket client.
// ConnID is unique per connection and keys the per-connection rate limit.
type WebSocketClient struct {
	ConnID  string
	UserID  string
	Role    Role
	Conn    *websocket.Conn
	WriteMu sync.Mutex
}
