package models

import "time"

// DriverBeacon is the availability event published by upstream location services
type DriverBeacon struct {
	DriverID  string    `json:"driver_id"`
	IsActive  bool      `json:"is_active"`
	Rating    float64   `json:"rating,omitempty"`
	Position  Position  `json:"position"`
	Timestamp time.Time `json:"timestamp"`
}

// GoOnlineRequest is sent by a driver to become available for offers
type GoOnlineRequest struct {
	Position Position `json:"position"`
	Rating   float64  `json:"rating,omitempty"`
}
