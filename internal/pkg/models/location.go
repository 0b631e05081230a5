package models

import "time"

// Location represents a geographical location with latitude and longitude
type Location struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
	Address   string  `json:"address,omitempty" db:"address"`
}

// Valid reports whether the coordinates are inside the WGS84 range
func (l Location) Valid() bool {
	return l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}

// Position is a live location sample reported by a connected party
type Position struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Heading   float64   `json:"heading"`
	Speed     float64   `json:"speed"`
	Timestamp time.Time `json:"timestamp"`
}

// Location drops the motion fields of the position
func (p Position) Location() Location {
	return Location{Latitude: p.Latitude, Longitude: p.Longitude}
}

// Valid reports whether the coordinates are inside the WGS84 range
func (p Position) Valid() bool {
	return p.Location().Valid()
}

// PositionUpdate is the payload pushed to the counterpart of an active trip
type PositionUpdate struct {
	TripID   string   `json:"trip_id"`
	SenderID string   `json:"sender_id"`
	Role     Role     `json:"role"`
	Position Position `json:"position"`
}
