package models

import "time"

// Driver is the directory record of a driver
type Driver struct {
	ID        string    `json:"id"`
	Online    bool      `json:"online"`
	Available bool      `json:"available"`
	Position  *Position `json:"position,omitempty"`
	TripID    string    `json:"trip_id,omitempty"`
	Rating    float64   `json:"rating"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NearbyDriver is one hit of a directory radius query
type NearbyDriver struct {
	DriverID       string   `json:"driver_id"`
	Location       Location `json:"location"`
	DistanceMeters float64  `json:"distance_meters"`
	Rating         float64  `json:"rating"`
}

// Candidate is a driver considered for one dispatch attempt
type Candidate struct {
	DriverID       string        `json:"driver_id"`
	Location       Location      `json:"location"`
	DistanceMeters float64       `json:"distance_meters"`
	ETA            time.Duration `json:"eta"`
	Rating         float64       `json:"rating"`
}
