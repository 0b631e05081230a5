package models

import "time"

// TripOffer is pushed to one candidate at a time
type TripOffer struct {
	TripID         string    `json:"trip_id"`
	RiderID        string    `json:"rider_id"`
	Pickup         Location  `json:"pickup"`
	Dropoff        Location  `json:"dropoff"`
	FareEstimate   Fare      `json:"fare_estimate"`
	DistanceMeters float64   `json:"distance_meters"`
	ETASeconds     int64     `json:"eta_seconds"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// OfferWithdrawn tells a driver its offer is no longer open
type OfferWithdrawn struct {
	TripID string `json:"trip_id"`
	Reason string `json:"reason"`
}

// TripMatched is sent to both parties once a driver is bound
type TripMatched struct {
	TripID         string   `json:"trip_id"`
	RiderID        string   `json:"rider_id"`
	DriverID       string   `json:"driver_id"`
	DriverLocation Location `json:"driver_location"`
	DistanceMeters float64  `json:"distance_meters"`
	ETASeconds     int64    `json:"eta_seconds"`
}

// TripStatusNotice is broadcast to the parties on every transition
type TripStatusNotice struct {
	TripID string     `json:"trip_id"`
	Status TripStatus `json:"status"`
	Reason string     `json:"reason,omitempty"`
	Trip   *Trip      `json:"trip,omitempty"`
}

// OfferResponse is a driver's answer to a TripOffer
type OfferResponse struct {
	TripID string `json:"trip_id"`
	Accept bool   `json:"accept"`
}

// StatusUpdateRequest asks the state machine for a transition
type StatusUpdateRequest struct {
	TripID   string     `json:"trip_id"`
	Status   TripStatus `json:"status"`
	Position *Position  `json:"position,omitempty"`
}

// CancelRequest asks for the trip to be cancelled by the caller
type CancelRequest struct {
	TripID string `json:"trip_id"`
	Reason string `json:"reason"`
}

// PositionRequest carries a live position for an active trip
type PositionRequest struct {
	TripID   string   `json:"trip_id"`
	Position Position `json:"position"`
}
