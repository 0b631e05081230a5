package models

import "time"

// TripEvent is the domain event emitted for every committed trip change
type TripEvent struct {
	Type       string     `json:"type"`
	TripID     string     `json:"trip_id"`
	RiderID    string     `json:"rider_id"`
	DriverID   string     `json:"driver_id,omitempty"`
	From       TripStatus `json:"from,omitempty"`
	To         TripStatus `json:"to"`
	Actor      Actor      `json:"actor"`
	Reason     string     `json:"reason,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// PositionLostEvent records a position the fallback queue gave up on
type PositionLostEvent struct {
	TripID     string    `json:"trip_id"`
	SenderID   string    `json:"sender_id"`
	Position   Position  `json:"position"`
	Retries    int       `json:"retries"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	LostAt     time.Time `json:"lost_at"`
	LastError  string    `json:"last_error"`
}
