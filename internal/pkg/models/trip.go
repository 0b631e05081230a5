package models

import (
	"time"
)

// TripStatus represents the current status of a trip
type TripStatus string

const (
	TripStatusRequested         TripStatus = "requested"
	TripStatusAccepted          TripStatus = "accepted"
	TripStatusArrived           TripStatus = "arrived"
	TripStatusStarted           TripStatus = "started"
	TripStatusCompleted         TripStatus = "completed"
	TripStatusCancelled         TripStatus = "cancelled"
	TripStatusCancelledByUser   TripStatus = "cancelled_by_user"
	TripStatusCancelledByDriver TripStatus = "cancelled_by_driver"
)

// AllowedTransitions lists the legal next statuses for every status.
// Terminal statuses have no entry.
var AllowedTransitions = map[TripStatus][]TripStatus{
	TripStatusRequested: {TripStatusAccepted, TripStatusCancelled},
	TripStatusAccepted:  {TripStatusArrived, TripStatusCancelledByDriver, TripStatusCancelledByUser},
	TripStatusArrived:   {TripStatusStarted, TripStatusCancelledByDriver, TripStatusCancelledByUser},
	TripStatusStarted:   {TripStatusCompleted, TripStatusCancelledByDriver},
}

// CanTransition reports whether moving from one status to another is a legal edge
func CanTransition(from, to TripStatus) bool {
	for _, next := range AllowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Valid reports whether s is a known status
func (s TripStatus) Valid() bool {
	switch s {
	case TripStatusRequested, TripStatusAccepted, TripStatusArrived, TripStatusStarted,
		TripStatusCompleted, TripStatusCancelled, TripStatusCancelledByUser, TripStatusCancelledByDriver:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s
func (s TripStatus) IsTerminal() bool {
	return s.Valid() && len(AllowedTransitions[s]) == 0
}

// IsActive reports whether live positions are relayed for trips in s
func (s TripStatus) IsActive() bool {
	return s == TripStatusAccepted || s == TripStatusArrived || s == TripStatusStarted
}

// IsCancellation reports whether s is one of the cancelled statuses
func (s TripStatus) IsCancellation() bool {
	return s == TripStatusCancelled || s == TripStatusCancelledByUser || s == TripStatusCancelledByDriver
}

// HasDriver reports whether a trip in status s must carry a driver binding
func (s TripStatus) HasDriver() bool {
	return s.IsActive() || s == TripStatusCompleted
}

// MaxRoutePoints bounds the route trail kept on a trip
const MaxRoutePoints = 500

// Trip represents one ride engagement from request to terminal state
type Trip struct {
	ID                 string       `json:"id"`
	RiderID            string       `json:"rider_id"`
	DriverID           string       `json:"driver_id,omitempty"`
	Pickup             Location     `json:"pickup"`
	Dropoff            Location     `json:"dropoff"`
	Status             TripStatus   `json:"status"`
	Fare               Fare         `json:"fare"`
	CurrentPosition    *Position    `json:"current_position,omitempty"`
	Route              []Position   `json:"route,omitempty"`
	RequestedAt        time.Time    `json:"requested_at"`
	AcceptedAt         *time.Time   `json:"accepted_at,omitempty"`
	ArrivedAt          *time.Time   `json:"arrived_at,omitempty"`
	StartedAt          *time.Time   `json:"started_at,omitempty"`
	CompletedAt        *time.Time   `json:"completed_at,omitempty"`
	CancelledAt        *time.Time   `json:"cancelled_at,omitempty"`
	CancelledBy        *Actor       `json:"cancelled_by,omitempty"`
	CancellationReason string       `json:"cancellation_reason,omitempty"`
	Metrics            *TripMetrics `json:"metrics,omitempty"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// Fare is the fare estimate captured when the trip was requested
type Fare struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// TripMetrics is stamped on completion
type TripMetrics struct {
	DurationSeconds int64   `json:"duration_seconds"`
	DistanceMeters  float64 `json:"distance_meters"`
}

// IsParty reports whether the actor is the bound rider or the bound driver
func (t *Trip) IsParty(actor Actor) bool {
	switch actor.Role {
	case RoleRider:
		return actor.ID == t.RiderID
	case RoleDriver:
		return t.DriverID != "" && actor.ID == t.DriverID
	}
	return false
}

// Counterpart returns the party that should receive updates sent by actor
func (t *Trip) Counterpart(actor Actor) Actor {
	if actor.Role == RoleDriver {
		return Actor{ID: t.RiderID, Role: RoleRider}
	}
	return Actor{ID: t.DriverID, Role: RoleDriver}
}

// Rider returns the rider as an actor
func (t *Trip) Rider() Actor {
	return Actor{ID: t.RiderID, Role: RoleRider}
}

// TimestampFor returns the transition timestamp slot for the given status
func (t *Trip) TimestampFor(status TripStatus) **time.Time {
	switch status {
	case TripStatusAccepted:
		return &t.AcceptedAt
	case TripStatusArrived:
		return &t.ArrivedAt
	case TripStatusStarted:
		return &t.StartedAt
	case TripStatusCompleted:
		return &t.CompletedAt
	case TripStatusCancelled, TripStatusCancelledByUser, TripStatusCancelledByDriver:
		return &t.CancelledAt
	}
	return nil
}

// TripPatch carries the fields changed by one conditional update
type TripPatch struct {
	Status TripStatus
	// DriverID is left untouched when nil; pointing at "" clears the binding
	DriverID           *string
	At                 time.Time
	CancelledBy        *Actor
	CancellationReason string
	Metrics            *TripMetrics
}

// Apply writes the patch onto trip
func (p TripPatch) Apply(trip *Trip) {
	if p.Status != "" {
		trip.Status = p.Status
		if slot := trip.TimestampFor(p.Status); slot != nil {
			at := p.At
			*slot = &at
		}
	}
	if p.DriverID != nil {
		trip.DriverID = *p.DriverID
	}
	if p.CancelledBy != nil {
		actor := *p.CancelledBy
		trip.CancelledBy = &actor
		trip.CancellationReason = p.CancellationReason
	}
	if p.Metrics != nil {
		metrics := *p.Metrics
		trip.Metrics = &metrics
	}
	trip.UpdatedAt = p.At
}

// AppendPosition sets the live position and extends the route trail
func (t *Trip) AppendPosition(pos Position) {
	p := pos
	t.CurrentPosition = &p
	t.Route = append(t.Route, pos)
	if len(t.Route) > MaxRoutePoints {
		t.Route = t.Route[len(t.Route)-MaxRoutePoints:]
	}
}

// WasCancelledBy reports whether the trip ended in a cancellation issued by actor
func (t *Trip) WasCancelledBy(actor Actor) bool {
	return t.Status.IsCancellation() && t.CancelledBy != nil && *t.CancelledBy == actor
}

// TripFilter selects trips for listing. DriverID also matches trips the
// driver cancelled, since cancelling clears the binding.
type TripFilter struct {
	RiderID  string
	DriverID string
	Statuses []TripStatus
	Limit    int
}

// Matches reports whether trip satisfies the filter
func (f TripFilter) Matches(trip *Trip) bool {
	if f.RiderID != "" && trip.RiderID != f.RiderID {
		return false
	}
	if f.DriverID != "" && trip.DriverID != f.DriverID && !trip.WasCancelledBy(Actor{ID: f.DriverID, Role: RoleDriver}) {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if trip.Status == s {
			return true
		}
	}
	return false
}

// TripRequest is the rider-facing payload for requesting a trip
type TripRequest struct {
	Pickup       Location `json:"pickup"`
	Dropoff      Location `json:"dropoff"`
	FareEstimate Fare     `json:"fare_estimate"`
}
