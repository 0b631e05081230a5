package constants

// WebSocket event types
const (
	// Common events
	EventError = "error"
	EventPing  = "ping"
	EventPong  = "pong"

	// Inbound events
	EventOfferResponse  = "offer_response"
	EventPositionUpdate = "position_update"
	EventStatusUpdate   = "status_update"
	EventCancelTrip     = "cancel_trip"
	EventGoOnline       = "go_online"
	EventGoOffline      = "go_offline"

	// Outbound events
	EventTripOffer      = "trip_offer"
	EventOfferWithdrawn = "offer_withdrawn"
	EventTripMatched    = "trip_matched"
	EventTripStatus     = "trip_status"
	EventTripPosition   = "trip_position"
)

// WebSocket error codes
const (
	ErrorInvalidFormat     = "invalid_format"
	ErrorNotAuthorized     = "not_authorized"
	ErrorInternalError     = "internal_error"
	ErrorRateLimitExceeded = "rate_limit_exceeded"
	ErrorInvalidLocation   = "invalid_location"
	ErrorTripNotFound      = "trip_not_found"
	ErrorTripNotActive     = "trip_not_active"
	ErrorIllegalTransition = "illegal_transition"
	ErrorTripContention    = "trip_contention"
	ErrorOfferNotFound     = "offer_not_found"
	ErrorUnknownEvent      = "unknown_event"
)

// Offer withdrawal reasons
const (
	WithdrawExpired   = "expired"
	WithdrawCancelled = "trip_cancelled"
	WithdrawRaceLost  = "assigned_elsewhere"
)
