package constants

// Redis key formats
const (
	// Driver directory
	KeyDriverGeo      = "drivers:geo"       // GEO set of online drivers
	KeyDriverState    = "driver:state:%s"   // Format: driver:state:{driver_id}
	KeyDriverLastSeen = "drivers:last_seen" // Sorted set scored by unix seconds

	// Rate Limiting
	KeyRateLimit = "rate:limit:%s:%s" // Format: rate:limit:{resource}:{id}
)

// Redis hash fields of a driver state
const (
	FieldOnline    = "online"
	FieldAvailable = "available"
	FieldTripID    = "trip_id"
	FieldLatitude  = "lat"
	FieldLongitude = "lng"
	FieldHeading   = "heading"
	FieldSpeed     = "speed"
	FieldRating    = "rating"
	FieldUpdatedAt = "updated_at"
)
