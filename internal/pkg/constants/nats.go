package constants

// NATS Subjects
const (
	// Trip lifecycle
	SubjectTripRequested = "trip.requested"
	SubjectTripAccepted  = "trip.accepted"
	SubjectTripStatus    = "trip.status"
	SubjectTripCancelled = "trip.cancelled"

	// Position updates dropped after exhausting fallback retries
	SubjectPositionLost = "trip.position.lost"

	// Driver presence beacons published by driver apps or gateways
	SubjectDriverBeacon = "driver.beacon"
)

// NATS queue groups
const (
	QueueDispatch = "dispatch-service"
)
