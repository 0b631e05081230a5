package models

import (
	"database/sql"
	"time"
)

// TripDTO is used for database operations to flatten the nested trip structs
type TripDTO struct {
	ID                 string          `db:"id"`
	RiderID            string          `db:"rider_id"`
	DriverID           sql.NullString  `db:"driver_id"`
	PickupLatitude     float64         `db:"pickup_lat"`
	PickupLongitude    float64         `db:"pickup_lng"`
	PickupAddress      string          `db:"pickup_address"`
	DropoffLatitude    float64         `db:"dropoff_lat"`
	DropoffLongitude   float64         `db:"dropoff_lng"`
	DropoffAddress     string          `db:"dropoff_address"`
	Status             TripStatus      `db:"status"`
	FareAmount         float64         `db:"fare_amount"`
	FareCurrency       string          `db:"fare_currency"`
	CurrentLatitude    sql.NullFloat64 `db:"current_lat"`
	CurrentLongitude   sql.NullFloat64 `db:"current_lng"`
	CurrentHeading     sql.NullFloat64 `db:"current_heading"`
	CurrentSpeed       sql.NullFloat64 `db:"current_speed"`
	CurrentAt          sql.NullTime    `db:"current_at"`
	RequestedAt        time.Time       `db:"requested_at"`
	AcceptedAt         sql.NullTime    `db:"accepted_at"`
	ArrivedAt          sql.NullTime    `db:"arrived_at"`
	StartedAt          sql.NullTime    `db:"started_at"`
	CompletedAt        sql.NullTime    `db:"completed_at"`
	CancelledAt        sql.NullTime    `db:"cancelled_at"`
	CancelledByID      sql.NullString  `db:"cancelled_by_id"`
	CancelledByRole    sql.NullString  `db:"cancelled_by_role"`
	CancellationReason string          `db:"cancellation_reason"`
	DurationSeconds    sql.NullInt64   `db:"duration_seconds"`
	DistanceMeters     sql.NullFloat64 `db:"distance_meters"`
	UpdatedAt          time.Time       `db:"updated_at"`
}

// PositionDTO is one row of a trip route
type PositionDTO struct {
	TripID     string    `db:"trip_id"`
	Latitude   float64   `db:"lat"`
	Longitude  float64   `db:"lng"`
	Heading    float64   `db:"heading"`
	Speed      float64   `db:"speed"`
	RecordedAt time.Time `db:"recorded_at"`
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// ToDTO converts a Trip to a TripDTO
func (t *Trip) ToDTO() *TripDTO {
	dto := &TripDTO{
		ID:                 t.ID,
		RiderID:            t.RiderID,
		DriverID:           sql.NullString{String: t.DriverID, Valid: t.DriverID != ""},
		PickupLatitude:     t.Pickup.Latitude,
		PickupLongitude:    t.Pickup.Longitude,
		PickupAddress:      t.Pickup.Address,
		DropoffLatitude:    t.Dropoff.Latitude,
		DropoffLongitude:   t.Dropoff.Longitude,
		DropoffAddress:     t.Dropoff.Address,
		Status:             t.Status,
		FareAmount:         t.Fare.Amount,
		FareCurrency:       t.Fare.Currency,
		RequestedAt:        t.RequestedAt,
		AcceptedAt:         nullTime(t.AcceptedAt),
		ArrivedAt:          nullTime(t.ArrivedAt),
		StartedAt:          nullTime(t.StartedAt),
		CompletedAt:        nullTime(t.CompletedAt),
		CancelledAt:        nullTime(t.CancelledAt),
		CancellationReason: t.CancellationReason,
		UpdatedAt:          t.UpdatedAt,
	}
	if p := t.CurrentPosition; p != nil {
		dto.CurrentLatitude = sql.NullFloat64{Float64: p.Latitude, Valid: true}
		dto.CurrentLongitude = sql.NullFloat64{Float64: p.Longitude, Valid: true}
		dto.CurrentHeading = sql.NullFloat64{Float64: p.Heading, Valid: true}
		dto.CurrentSpeed = sql.NullFloat64{Float64: p.Speed, Valid: true}
		dto.CurrentAt = sql.NullTime{Time: p.Timestamp, Valid: true}
	}
	if a := t.CancelledBy; a != nil {
		dto.CancelledByID = sql.NullString{String: a.ID, Valid: true}
		dto.CancelledByRole = sql.NullString{String: string(a.Role), Valid: true}
	}
	if m := t.Metrics; m != nil {
		dto.DurationSeconds = sql.NullInt64{Int64: m.DurationSeconds, Valid: true}
		dto.DistanceMeters = sql.NullFloat64{Float64: m.DistanceMeters, Valid: true}
	}
	return dto
}

// ToTrip converts a TripDTO to a Trip
func (dto *TripDTO) ToTrip() *Trip {
	trip := &Trip{
		ID:       dto.ID,
		RiderID:  dto.RiderID,
		DriverID: dto.DriverID.String,
		Pickup: Location{
			Latitude:  dto.PickupLatitude,
			Longitude: dto.PickupLongitude,
			Address:   dto.PickupAddress,
		},
		Dropoff: Location{
			Latitude:  dto.DropoffLatitude,
			Longitude: dto.DropoffLongitude,
			Address:   dto.DropoffAddress,
		},
		Status:             dto.Status,
		Fare:               Fare{Amount: dto.FareAmount, Currency: dto.FareCurrency},
		RequestedAt:        dto.RequestedAt,
		AcceptedAt:         timePtr(dto.AcceptedAt),
		ArrivedAt:          timePtr(dto.ArrivedAt),
		StartedAt:          timePtr(dto.StartedAt),
		CompletedAt:        timePtr(dto.CompletedAt),
		CancelledAt:        timePtr(dto.CancelledAt),
		CancellationReason: dto.CancellationReason,
		UpdatedAt:          dto.UpdatedAt,
	}
	if dto.CurrentLatitude.Valid && dto.CurrentLongitude.Valid {
		trip.CurrentPosition = &Position{
			Latitude:  dto.CurrentLatitude.Float64,
			Longitude: dto.CurrentLongitude.Float64,
			Heading:   dto.CurrentHeading.Float64,
			Speed:     dto.CurrentSpeed.Float64,
			Timestamp: dto.CurrentAt.Time,
		}
	}
	if dto.CancelledByID.Valid {
		trip.CancelledBy = &Actor{ID: dto.CancelledByID.String, Role: Role(dto.CancelledByRole.String)}
	}
	if dto.DurationSeconds.Valid {
		trip.Metrics = &TripMetrics{
			DurationSeconds: dto.DurationSeconds.Int64,
			DistanceMeters:  dto.DistanceMeters.Float64,
		}
	}
	return trip
}

// ToPosition converts a route row back to a Position
func (dto *PositionDTO) ToPosition() Position {
	return Position{
		Latitude:  dto.Latitude,
		Longitude: dto.Longitude,
		Heading:   dto.Heading,
		Speed:     dto.Speed,
		Timestamp: dto.RecordedAt,
	}
}
