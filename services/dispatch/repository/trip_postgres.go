package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/piresc/tripdispatch/internal/pkg/models"
	"github.com/piresc/tripdispatch/services/dispatch"
)

const tripColumns = `id, rider_id, driver_id,
	pickup_lat, pickup_lng, pickup_address,
	dropoff_lat, dropoff_lng, dropoff_address,
	status, fare_amount, fare_currency,
	current_lat, current_lng, current_heading, current_speed, current_at,
	requested_at, accepted_at, arrived_at, started_at, completed_at, cancelled_at,
	cancelled_by_id, cancelled_by_role, cancellation_reason,
	duration_seconds, distance_meters, updated_at`

// statusColumns maps a status to the column stamped when a trip enters it
var statusColumns = map[models.TripStatus]string{
	models.TripStatusAccepted:          "accepted_at",
	models.TripStatusArrived:           "arrived_at",
	models.TripStatusStarted:           "started_at",
	models.TripStatusCompleted:         "completed_at",
	models.TripStatusCancelled:         "cancelled_at",
	models.TripStatusCancelledByUser:   "cancelled_at",
	models.TripStatusCancelledByDriver: "cancelled_at",
}

var activeStatuses = []string{
	string(models.TripStatusAccepted),
	string(models.TripStatusArrived),
	string(models.TripStatusStarted),
}

// TripRepo implements the trip store on PostgreSQL
type TripRepo struct {
	cfg *models.Config
	db  *sqlx.DB
}

// NewTripRepository creates a new PostgreSQL trip store
func NewTripRepository(cfg *models.Config, db *sqlx.DB) *TripRepo {
	return &TripRepo{
		cfg: cfg,
		db:  db,
	}
}

// CreateTrip inserts a new trip row
func (r *TripRepo) CreateTrip(ctx context.Context, trip *models.Trip) error {
	query := `
		INSERT INTO trips (
			id, rider_id, driver_id,
			pickup_lat, pickup_lng, pickup_address,
			dropoff_lat, dropoff_lng, dropoff_address,
			status, fare_amount, fare_currency,
			requested_at, cancellation_reason, updated_at
		) VALUES (
			:id, :rider_id, :driver_id,
			:pickup_lat, :pickup_lng, :pickup_address,
			:dropoff_lat, :dropoff_lng, :dropoff_address,
			:status, :fare_amount, :fare_currency,
			:requested_at, :cancellation_reason, :updated_at
		)
	`
	if _, err := r.db.NamedExecContext(ctx, query, trip.ToDTO()); err != nil {
		return fmt.Errorf("failed to insert trip: %w", err)
	}
	return nil
}

// GetTrip loads a trip together with the most recent part of its route
func (r *TripRepo) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	var dto models.TripDTO
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`
	if err := r.db.GetContext(ctx, &dto, query, tripID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dispatch.ErrTripNotFound
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	trip := dto.ToTrip()

	var points []models.PositionDTO
	routeQuery := `
		SELECT trip_id, lat, lng, heading, speed, recorded_at FROM (
			SELECT seq, trip_id, lat, lng, heading, speed, recorded_at
			FROM trip_positions
			WHERE trip_id = $1
			ORDER BY seq DESC
			LIMIT $2
		) recent
		ORDER BY seq ASC
	`
	if err := r.db.SelectContext(ctx, &points, routeQuery, tripID, models.MaxRoutePoints); err != nil {
		return nil, fmt.Errorf("failed to get trip route: %w", err)
	}
	if len(points) > 0 {
		trip.Route = make([]models.Position, 0, len(points))
		for i := range points {
			trip.Route = append(trip.Route, points[i].ToPosition())
		}
	}
	return trip, nil
}

// ConditionalUpdate applies patch in a single statement guarded by the
// expected status
func (r *TripRepo) ConditionalUpdate(ctx context.Context, tripID string, expected models.TripStatus, patch models.TripPatch) (bool, error) {
	sets, args := patchAssignments(patch)
	args = append(args, tripID, expected)
	query := fmt.Sprintf("UPDATE trips SET %s WHERE id = $%d AND status = $%d",
		strings.Join(sets, ", "), len(args)-1, len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update trip: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows == 1, nil
}

func patchAssignments(patch models.TripPatch) ([]string, []interface{}) {
	var sets []string
	var args []interface{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Status != "" {
		add("status", patch.Status)
		if column, ok := statusColumns[patch.Status]; ok {
			add(column, patch.At)
		}
	}
	if patch.DriverID != nil {
		add("driver_id", sql.NullString{String: *patch.DriverID, Valid: *patch.DriverID != ""})
	}
	if patch.CancelledBy != nil {
		add("cancelled_by_id", patch.CancelledBy.ID)
		add("cancelled_by_role", string(patch.CancelledBy.Role))
		add("cancellation_reason", patch.CancellationReason)
	}
	if patch.Metrics != nil {
		add("duration_seconds", patch.Metrics.DurationSeconds)
		add("distance_meters", patch.Metrics.DistanceMeters)
	}
	add("updated_at", patch.At)
	return sets, args
}

// UpdatePosition stores pos as the live position of an active trip and
// appends it to the route, keeping at most MaxRoutePoints rows
func (r *TripRepo) UpdatePosition(ctx context.Context, tripID string, pos models.Position) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE trips
		SET current_lat = $1, current_lng = $2, current_heading = $3, current_speed = $4,
			current_at = $5, updated_at = $5
		WHERE id = $6 AND status = ANY($7)
	`, pos.Latitude, pos.Longitude, pos.Heading, pos.Speed, pos.Timestamp, tripID, pq.Array(activeStatuses))
	if err != nil {
		return fmt.Errorf("failed to update trip position: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		var status models.TripStatus
		err := tx.GetContext(ctx, &status, `SELECT status FROM trips WHERE id = $1`, tripID)
		if errors.Is(err, sql.ErrNoRows) {
			return dispatch.ErrTripNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get trip status: %w", err)
		}
		return dispatch.ErrTripNotActive
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO trip_positions (trip_id, lat, lng, heading, speed, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, tripID, pos.Latitude, pos.Longitude, pos.Heading, pos.Speed, pos.Timestamp); err != nil {
		return fmt.Errorf("failed to append route point: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM trip_positions
		WHERE trip_id = $1 AND seq NOT IN (
			SELECT seq FROM trip_positions WHERE trip_id = $1 ORDER BY seq DESC LIMIT $2
		)
	`, tripID, models.MaxRoutePoints); err != nil {
		return fmt.Errorf("failed to trim route: %w", err)
	}

	return tx.Commit()
}

// FindTrips lists trips matching filter, newest request first. Routes are
// not loaded. A driver filter also matches trips that driver cancelled.
func (r *TripRepo) FindTrips(ctx context.Context, filter models.TripFilter) ([]*models.Trip, error) {
	statuses := make([]string, 0, len(filter.Statuses))
	for _, s := range filter.Statuses {
		statuses = append(statuses, string(s))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + tripColumns + ` FROM trips
		WHERE ($1 = '' OR rider_id = $1)
			AND ($2 = '' OR driver_id = $2 OR (cancelled_by_id = $2 AND cancelled_by_role = 'driver'))
			AND (cardinality($3::text[]) = 0 OR status = ANY($3::text[]))
		ORDER BY requested_at DESC, id
		LIMIT $4`

	var dtos []models.TripDTO
	if err := r.db.SelectContext(ctx, &dtos, query, filter.RiderID, filter.DriverID, pq.Array(statuses), limit); err != nil {
		return nil, fmt.Errorf("failed to find trips: %w", err)
	}

	trips := make([]*models.Trip, 0, len(dtos))
	for i := range dtos {
		trips = append(trips, dtos[i].ToTrip())
	}
	return trips, nil
}
