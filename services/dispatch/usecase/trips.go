package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/piresc/tripdispatch/internal/pkg/logger"
	"github.com/piresc/tripdispatch/internal/pkg/models"
	"github.com/piresc/tripdispatch/services/dispatch"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// RequestTrip records a new trip for the rider and starts dispatching it
func (uc *DispatchUC) RequestTrip(ctx context.Context, rider models.Actor, req models.TripRequest) (*models.Trip, error) {
	if rider.Role != models.RoleRider || rider.ID == "" {
		return nil, dispatch.ErrNotAuthorized
	}
	if !req.Pickup.Valid() || !req.Dropoff.Valid() {
		return nil, dispatch.ErrInvalidLocation
	}

	now := uc.now().UTC()
	trip := &models.Trip{
		ID:          uuid.New().String(),
		RiderID:     rider.ID,
		Pickup:      req.Pickup,
		Dropoff:     req.Dropoff,
		Status:      models.TripStatusRequested,
		Fare:        req.FareEstimate,
		RequestedAt: now,
		UpdatedAt:   now,
	}

	storeCtx, cancel := uc.storeCtx(ctx)
	defer cancel()
	if err := uc.tripRepo.CreateTrip(storeCtx, trip); err != nil {
		return nil, fmt.Errorf("failed to create trip: %w", err)
	}

	logger.InfoCtx(ctx, "Trip requested",
		logger.String("trip_id", trip.ID),
		logger.String("rider_id", rider.ID))
	uc.publishTripEvent(ctx, trip, "", rider, "")

	uc.startDispatch(trip)
	return trip, nil
}

// RespondToOffer resolves the driver's open offer for tripID
func (uc *DispatchUC) RespondToOffer(ctx context.Context, driver models.Actor, tripID string, accept bool) error {
	if driver.Role != models.RoleDriver {
		return dispatch.ErrNotAuthorized
	}
	if !uc.offers.resolve(tripID, driver.ID, accept) {
		return dispatch.ErrOfferNotFound
	}
	logger.DebugCtx(ctx, "Offer response received",
		logger.String("trip_id", tripID),
		logger.String("driver_id", driver.ID),
		logger.Bool("accept", accept))
	return nil
}

// UpdateStatus applies a lifecycle transition requested by a party. A
// position sent along with the change is relayed like any other update.
func (uc *DispatchUC) UpdateStatus(ctx context.Context, actor models.Actor, tripID string, status models.TripStatus, pos *models.Position) (*models.Trip, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", dispatch.ErrIllegalTransition, status)
	}

	trip, err := uc.transition(ctx, tripID, actor, transitionInput{}, fixedTarget(status))
	if err != nil {
		return nil, err
	}

	if pos != nil && trip.Status.IsActive() {
		if err := uc.relay(ctx, actor, trip, *pos); err != nil {
			logger.WarnCtx(ctx, "Position sent with status change was not relayed",
				logger.String("trip_id", trip.ID),
				logger.Err(err))
		}
	}
	return trip, nil
}

// cancelTarget picks the cancellation status matching who cancels and when
func cancelTarget(actor models.Actor) targetFunc {
	return func(trip *models.Trip) models.TripStatus {
		if trip.WasCancelledBy(actor) {
			return trip.Status
		}
		switch actor.Role {
		case models.RoleDriver:
			return models.TripStatusCancelledByDriver
		case models.RoleRider:
			if trip.Status == models.TripStatusRequested {
				return models.TripStatusCancelled
			}
			return models.TripStatusCancelledByUser
		}
		return models.TripStatusCancelled
	}
}

// CancelTrip cancels the trip on behalf of actor
func (uc *DispatchUC) CancelTrip(ctx context.Context, actor models.Actor, tripID, reason string) (*models.Trip, error) {
	return uc.transition(ctx, tripID, actor, transitionInput{reason: reason}, cancelTarget(actor))
}

// GetTrip returns a trip to one of its parties
func (uc *DispatchUC) GetTrip(ctx context.Context, actor models.Actor, tripID string) (*models.Trip, error) {
	trip, err := uc.loadTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !actor.IsSystem() && !trip.IsParty(actor) {
		return nil, dispatch.ErrNotAuthorized
	}
	return trip, nil
}

// ListTrips returns the caller's trips, newest first
func (uc *DispatchUC) ListTrips(ctx context.Context, actor models.Actor, statuses []models.TripStatus, limit int) ([]*models.Trip, error) {
	filter := models.TripFilter{Statuses: statuses, Limit: limit}
	switch actor.Role {
	case models.RoleRider:
		filter.RiderID = actor.ID
	case models.RoleDriver:
		filter.DriverID = actor.ID
	default:
		return nil, dispatch.ErrNotAuthorized
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}

	storeCtx, cancel := uc.storeCtx(ctx)
	defer cancel()
	trips, err := uc.tripRepo.FindTrips(storeCtx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	return trips, nil
}
