package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/piresc/tripdispatch/internal/pkg/constants"
	"github.com/piresc/tripdispatch/internal/pkg/logger"
	"github.com/piresc/tripdispatch/internal/pkg/metrics"
	"github.com/piresc/tripdispatch/internal/pkg/models"
	"github.com/piresc/tripdispatch/internal/utils"
	"github.com/piresc/tripdispatch/services/dispatch"
)

// maxTransitionAttempts bounds how often a transition is re-evaluated after
// losing its conditional update to a concurrent writer
const maxTransitionAttempts = 3

type transitionInput struct {
	driverID string
	reason   string
}

// targetFunc picks the target status from the freshly loaded trip
type targetFunc func(trip *models.Trip) models.TripStatus

func fixedTarget(status models.TripStatus) targetFunc {
	return func(*models.Trip) models.TripStatus { return status }
}

// transition moves a trip to the status chosen by target. Every attempt
// reloads the trip, re-runs the checks and commits with a conditional
// update on the status it saw.
func (uc *DispatchUC) transition(ctx context.Context, tripID string, actor models.Actor, in transitionInput, target targetFunc) (*models.Trip, error) {
	for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
		trip, err := uc.loadTrip(ctx, tripID)
		if err != nil {
			return nil, err
		}

		to := target(trip)
		if err := checkTransition(trip, actor, to, in); err != nil {
			return nil, err
		}
		if trip.Status == to {
			return trip, nil
		}

		from := trip.Status
		previousDriverID := trip.DriverID
		patch := uc.buildPatch(trip, actor, to, in)

		storeCtx, cancel := uc.storeCtx(ctx)
		ok, err := uc.tripRepo.ConditionalUpdate(storeCtx, trip.ID, from, patch)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("failed to update trip %s: %w", trip.ID, err)
		}
		if !ok {
			logger.DebugCtx(ctx, "Trip changed concurrently, re-evaluating",
				logger.String("trip_id", trip.ID),
				logger.String("expected", string(from)))
			continue
		}

		patch.Apply(trip)
		uc.afterTransition(ctx, trip, from, previousDriverID, actor, in.reason)
		return trip, nil
	}
	return nil, fmt.Errorf("%w: trip %s kept changing", dispatch.ErrTransitionContention, tripID)
}

// checkTransition runs party authorization, then the no-op check, then
// edge legality and finally the per-status role rules. A repeated
// cancellation by whoever cancelled is a no-op even though the driver
// binding is gone by then.
func checkTransition(trip *models.Trip, actor models.Actor, to models.TripStatus, in transitionInput) error {
	if trip.Status == to && trip.WasCancelledBy(actor) {
		return nil
	}
	if !actor.IsSystem() && !trip.IsParty(actor) {
		return dispatch.ErrNotAuthorized
	}
	if trip.Status == to {
		return nil
	}
	if !models.CanTransition(trip.Status, to) {
		return fmt.Errorf("%w: %s -> %s", dispatch.ErrIllegalTransition, trip.Status, to)
	}

	isDriver := actor.Role == models.RoleDriver && actor.ID == trip.DriverID
	isRider := actor.Role == models.RoleRider && actor.ID == trip.RiderID

	switch to {
	case models.TripStatusAccepted:
		if !actor.IsSystem() {
			return dispatch.ErrNotAuthorized
		}
		if in.driverID == "" {
			return fmt.Errorf("%w: accepting requires a driver", dispatch.ErrIllegalTransition)
		}
	case models.TripStatusArrived, models.TripStatusStarted, models.TripStatusCompleted,
		models.TripStatusCancelledByDriver:
		if !isDriver {
			return dispatch.ErrNotAuthorized
		}
	case models.TripStatusCancelledByUser:
		if !isRider {
			return dispatch.ErrNotAuthorized
		}
	case models.TripStatusCancelled:
		if !isRider && !actor.IsSystem() {
			return dispatch.ErrNotAuthorized
		}
	}
	return nil
}

func (uc *DispatchUC) buildPatch(trip *models.Trip, actor models.Actor, to models.TripStatus, in transitionInput) models.TripPatch {
	now := uc.now().UTC()
	patch := models.TripPatch{Status: to, At: now}

	switch {
	case to == models.TripStatusAccepted:
		driverID := in.driverID
		patch.DriverID = &driverID
	case to.IsCancellation():
		cleared := ""
		by := actor
		patch.DriverID = &cleared
		patch.CancelledBy = &by
		patch.CancellationReason = in.reason
	case to == models.TripStatusCompleted:
		patch.Metrics = completionMetrics(trip, now)
	}
	return patch
}

// completionMetrics measures the ride from pickup to dropoff
func completionMetrics(trip *models.Trip, completedAt time.Time) *models.TripMetrics {
	start := trip.RequestedAt
	if trip.StartedAt != nil {
		start = *trip.StartedAt
	}
	return &models.TripMetrics{
		DurationSeconds: int64(completedAt.Sub(start).Seconds()),
		DistanceMeters:  utils.DistanceMeters(trip.Pickup, trip.Dropoff),
	}
}

func (uc *DispatchUC) afterTransition(ctx context.Context, trip *models.Trip, from models.TripStatus, previousDriverID string, actor models.Actor, reason string) {
	metrics.TransitionsTotal.WithLabelValues(string(trip.Status)).Inc()
	logger.InfoCtx(ctx, "Trip transitioned",
		logger.String("trip_id", trip.ID),
		logger.String("from", string(from)),
		logger.String("to", string(trip.Status)),
		logger.String("actor_id", actor.ID),
		logger.String("actor_role", string(actor.Role)))

	if from == models.TripStatusRequested && trip.Status != models.TripStatusAccepted {
		uc.runs.abort(trip.ID)
	}

	if previousDriverID != "" && (trip.Status == models.TripStatusCompleted || trip.Status.IsCancellation()) {
		uc.releaseDriver(ctx, previousDriverID, trip.ID)
	}

	uc.publishTripEvent(ctx, trip, from, actor, reason)

	// The dispatcher sends a richer match notice for acceptances
	if trip.Status == models.TripStatusAccepted {
		return
	}
	notice := models.TripStatusNotice{
		TripID: trip.ID,
		Status: trip.Status,
		Reason: reason,
		Trip:   trip,
	}
	uc.notify(ctx, trip.Rider(), constants.EventTripStatus, notice)
	if previousDriverID != "" {
		uc.notify(ctx, models.Actor{ID: previousDriverID, Role: models.RoleDriver}, constants.EventTripStatus, notice)
	}
}

// releaseDriver frees a driver bound to tripID, retrying transient failures
func (uc *DispatchUC) releaseDriver(ctx context.Context, driverID, tripID string) {
	ctx = context.WithoutCancel(ctx)
	var released bool
	err := uc.retrier.Execute(ctx, func(ctx context.Context) error {
		storeCtx, cancel := uc.storeCtx(ctx)
		defer cancel()
		ok, err := uc.driverRepo.ConditionalRelease(storeCtx, driverID, tripID)
		released = ok
		return err
	})
	if err != nil {
		logger.ErrorCtx(ctx, "Failed to release driver",
			logger.String("driver_id", driverID),
			logger.String("trip_id", tripID),
			logger.Err(err))
		return
	}
	if !released {
		logger.DebugCtx(ctx, "Driver was not bound to trip",
			logger.String("driver_id", driverID),
			logger.String("trip_id", tripID))
	}
}

func eventSubject(status models.TripStatus) string {
	switch {
	case status == models.TripStatusRequested:
		return constants.SubjectTripRequested
	case status == models.TripStatusAccepted:
		return constants.SubjectTripAccepted
	case status.IsCancellation():
		return constants.SubjectTripCancelled
	default:
		return constants.SubjectTripStatus
	}
}

func (uc *DispatchUC) publishTripEvent(ctx context.Context, trip *models.Trip, from models.TripStatus, actor models.Actor, reason string) {
	event := models.TripEvent{
		Type:       eventSubject(trip.Status),
		TripID:     trip.ID,
		RiderID:    trip.RiderID,
		DriverID:   trip.DriverID,
		From:       from,
		To:         trip.Status,
		Actor:      actor,
		Reason:     reason,
		OccurredAt: trip.UpdatedAt,
	}
	if err := uc.eventGW.PublishTripEvent(context.WithoutCancel(ctx), event); err != nil {
		logger.WarnCtx(ctx, "Failed to publish trip event",
			logger.String("trip_id", trip.ID),
			logger.String("type", event.Type),
			logger.Err(err))
	}
}

// notify pushes a message to a party. Failures are logged, not returned.
func (uc *DispatchUC) notify(ctx context.Context, party models.Actor, event string, data interface{}) {
	if party.ID == "" {
		return
	}
	if err := uc.notifier.SendToParty(ctx, party, event, data); err != nil {
		logger.DebugCtx(ctx, "Notification not delivered",
			logger.String("party_id", party.ID),
			logger.String("event", event),
			logger.Err(errors.Join(dispatch.ErrDeliveryFailed, err)))
	}
}

func (uc *DispatchUC) loadTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	storeCtx, cancel := uc.storeCtx(ctx)
	defer cancel()
	trip, err := uc.tripRepo.GetTrip(storeCtx, tripID)
	if err != nil {
		if errors.Is(err, dispatch.ErrTripNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load trip %s: %w", tripID, err)
	}
	return trip, nil
}
