package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/piresc/tripdispatch/internal/pkg/constants"
	"github.com/piresc/tripdispatch/internal/pkg/logger"
	"github.com/piresc/tripdispatch/internal/pkg/metrics"
	"github.com/piresc/tripdispatch/internal/pkg/models"
	"github.com/piresc/tripdispatch/services/dispatch"
)

// UpdatePosition throttles updates per connection and relays the position
// to the other party of the trip. Updates that cannot be persisted or
// delivered are handed to the fallback buffer and reported as accepted.
func (uc *DispatchUC) UpdatePosition(ctx context.Context, actor models.Actor, connID, tripID string, pos models.Position) error {
	if connID != "" {
		decision, err := uc.limiter.Allow(ctx, connID)
		if err != nil {
			logger.WarnCtx(ctx, "Rate limiter unavailable, allowing update", logger.Err(err))
		} else if !decision.Allowed {
			metrics.RateLimitDenied.WithLabelValues("position").Inc()
			return dispatch.ErrRateLimited
		}
	}

	if !pos.Valid() {
		return dispatch.ErrInvalidLocation
	}
	if pos.Timestamp.IsZero() {
		pos.Timestamp = uc.now().UTC()
	}

	trip, err := uc.loadTrip(ctx, tripID)
	if err != nil {
		if errors.Is(err, dispatch.ErrTripNotFound) {
			return err
		}
		uc.buffer.Enqueue(positionUpdate(tripID, actor, pos), false, err)
		return nil
	}
	return uc.relay(ctx, actor, trip, pos)
}

func positionUpdate(tripID string, sender models.Actor, pos models.Position) models.PositionUpdate {
	return models.PositionUpdate{
		TripID:   tripID,
		SenderID: sender.ID,
		Role:     sender.Role,
		Position: pos,
	}
}

// relay checks that the sender may report positions for trip, then persists
// and forwards the position
func (uc *DispatchUC) relay(ctx context.Context, actor models.Actor, trip *models.Trip, pos models.Position) error {
	if !trip.IsParty(actor) {
		return dispatch.ErrNotAuthorized
	}
	if !trip.Status.IsActive() {
		return dispatch.ErrTripNotActive
	}

	if actor.Role == models.RoleDriver {
		storeCtx, cancel := uc.storeCtx(ctx)
		if err := uc.driverRepo.SetPosition(storeCtx, actor.ID, pos); err != nil {
			logger.DebugCtx(ctx, "Driver directory position not updated",
				logger.String("driver_id", actor.ID),
				logger.Err(err))
		}
		cancel()
	}

	update := positionUpdate(trip.ID, actor, pos)
	persisted, err := uc.applyPosition(ctx, trip, update, false)
	if err != nil {
		if errors.Is(err, dispatch.ErrTripNotActive) {
			return err
		}
		uc.buffer.Enqueue(update, persisted, err)
	}
	return nil
}

// applyPosition persists update unless that already happened and pushes it
// to the counterpart. It reports whether the position is persisted.
func (uc *DispatchUC) applyPosition(ctx context.Context, trip *models.Trip, update models.PositionUpdate, persisted bool) (bool, error) {
	if !persisted {
		err := uc.storeBreaker.Execute(ctx, func(ctx context.Context) error {
			storeCtx, cancel := uc.storeCtx(ctx)
			defer cancel()
			return uc.tripRepo.UpdatePosition(storeCtx, trip.ID, update.Position)
		})
		if err != nil {
			if errors.Is(err, dispatch.ErrTripNotActive) || errors.Is(err, dispatch.ErrTripNotFound) {
				return false, dispatch.ErrTripNotActive
			}
			return false, fmt.Errorf("failed to persist position: %w", err)
		}
	}

	counterpart := trip.Counterpart(models.Actor{ID: update.SenderID, Role: update.Role})
	if counterpart.ID == "" {
		return true, nil
	}
	if err := uc.notifier.SendToParty(ctx, counterpart, constants.EventTripPosition, update); err != nil {
		return true, fmt.Errorf("%w: %v", dispatch.ErrDeliveryFailed, err)
	}
	return true, nil
}

// ReapplyPosition retries a buffered update against the current trip state.
// Updates buffered before the sender was checked are rejected here.
func (uc *DispatchUC) ReapplyPosition(ctx context.Context, update models.PositionUpdate, persisted bool) (bool, error) {
	trip, err := uc.loadTrip(ctx, update.TripID)
	if err != nil {
		return persisted, err
	}
	if !trip.IsParty(models.Actor{ID: update.SenderID, Role: update.Role}) {
		return persisted, dispatch.ErrNotAuthorized
	}
	if !trip.Status.IsActive() {
		return persisted, dispatch.ErrTripNotActive
	}
	return uc.applyPosition(ctx, trip, update, persisted)
}
