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
	nrpkg "github.com/piresc/tripdispatch/internal/pkg/newrelic"
	"github.com/piresc/tripdispatch/internal/pkg/retry"
	"github.com/piresc/tripdispatch/services/dispatch"
)

// Cancellation reasons recorded when dispatch gives up on a trip
const (
	ReasonNoDrivers           = "no drivers available"
	ReasonDispatchFailed      = "dispatch failed"
	ReasonDispatchInterrupted = "dispatch interrupted"
)

// Dispatch results
const (
	resultMatched      = "matched"
	resultNoCandidates = "no_candidates"
	resultExhausted    = "exhausted"
	resultAborted      = "aborted"
	resultFailed       = "failed"
)

// startDispatch runs Dispatch for trip in the background
func (uc *DispatchUC) startDispatch(trip *models.Trip) {
	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		ctx, end := nrpkg.StartBackgroundTransaction(uc.runCtx, uc.nrApp, "dispatch")
		defer end()
		if err := uc.Dispatch(ctx, trip); err != nil {
			nrpkg.NoticeError(ctx, err)
			logger.Info("Dispatch finished without a driver",
				logger.String("trip_id", trip.ID),
				logger.Err(err))
		}
	}()
}

// Dispatch offers trip to nearby candidates one at a time until one accepts
// and is bound. A trip that cannot be matched is cancelled, so no trip
// stays requested once its run ends.
func (uc *DispatchUC) Dispatch(ctx context.Context, trip *models.Trip) error {
	runCtx, done := uc.runs.start(ctx, trip.ID)
	defer done()

	started := uc.now()
	defer func() {
		metrics.DispatchLatency.Observe(uc.now().Sub(started).Seconds())
	}()

	candidates, err := uc.FindCandidates(runCtx, trip.Pickup)
	if err != nil {
		if uc.stopped(ctx, runCtx, trip) {
			return nil
		}
		if errors.Is(err, dispatch.ErrNoCandidates) {
			metrics.DispatchTotal.WithLabelValues(resultNoCandidates).Inc()
			uc.failDispatch(ctx, trip, ReasonNoDrivers)
			return err
		}
		metrics.DispatchTotal.WithLabelValues(resultFailed).Inc()
		uc.failDispatch(ctx, trip, ReasonDispatchFailed)
		return err
	}

	for _, candidate := range candidates {
		if uc.stopped(ctx, runCtx, trip) {
			return nil
		}
		if current, err := uc.loadTrip(runCtx, trip.ID); err == nil && current.Status != models.TripStatusRequested {
			metrics.DispatchTotal.WithLabelValues(resultAborted).Inc()
			return nil
		}
		if !uc.driverEligible(runCtx, candidate.DriverID) {
			metrics.OffersTotal.WithLabelValues(metrics.OutcomeSkipped).Inc()
			continue
		}

		outcome := uc.offer(runCtx, trip, candidate)
		metrics.OffersTotal.WithLabelValues(outcome).Inc()
		if outcome == metrics.OutcomeAccepted {
			metrics.DispatchTotal.WithLabelValues(resultMatched).Inc()
			return nil
		}
	}

	if uc.stopped(ctx, runCtx, trip) {
		return nil
	}
	metrics.DispatchTotal.WithLabelValues(resultExhausted).Inc()
	uc.failDispatch(ctx, trip, ReasonNoDrivers)
	return dispatch.ErrDispatchExhausted
}

// stopped reports whether the run was cut short. A run aborted by a
// transition leaves the trip alone; a run stopped by shutdown cancels it.
func (uc *DispatchUC) stopped(parent, runCtx context.Context, trip *models.Trip) bool {
	if runCtx.Err() == nil {
		return false
	}
	metrics.DispatchTotal.WithLabelValues(resultAborted).Inc()
	if parent.Err() != nil {
		uc.failDispatch(parent, trip, ReasonDispatchInterrupted)
	}
	return true
}

// driverEligible is a best-effort check; the conditional bind is what
// actually guards against double assignment
func (uc *DispatchUC) driverEligible(ctx context.Context, driverID string) bool {
	storeCtx, cancel := uc.storeCtx(ctx)
	defer cancel()

	driver, err := uc.driverRepo.GetDriver(storeCtx, driverID)
	if errors.Is(err, dispatch.ErrDriverNotFound) {
		return false
	}
	if err != nil {
		return true
	}
	return driver.Online && driver.Available
}

// offer sends one offer and waits for its response, expiry or an abort.
// It returns the offer outcome.
func (uc *DispatchUC) offer(ctx context.Context, trip *models.Trip, candidate models.Candidate) string {
	responses, closeOffer := uc.offers.open(trip.ID, candidate.DriverID)
	defer closeOffer()

	driver := models.Actor{ID: candidate.DriverID, Role: models.RoleDriver}
	timeout := uc.cfg.Dispatch.OfferTimeout
	offer := models.TripOffer{
		TripID:         trip.ID,
		RiderID:        trip.RiderID,
		Pickup:         trip.Pickup,
		Dropoff:        trip.Dropoff,
		FareEstimate:   trip.Fare,
		DistanceMeters: candidate.DistanceMeters,
		ETASeconds:     int64(candidate.ETA / time.Second),
		ExpiresAt:      uc.now().Add(timeout).UTC(),
	}

	if err := uc.notifier.SendToParty(ctx, driver, constants.EventTripOffer, offer); err != nil {
		logger.WarnCtx(ctx, "Offer not delivered, moving to next candidate",
			logger.String("trip_id", trip.ID),
			logger.String("driver_id", candidate.DriverID),
			logger.Err(fmt.Errorf("%w: %v", dispatch.ErrDeliveryFailed, err)))
		return metrics.OutcomeDeliveryError
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case accept := <-responses:
		if !accept {
			logger.InfoCtx(ctx, "Offer declined",
				logger.String("trip_id", trip.ID),
				logger.String("driver_id", candidate.DriverID))
			return metrics.OutcomeDeclined
		}
		return uc.bindCandidate(ctx, trip, candidate)

	case <-timer.C:
		uc.withdrawOffer(ctx, driver, trip.ID, constants.WithdrawExpired)
		return metrics.OutcomeExpired

	case <-ctx.Done():
		uc.withdrawOffer(ctx, driver, trip.ID, constants.WithdrawCancelled)
		return metrics.OutcomeAborted
	}
}

// bindCandidate reserves the driver first and then moves the trip to
// accepted. The driver is released again when the trip moved on meanwhile.
func (uc *DispatchUC) bindCandidate(ctx context.Context, trip *models.Trip, candidate models.Candidate) string {
	driver := models.Actor{ID: candidate.DriverID, Role: models.RoleDriver}
	commitCtx := context.WithoutCancel(ctx)

	storeCtx, cancel := uc.storeCtx(commitCtx)
	bound, err := uc.driverRepo.ConditionalBind(storeCtx, candidate.DriverID, trip.ID)
	cancel()
	if err != nil || !bound {
		metrics.BindRacesLost.Inc()
		logger.WarnCtx(ctx, "Driver could not be bound",
			logger.String("trip_id", trip.ID),
			logger.String("driver_id", candidate.DriverID),
			logger.Err(errors.Join(dispatch.ErrBindRaceLost, err)))
		uc.withdrawOffer(ctx, driver, trip.ID, constants.WithdrawRaceLost)
		return metrics.OutcomeRaceLost
	}

	accepted, err := uc.transition(commitCtx, trip.ID, models.SystemActor,
		transitionInput{driverID: candidate.DriverID}, fixedTarget(models.TripStatusAccepted))
	if err != nil || accepted.DriverID != candidate.DriverID {
		uc.releaseDriver(commitCtx, candidate.DriverID, trip.ID)
		metrics.BindRacesLost.Inc()
		logger.WarnCtx(ctx, "Trip left requested before binding completed",
			logger.String("trip_id", trip.ID),
			logger.String("driver_id", candidate.DriverID),
			logger.Err(errors.Join(dispatch.ErrBindRaceLost, err)))
		uc.withdrawOffer(ctx, driver, trip.ID, constants.WithdrawRaceLost)
		return metrics.OutcomeRaceLost
	}

	matched := models.TripMatched{
		TripID:         accepted.ID,
		RiderID:        accepted.RiderID,
		DriverID:       candidate.DriverID,
		DriverLocation: candidate.Location,
		DistanceMeters: candidate.DistanceMeters,
		ETASeconds:     int64(candidate.ETA / time.Second),
	}
	uc.notify(commitCtx, accepted.Rider(), constants.EventTripMatched, matched)
	uc.notify(commitCtx, driver, constants.EventTripMatched, matched)

	logger.InfoCtx(ctx, "Trip matched",
		logger.String("trip_id", accepted.ID),
		logger.String("driver_id", candidate.DriverID),
		logger.Float64("distance_m", candidate.DistanceMeters))
	return metrics.OutcomeAccepted
}

func (uc *DispatchUC) withdrawOffer(ctx context.Context, driver models.Actor, tripID, reason string) {
	uc.notify(context.WithoutCancel(ctx), driver, constants.EventOfferWithdrawn, models.OfferWithdrawn{
		TripID: tripID,
		Reason: reason,
	})
}

// failDispatch cancels a trip that could not be matched. The trip may have
// moved on already, in which case there is nothing to do.
func (uc *DispatchUC) failDispatch(ctx context.Context, trip *models.Trip, reason string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	err := uc.retrier.Execute(ctx, func(ctx context.Context) error {
		_, err := uc.transition(ctx, trip.ID, models.SystemActor,
			transitionInput{reason: reason}, fixedTarget(models.TripStatusCancelled))
		if errors.Is(err, dispatch.ErrIllegalTransition) || errors.Is(err, dispatch.ErrTripNotFound) {
			return retry.Permanent(err)
		}
		return err
	})
	if err != nil && !errors.Is(err, dispatch.ErrIllegalTransition) {
		logger.ErrorCtx(ctx, "Failed to cancel unmatched trip",
			logger.String("trip_id", trip.ID),
			logger.String("reason", reason),
			logger.Err(err))
	}
}
