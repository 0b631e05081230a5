package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/piresc/tripdispatch/internal/pkg/logger"
	"github.com/piresc/tripdispatch/internal/pkg/models"
	"github.com/piresc/tripdispatch/services/dispatch"
)

// GoOnline makes the driver visible to dispatch at the given position
func (uc *DispatchUC) GoOnline(ctx context.Context, driver models.Actor, req models.GoOnlineRequest) error {
	if driver.Role != models.RoleDriver {
		return dispatch.ErrNotAuthorized
	}
	return uc.setOnline(ctx, driver.ID, req.Position, req.Rating)
}

func (uc *DispatchUC) setOnline(ctx context.Context, driverID string, pos models.Position, rating float64) error {
	if !pos.Valid() {
		return dispatch.ErrInvalidLocation
	}
	if pos.Timestamp.IsZero() {
		pos.Timestamp = uc.now().UTC()
	}

	storeCtx, cancel := uc.storeCtx(ctx)
	defer cancel()
	if err := uc.driverRepo.GoOnline(storeCtx, driverID, pos, rating); err != nil {
		return fmt.Errorf("failed to set driver online: %w", err)
	}
	logger.InfoCtx(ctx, "Driver online", logger.String("driver_id", driverID))
	return nil
}

// GoOffline removes the driver from dispatch. A trip already bound to the
// driver is unaffected.
func (uc *DispatchUC) GoOffline(ctx context.Context, driver models.Actor) error {
	if driver.Role != models.RoleDriver {
		return dispatch.ErrNotAuthorized
	}
	return uc.setOffline(ctx, driver.ID)
}

func (uc *DispatchUC) setOffline(ctx context.Context, driverID string) error {
	storeCtx, cancel := uc.storeCtx(ctx)
	defer cancel()
	if err := uc.driverRepo.SetOffline(storeCtx, driverID); err != nil {
		return fmt.Errorf("failed to set driver offline: %w", err)
	}
	logger.InfoCtx(ctx, "Driver offline", logger.String("driver_id", driverID))
	return nil
}

// HandleBeacon applies an availability beacon published by an upstream
// location service
func (uc *DispatchUC) HandleBeacon(ctx context.Context, beacon models.DriverBeacon) error {
	if beacon.DriverID == "" {
		return fmt.Errorf("%w: beacon without driver id", dispatch.ErrNotAuthorized)
	}
	if !beacon.IsActive {
		return uc.setOffline(ctx, beacon.DriverID)
	}
	pos := beacon.Position
	if pos.Timestamp.IsZero() {
		pos.Timestamp = beacon.Timestamp
	}
	return uc.setOnline(ctx, beacon.DriverID, pos, beacon.Rating)
}

// Disconnect drops per-connection throttling state. A driver whose socket
// closed is taken offline.
func (uc *DispatchUC) Disconnect(ctx context.Context, actor models.Actor, connID string) {
	if forgetter, ok := uc.limiter.(interface{ Forget(key string) }); ok {
		forgetter.Forget(connID)
	}
	if actor.Role != models.RoleDriver {
		return
	}
	if err := uc.setOffline(context.WithoutCancel(ctx), actor.ID); err != nil {
		logger.WarnCtx(ctx, "Failed to set disconnected driver offline",
			logger.String("driver_id", actor.ID),
			logger.Err(err))
	}
}

// SweepStaleDrivers takes drivers offline that have not reported in since
// StaleAfter. It returns how many were swept.
func (uc *DispatchUC) SweepStaleDrivers(ctx context.Context) (int, error) {
	staleAfter := uc.cfg.Drivers.StaleAfter
	if staleAfter <= 0 {
		return 0, nil
	}

	storeCtx, cancel := uc.storeCtx(ctx)
	ids, err := uc.driverRepo.StaleDrivers(storeCtx, uc.now().Add(-staleAfter))
	cancel()
	if err != nil {
		return 0, fmt.Errorf("failed to list stale drivers: %w", err)
	}

	swept := 0
	for _, id := range ids {
		if err := uc.setOffline(ctx, id); err != nil {
			logger.WarnCtx(ctx, "Failed to sweep stale driver",
				logger.String("driver_id", id),
				logger.Err(err))
			continue
		}
		swept++
	}
	if swept > 0 {
		logger.InfoCtx(ctx, "Swept stale drivers", logger.Int("count", swept))
	}
	return swept, nil
}

// pruneLimiters drops expired rate limit buckets
func (uc *DispatchUC) pruneLimiters(ctx context.Context) int {
	removed := 0
	for _, p := range uc.pruners {
		removed += p.Prune()
	}
	if removed > 0 {
		logger.DebugCtx(ctx, "Pruned rate limit buckets", logger.Int("count", removed))
	}
	return removed
}

// StartSweeper runs SweepStaleDrivers and prunes idle rate limit buckets on
// the configured interval until ctx is done
func (uc *DispatchUC) StartSweeper(ctx context.Context) {
	interval := uc.cfg.Drivers.SweepInterval
	if interval <= 0 {
		return
	}

	uc.wg.Add(1)
	go func() {
		defer uc.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-uc.runCtx.Done():
				return
			case <-ticker.C:
				if _, err := uc.SweepStaleDrivers(ctx); err != nil {
					logger.WarnCtx(ctx, "Driver sweep failed", logger.Err(err))
				}
				uc.pruneLimiters(ctx)
			}
		}
	}()
}
