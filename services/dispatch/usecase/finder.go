package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/piresc/tripdispatch/internal/pkg/eta"
	"github.com/piresc/tripdispatch/internal/pkg/logger"
	"github.com/piresc/tripdispatch/internal/pkg/models"
	nrpkg "github.com/piresc/tripdispatch/internal/pkg/newrelic"
	"github.com/piresc/tripdispatch/services/dispatch"
)

// searchRadii returns the radii tried for one search: the start radius
// widened by the increment, bounded by both the attempt count and the
// maximum radius
func (uc *DispatchUC) searchRadii() []float64 {
	cfg := uc.cfg.Dispatch
	radii := make([]float64, 0, cfg.MaxAttempts)
	for attempt, radius := 0, cfg.StartRadiusMeters; attempt < cfg.MaxAttempts && radius <= cfg.MaxRadiusMeters; attempt++ {
		radii = append(radii, radius)
		radius += cfg.RadiusIncrementMeters
	}
	return radii
}

// FindCandidates returns up to MaxCandidates drivers near pickup, nearest
// first, widening the search radius until some are found
func (uc *DispatchUC) FindCandidates(ctx context.Context, pickup models.Location) ([]models.Candidate, error) {
	defer nrpkg.StartSegment(ctx, "FindCandidates")()

	for _, radius := range uc.searchRadii() {
		queryCtx, cancel := uc.storeCtx(ctx)
		nearby, err := uc.driverRepo.QueryNearby(queryCtx, pickup, radius)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("failed to query drivers within %.0fm: %w", radius, err)
		}

		nearby = uc.filterByRating(nearby)
		if len(nearby) == 0 {
			logger.DebugCtx(ctx, "No drivers in radius, widening search",
				logger.Float64("radius_m", radius))
			continue
		}

		return uc.rankCandidates(ctx, pickup, nearby), nil
	}
	return nil, dispatch.ErrNoCandidates
}

func (uc *DispatchUC) filterByRating(nearby []models.NearbyDriver) []models.NearbyDriver {
	minRating := uc.cfg.Dispatch.MinDriverRating
	if minRating <= 0 {
		return nearby
	}
	kept := nearby[:0:0]
	for _, d := range nearby {
		if d.Rating >= minRating {
			kept = append(kept, d)
		}
	}
	return kept
}

func (uc *DispatchUC) rankCandidates(ctx context.Context, pickup models.Location, nearby []models.NearbyDriver) []models.Candidate {
	sort.SliceStable(nearby, func(i, j int) bool {
		if nearby[i].DistanceMeters == nearby[j].DistanceMeters {
			return nearby[i].DriverID < nearby[j].DriverID
		}
		return nearby[i].DistanceMeters < nearby[j].DistanceMeters
	})
	if len(nearby) > uc.cfg.Dispatch.MaxCandidates {
		nearby = nearby[:uc.cfg.Dispatch.MaxCandidates]
	}

	origins := make([]models.Location, len(nearby))
	for i, d := range nearby {
		origins[i] = d.Location
	}
	etas, err := uc.estimator.Estimate(ctx, origins, pickup)
	if err != nil || len(etas) != len(nearby) {
		logger.WarnCtx(ctx, "ETA estimate failed, using straight line", logger.Err(err))
		etas = nil
	}
	straight := eta.NewStraightLine(uc.cfg.Dispatch.AverageSpeedKmh)

	candidates := make([]models.Candidate, len(nearby))
	for i, d := range nearby {
		var estimate time.Duration
		if etas != nil {
			estimate = etas[i]
		} else {
			estimate = straight.Duration(d.DistanceMeters)
		}
		candidates[i] = models.Candidate{
			DriverID:       d.DriverID,
			Location:       d.Location,
			DistanceMeters: d.DistanceMeters,
			ETA:            estimate,
			Rating:         d.Rating,
		}
	}
	return candidates
}
