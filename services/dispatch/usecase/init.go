package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/piresc/tripdispatch/internal/pkg/circuitbreaker"
	"github.com/piresc/tripdispatch/internal/pkg/eta"
	"github.com/piresc/tripdispatch/internal/pkg/logger"
	"github.com/piresc/tripdispatch/internal/pkg/models"
	"github.com/piresc/tripdispatch/internal/pkg/ratelimit"
	"github.com/piresc/tripdispatch/internal/pkg/retry"
	"github.com/piresc/tripdispatch/services/dispatch"
)

var _ dispatch.DispatchUC = (*DispatchUC)(nil)

// DispatchUC implements the dispatch use case interface
type DispatchUC struct {
	cfg        *models.Config
	tripRepo   dispatch.TripRepo
	driverRepo dispatch.DriverRepo
	notifier   dispatch.Notifier
	eventGW    dispatch.EventGW
	estimator  eta.Estimator
	limiter    ratelimit.Limiter
	buffer     dispatch.PositionBuffer
	pruners    []ratelimit.Pruner

	storeBreaker *circuitbreaker.CircuitBreaker
	retrier      *retry.Retrier
	offers       *offerRegistry
	runs         *runRegistry
	now          func() time.Time
	nrApp        *newrelic.Application

	// runCtx parents every dispatch run so Shutdown can abort them
	runCtx    context.Context
	cancelAll context.CancelFunc
	wg        sync.WaitGroup
}

// NewDispatchUC creates a new dispatch use case. A nil estimator falls back
// to straight-line estimates and a nil limiter to an in-memory window.
func NewDispatchUC(
	cfg *models.Config,
	tripRepo dispatch.TripRepo,
	driverRepo dispatch.DriverRepo,
	notifier dispatch.Notifier,
	eventGW dispatch.EventGW,
	estimator eta.Estimator,
	limiter ratelimit.Limiter,
	buffer dispatch.PositionBuffer,
) *DispatchUC {
	applyDispatchDefaults(&cfg.Dispatch)
	if estimator == nil {
		estimator = eta.NewStraightLine(cfg.Dispatch.AverageSpeedKmh)
	}
	if limiter == nil {
		limiter = ratelimit.NewWindowLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Interval)
	}

	breakerCfg := circuitbreaker.DefaultConfig("trip-store")
	breakerCfg.IsFailure = isStoreFailure
	runCtx, cancel := context.WithCancel(context.Background())

	uc := &DispatchUC{
		cfg:          cfg,
		tripRepo:     tripRepo,
		driverRepo:   driverRepo,
		notifier:     notifier,
		eventGW:      eventGW,
		estimator:    estimator,
		limiter:      limiter,
		buffer:       buffer,
		storeBreaker: circuitbreaker.New(breakerCfg, logger.GetGlobalLogger()),
		retrier:      retry.NewWithDefaults(logger.GetGlobalLogger()),
		offers:       newOfferRegistry(),
		runs:         newRunRegistry(),
		now:          time.Now,
		runCtx:       runCtx,
		cancelAll:    cancel,
	}
	uc.TrackLimiter(limiter)
	return uc
}

// TrackLimiter adds an in-memory limiter to the set pruned by the sweeper.
// Limiters without local buckets are ignored. Call it before StartSweeper.
func (uc *DispatchUC) TrackLimiter(limiter ratelimit.Limiter) {
	if p, ok := limiter.(ratelimit.Pruner); ok {
		uc.pruners = append(uc.pruners, p)
	}
}

func applyDispatchDefaults(cfg *models.DispatchConfig) {
	if cfg.StartRadiusMeters <= 0 {
		cfg.StartRadiusMeters = 5000
	}
	if cfg.RadiusIncrementMeters <= 0 {
		cfg.RadiusIncrementMeters = 2500
	}
	if cfg.MaxRadiusMeters <= 0 {
		cfg.MaxRadiusMeters = 15000
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 4
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 10
	}
	if cfg.OfferTimeout <= 0 {
		cfg.OfferTimeout = 30 * time.Second
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 3 * time.Second
	}
}

// isStoreFailure keeps domain rejections from tripping the store breaker
func isStoreFailure(err error) bool {
	return err != nil &&
		!errors.Is(err, dispatch.ErrTripNotActive) &&
		!errors.Is(err, dispatch.ErrTripNotFound)
}

// SetNewRelic traces dispatch runs as background transactions on app
func (uc *DispatchUC) SetNewRelic(app *newrelic.Application) {
	uc.nrApp = app
}

// Breaker returns the trip store breaker for health reporting
func (uc *DispatchUC) Breaker() *circuitbreaker.CircuitBreaker {
	return uc.storeBreaker
}

// Shutdown aborts in-flight dispatch runs and waits for them to settle
func (uc *DispatchUC) Shutdown(ctx context.Context) error {
	uc.cancelAll()

	done := make(chan struct{})
	go func() {
		uc.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (uc *DispatchUC) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, uc.cfg.Dispatch.StoreTimeout)
}
