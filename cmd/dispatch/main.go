package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrecho-v4"
	"github.com/piresc/tripdispatch/internal/pkg/config"
	"github.com/piresc/tripdispatch/internal/pkg/database"
	"github.com/piresc/tripdispatch/internal/pkg/eta"
	"github.com/piresc/tripdispatch/internal/pkg/health"
	"github.com/piresc/tripdispatch/internal/pkg/kafka"
	"github.com/piresc/tripdispatch/internal/pkg/logger"
	"github.com/piresc/tripdispatch/internal/pkg/metrics"
	"github.com/piresc/tripdispatch/internal/pkg/middleware"
	"github.com/piresc/tripdispatch/internal/pkg/models"
	"github.com/piresc/tripdispatch/internal/pkg/nats"
	nrpkg "github.com/piresc/tripdispatch/internal/pkg/newrelic"
	"github.com/piresc/tripdispatch/internal/pkg/ratelimit"
	"github.com/piresc/tripdispatch/internal/pkg/server"
	"github.com/piresc/tripdispatch/internal/pkg/websocket"
	"github.com/piresc/tripdispatch/services/dispatch"
	"github.com/piresc/tripdispatch/services/dispatch/fallback"
	"github.com/piresc/tripdispatch/services/dispatch/gateway"
	"github.com/piresc/tripdispatch/services/dispatch/handler"
	"github.com/piresc/tripdispatch/services/dispatch/repository"
	"github.com/piresc/tripdispatch/services/dispatch/usecase"
)

func main() {
	appName := "dispatch-service"
	configPath := "config/dispatch.env"
	configs := config.InitConfig(configPath)

	// Initialize New Relic and Zap logger
	nrApp := nrpkg.InitNewRelic(configs)

	zapLogger, err := logger.InitZapLoggerFromConfig(configs, nrApp)
	if err != nil {
		log.Fatalf("Failed to create Zap logger: %v", err)
	}
	defer zapLogger.Close()

	logger.SetGlobalLogger(zapLogger)

	logger.Info("Starting application",
		logger.String("app", appName),
		logger.String("version", configs.App.Version),
		logger.String("environment", configs.App.Environment),
		logger.String("store_backend", configs.App.StoreBackend),
	)

	shutdown := server.NewShutdownManager(zapLogger)
	healthService := health.NewHealthService(zapLogger)

	if nrApp != nil {
		shutdown.Register("newrelic", func(context.Context) error {
			nrApp.Shutdown(10 * time.Second)
			return nil
		})
	}

	// Initialize stores
	var (
		tripRepo    dispatch.TripRepo
		driverRepo  dispatch.DriverRepo
		httpLimiter ratelimit.Limiter
	)
	switch configs.App.StoreBackend {
	case "memory":
		tripRepo = repository.NewMemoryTripRepository()
		driverRepo = repository.NewMemoryDriverRepository()
		httpLimiter = ratelimit.NewWindowLimiter(configs.RateLimit.HTTPMaxRequests, configs.RateLimit.HTTPInterval)
	default:
		postgresClient, err := database.NewPostgresClient(configs.Database)
		if err != nil {
			zapLogger.Fatal("Failed to connect to PostgreSQL", logger.Err(err))
		}
		shutdown.Register("postgres", func(context.Context) error { return postgresClient.Close() })
		healthService.AddChecker("postgres", health.PostgresChecker(postgresClient))

		redisClient, err := database.NewRedisClient(configs.Redis)
		if err != nil {
			zapLogger.Fatal("Failed to connect to Redis", logger.Err(err))
		}
		shutdown.Register("redis", func(context.Context) error { return redisClient.Close() })
		healthService.AddChecker("redis", health.RedisChecker(redisClient))

		tripRepo = repository.NewTripRepository(configs, postgresClient.GetDB())
		driverRepo = repository.NewDriverRepository(configs, redisClient)
		httpLimiter = ratelimit.NewRedisLimiter(redisClient.GetClient(), "http",
			configs.RateLimit.HTTPMaxRequests, configs.RateLimit.HTTPInterval)
	}

	// Initialize NATS
	var natsClient *nats.Client
	if configs.NATS.URL != "" {
		natsClient, err = nats.NewClient(configs.NATS.URL, appName)
		if err != nil {
			zapLogger.Fatal("Failed to connect to NATS", logger.Err(err))
		}
		shutdown.Register("nats", func(context.Context) error {
			natsClient.Close()
			return nil
		})
		healthService.AddChecker("nats", health.NATSChecker(natsClient))
	} else {
		logger.Warn("NATS_URL not set, trip events will not be published")
	}

	// Initialize Kafka timeline producer
	var producer *kafka.Producer
	if configs.Kafka.Enabled {
		producer = kafka.NewProducer(configs.Kafka)
		shutdown.Register("kafka", func(context.Context) error { return producer.Close() })
	}

	// Initialize gateway
	eventGW := gateway.NewEventGW(natsClient, producer)

	// Initialize ETA estimator
	estimator := newEstimator(configs)

	// Initialize usecase
	wsManager := websocket.NewManager(configs.JWT)
	queue := fallback.New(configs.Fallback, eventGW)
	dispatchUC := usecase.NewDispatchUC(configs, tripRepo, driverRepo, wsManager, eventGW, estimator, nil, queue)
	dispatchUC.SetNewRelic(nrApp)
	dispatchUC.TrackLimiter(httpLimiter)
	healthService.AddChecker("trip_store_breaker", health.BreakerChecker(dispatchUC.Breaker()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue.Start(ctx, dispatchUC)
	shutdown.Register("fallback-queue", func(context.Context) error {
		queue.Stop()
		return nil
	})
	dispatchUC.StartSweeper(ctx)

	// Initialize handlers
	dispatchHandler := handler.NewHandler(dispatchUC, wsManager, natsClient, configs)
	if err := dispatchHandler.InitNATSConsumers(); err != nil {
		zapLogger.Fatal("Failed to initialize NATS consumers", logger.Err(err))
	}
	shutdown.Register("nats-consumers", func(context.Context) error {
		dispatchHandler.CloseNATSConsumers()
		return nil
	})
	shutdown.Register("dispatch", dispatchUC.Shutdown)

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	// Panic recovery first so every other middleware is covered
	e.Use(middleware.PanicRecoveryWithZapMiddleware(zapLogger))
	if nrApp != nil {
		e.Use(nrecho.Middleware(nrApp))
	}
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.ZapEchoMiddleware(zapLogger))

	health.RegisterHealthEndpoints(e, appName, configs.App.Version, healthService)
	metrics.RegisterHandler(e)
	dispatchHandler.RegisterRoutes(e, httpLimiter)

	srv := server.NewGracefulServer(e, zapLogger, configs.Server.Port,
		time.Duration(configs.Server.ShutdownTimeout)*time.Second)
	if err := srv.Run(ctx); err != nil {
		zapLogger.Error("Server stopped with error", logger.Err(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(configs.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := shutdown.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Shutdown finished with errors", logger.Err(err))
	}

	zapLogger.Info("Server exiting gracefully")
	_ = zapLogger.Sync()
}

func newEstimator(configs *models.Config) eta.Estimator {
	straightLine := eta.NewStraightLine(configs.Dispatch.AverageSpeedKmh)
	if configs.Maps.APIKey == "" {
		return straightLine
	}
	road, err := eta.NewRoadEstimator(configs.Maps, straightLine)
	if err != nil {
		logger.Warn("Falling back to straight-line ETAs", logger.Err(err))
		return straightLine
	}
	return road
}
