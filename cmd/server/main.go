package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"dispatch/internal/app"
	"dispatch/internal/config"
	"dispatch/internal/handler"
	internalRedis "dispatch/internal/redis"
	"dispatch/internal/repository/postgres"
	"dispatch/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// New Relic comes up first so the database and Redis clients can hook
	// into it.
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", zap.Error(err))
			nrApp = nil
		} else {
			logger.Info("New Relic enabled", zap.String("app", cfg.NewRelic.AppName))
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("connected to PostgreSQL")

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()
	logger.Info("connected to Redis")

	server := wireServer(db, redisClient, nrApp, cfg, logger)

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// SIGHUP re-reads the dispatch knobs without a restart. SIGINT/SIGTERM
	// shut down.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)

	for sig := range sigs {
		if sig == syscall.SIGHUP {
			_ = godotenv.Overload()
			cfg.Dispatch.Reload()
			logger.Info("dispatch settings reloaded",
				zap.Duration("grace_on_acceptance", cfg.Dispatch.Values().GraceOnAcceptance),
				zap.Duration("inactive_ride_threshold", cfg.Dispatch.Values().InactiveRideThreshold),
			)
			continue
		}
		break
	}
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config, logger *zap.Logger) *http.Server {
	// Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	poolStore := internalRedis.NewPoolStore(redisClient)

	// Repositories.
	userRepo := postgres.NewUserRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	rideRepo := postgres.NewRideRepository(db)
	positionRepo := postgres.NewPositionRepository(db)

	// Services.
	estimator := service.NewHTTPFareEstimator(cfg.Estimator.BaseURL, cfg.Estimator.Timeout)
	gateway := service.NewHTTPPaymentGateway(cfg.Gateway.BaseURL, cfg.Gateway.Timeout)
	notifier := service.NewNotificationService(
		service.NewLogDispatcher(logger),
		userRepo,
		driverRepo,
		logger,
	)
	lifecycle := service.NewLifecycleService(
		db,
		rideRepo,
		positionRepo,
		driverRepo,
		estimator,
		gateway,
		service.AllowAllEligibility{},
		notifier,
		lockStore,
		poolStore,
		cfg.Dispatch,
		logger,
	)
	earnings := service.NewEarningsService(rideRepo)

	// Handlers.
	rideHandler := handler.NewRideHandler(lifecycle)
	driverHandler := handler.NewDriverHandler(lifecycle, earnings)
	estimateHandler := handler.NewEstimateHandler(estimator)

	router := app.NewRouter(app.RouterDeps{
		RideHandler:     rideHandler,
		DriverHandler:   driverHandler,
		EstimateHandler: estimateHandler,
		RedisClient:     redisClient,
		NewRelicApp:     nrApp,
		JWTSecret:       cfg.Auth.JWTSecret,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
