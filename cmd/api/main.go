package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	httptransport "github.com/FleetTrackPigs/fleet-track-sub000/internal/api/http"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/api/http/handlers"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/cache"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/config"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/events"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/jobs"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/observability"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/persistence"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/repository"
	"github.com/FleetTrackPigs/fleet-track-sub000/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	vehicleRepo := repository.NewVehicleRepository(pool)
	driverRepo := repository.NewDriverRepository(pool)
	maintenanceRepo := repository.NewMaintenanceRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	events.RegisterAuditLogger(dispatcher, logger)

	assignmentIndex := cache.NewAssignmentIndex(redis.Client, driverRepo, logger)

	vehicleService := service.NewVehicleService(vehicleRepo)
	driverService := service.NewDriverService(driverRepo)
	maintenanceService := service.NewMaintenanceService(maintenanceRepo)
	assignmentService := service.NewAssignmentService(cfg.Fleet, service.AssignmentDependencies{
		VehicleRepo: vehicleRepo,
		DriverRepo:  driverRepo,
		Maintenance: maintenanceService,
		Index:       assignmentIndex,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})

	audit := jobs.NewConsistencyAudit(vehicleRepo, driverRepo, metrics, logger)
	scheduler := cron.New()
	if err := audit.Schedule(scheduler, cfg.Fleet); err != nil {
		logger.Fatal("failed to schedule consistency audit", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Vehicles: handlers.NewVehiclesHandler(vehicleService, assignmentService, maintenanceService),
		Drivers:  handlers.NewDriversHandler(driverService, assignmentService),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
