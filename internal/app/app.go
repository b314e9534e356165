// Package app assembles repositories and services from configuration. The
// HTTP server and the scheduler CLI share it.
package app

import (
	"alcyxob/workout-planner/internal/api"
	"alcyxob/workout-planner/internal/config"
	"alcyxob/workout-planner/internal/logger"
	"alcyxob/workout-planner/internal/repository"
	"alcyxob/workout-planner/internal/repository/memory"
	"alcyxob/workout-planner/internal/repository/mongo"
	"alcyxob/workout-planner/internal/service"
	"alcyxob/workout-planner/internal/storage"
	"context"
	"fmt"
	"time"
)

// Repositories groups the store implementations selected by database.driver.
type Repositories struct {
	Plans     repository.PlanRepository
	Instances repository.InstanceRepository
	Overrides repository.OverrideRepository
	Catalog   repository.CatalogRepository
}

// App holds the wired services and the cleanup for their resources.
type App struct {
	Services api.Services
	closers  []func(context.Context) error
}

// New connects the configured store and builds every service.
func New(ctx context.Context, cfg config.Config, log *logger.Logger) (*App, error) {
	a := &App{}

	repos, err := a.openRepositories(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	var fileStorage storage.FileStorage
	if cfg.S3.Enabled() {
		fileStorage, err = storage.NewS3Storage(cfg.S3, log)
		if err != nil {
			_ = a.Close(ctx)
			return nil, fmt.Errorf("init s3 storage: %w", err)
		}
	} else {
		log.Warn("s3.bucket_name not set, calendar export disabled")
	}

	a.Services = NewServices(repos, fileStorage, cfg.Schedule, service.SystemClock, log)
	return a, nil
}

// NewServices wires the service graph over the given repositories.
func NewServices(repos Repositories, fileStorage storage.FileStorage, sched config.ScheduleConfig, now service.Clock, log *logger.Logger) api.Services {
	conflicts := service.NewConflictDetector(repos.Plans)
	materializer := service.NewMaterializer(repos.Instances, repos.Overrides, now, log)
	tracker := service.NewGenerationTracker(repos.Instances, now)
	resolver := service.NewScheduleResolver(repos.Plans, repos.Instances, repos.Overrides, repos.Catalog, log)

	return api.Services{
		Plans:        service.NewPlanService(repos.Plans, conflicts, now, log),
		Conflicts:    conflicts,
		Activation:   service.NewActivationCoordinator(repos.Plans, materializer, sched.LookaheadDays, now, log),
		Tracker:      tracker,
		Materializer: materializer,
		Resolver:     resolver,
		Ordering:     service.NewOrderingManager(repos.Instances),
		Instances:    service.NewInstanceService(repos.Plans, repos.Instances, repos.Overrides, now, log),
		Exports:      service.NewExportService(resolver, fileStorage, now, log),
		Scheduler: service.NewGenerationScheduler(repos.Plans, tracker, materializer, service.SchedulerOptions{
			LookaheadDays: sched.LookaheadDays,
			Workers:       sched.Workers,
			Timeout:       sched.GenerationTimeout,
		}, now, log),
		LookaheadDays: sched.LookaheadDays,
	}
}

// NewMemoryRepositories returns empty in-process stores.
func NewMemoryRepositories() Repositories {
	return Repositories{
		Plans:     memory.NewPlanRepository(),
		Instances: memory.NewInstanceRepository(),
		Overrides: memory.NewOverrideRepository(),
		Catalog:   memory.NewCatalogRepository(),
	}
}

func (a *App) openRepositories(ctx context.Context, cfg config.Config, log *logger.Logger) (Repositories, error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn("using in-memory store, data is lost on exit")
		return NewMemoryRepositories(), nil
	}

	client, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		return Repositories{}, fmt.Errorf("connect mongo: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error {
		log.Info("disconnecting MongoDB")
		return mongo.DisconnectDB(client)
	})

	db := client.Database(cfg.Database.Name)
	indexCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	// Unique indexes back idempotent generation and the single active plan,
	// so they are created before any request is served.
	mongo.EnsureIndexes(indexCtx, db, log)

	log.Info("database connection established", "name", cfg.Database.Name)
	return Repositories{
		Plans:     mongo.NewMongoPlanRepository(db),
		Instances: mongo.NewMongoInstanceRepository(db),
		Overrides: mongo.NewMongoOverrideRepository(db),
		Catalog:   mongo.NewMongoCatalogRepository(db),
	}, nil
}

// Close releases the store connection.
func (a *App) Close(ctx context.Context) error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
