package main

import (
	"github.com/clinscribe/backend/internal/config"
	"github.com/clinscribe/backend/internal/handlers"
	"github.com/clinscribe/backend/internal/models"
	"github.com/clinscribe/backend/internal/services"
	"github.com/clinscribe/backend/internal/utils"
	"github.com/clinscribe/backend/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg             *config.Config
	cacheService    *services.ResponseCacheService
	analytics       *services.AnalyticsService
	retention       *services.RetentionService
	ledger          *services.UsageLedgerService
	trainingService *services.TrainingDataService
	scheduler       *services.SchedulerService
	taskQueue       services.TaskQueue
	worker          *services.Worker
	authHandler     *handlers.AuthHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	db := models.GetDB()

	trainingService := services.NewTrainingDataService(db)
	analytics := services.NewAnalyticsService(db)
	retention := services.NewRetentionService(db, &cfg.Cache)
	notifier := services.NewNotifier(&cfg.Notifier)
	ledger := services.NewUsageLedgerService(db, notifier)

	// Task queue feeds cache writes into the training-data store; Redis
	// when available, in-process otherwise.
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(trainingService.ProcessCaptureTask)
	}

	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(trainingService.ProcessCaptureTask)
			worker.Start()
		}
	}

	cacheService := services.NewResponseCacheService(db, analytics, taskQueue, &cfg.Cache)

	scheduler := services.NewSchedulerService(db, retention, ledger)
	scheduler.Start()

	authHandler := handlers.NewAuthHandler(db, cfg)
	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		cfg:             cfg,
		cacheService:    cacheService,
		analytics:       analytics,
		retention:       retention,
		ledger:          ledger,
		trainingService: trainingService,
		scheduler:       scheduler,
		taskQueue:       taskQueue,
		worker:          worker,
		authHandler:     authHandler,
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.scheduler.Stop()
	logger.Info().Msg("Scheduler stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
}
