package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/lingoroots/backend/internal/config"
	"github.com/lingoroots/backend/internal/logger"
	"github.com/lingoroots/backend/internal/tasks"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting LingoRoots Scheduler")

	// Create Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	scheduler := tasks.NewScheduler(tasks.NewEnqueuer(asynqClient), logger.Logger)

	jobs := []struct {
		spec     string
		typename string
	}{
		{cfg.Scheduler.StreakResetSpec, tasks.TypeStreakReset},
		{cfg.Scheduler.LeaderboardRebuildSpec, tasks.TypeLeaderboardRebuild},
		{cfg.Scheduler.TokenCleanupSpec, tasks.TypeTokenCleanup},
	}
	for _, job := range jobs {
		if err := scheduler.Add(job.spec, job.typename); err != nil {
			logger.Logger.Fatal("Failed to schedule job", zap.Error(err))
		}
	}

	// Start scheduler
	scheduler.Start()
	defer func() {
		logger.Logger.Info("Shutting down scheduler...")
		scheduler.Stop()
		logger.Logger.Info("Scheduler exited")
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}
