package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/hibiken/asynq"
	"github.com/lingoroots/backend/internal/config"
	"github.com/lingoroots/backend/internal/ledger"
	"github.com/lingoroots/backend/internal/logger"
	"github.com/lingoroots/backend/internal/repositories"
	"github.com/lingoroots/backend/internal/services"
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

	logger.Logger.Info("Starting LingoRoots Worker")

	policy, err := ledger.ParseScoringPolicy(cfg.Progress.ScoringPolicy)
	if err != nil {
		logger.Logger.Fatal("Invalid quiz scoring policy", zap.Error(err))
	}

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Connect to Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, logger.Logger)
	userTokenRepo := repositories.NewUserTokenRepository(db)
	lessonRepo := repositories.NewLessonRepository(db)
	quizRepo := repositories.NewQuizRepository(db)
	languageRepo := repositories.NewLanguageRepository(db)
	progressRepo := repositories.NewProgressRepository(db, logger.Logger)
	achievementRepo := repositories.NewAchievementRepository(db)
	leaderboardCache := repositories.NewLeaderboardCache(rdb)

	// Initialize services
	progressService := services.NewProgressService(progressRepo, achievementRepo, userRepo, lessonRepo, quizRepo, languageRepo,
		leaderboardCache, tasks.NewEnqueuer(asynqClient), policy, logger.Logger)
	leaderboardService := services.NewLeaderboardService(leaderboardCache, userRepo, logger.Logger)

	sender := tasks.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	processor := tasks.NewProcessor(sender, progressService, leaderboardService, logger.Logger).
		WithTokenCleanup(userTokenRepo, cfg.JWT.RefreshTokenExpiry)

	// Create Asynq server
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Queues: tasks.Queues,
	})

	// Register task handlers
	mux := asynq.NewServeMux()
	processor.Register(mux)

	// Start worker
	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Logger.Fatal("Failed to start worker", zap.Error(err))
		}
	}()

	logger.Logger.Info("Worker started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down worker...")
	srv.Shutdown()
	logger.Logger.Info("Worker exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
