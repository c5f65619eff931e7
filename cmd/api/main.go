package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/hibiken/asynq"
	_ "github.com/lingoroots/backend/docs"
	"github.com/lingoroots/backend/internal/auth/middleware"
	"github.com/lingoroots/backend/internal/auth/service"
	"github.com/lingoroots/backend/internal/config"
	"github.com/lingoroots/backend/internal/feedback"
	"github.com/lingoroots/backend/internal/handlers"
	"github.com/lingoroots/backend/internal/ledger"
	"github.com/lingoroots/backend/internal/logger"
	"github.com/lingoroots/backend/internal/middlewares"
	"github.com/lingoroots/backend/internal/models"
	"github.com/lingoroots/backend/internal/repositories"
	"github.com/lingoroots/backend/internal/services"
	"github.com/lingoroots/backend/internal/speech"
	"github.com/lingoroots/backend/internal/storage"
	"github.com/lingoroots/backend/internal/tasks"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title LingoRoots API
// @version 1.0
// @description API of the LingoRoots language-learning app: courses, quizzes, progress and achievements

// @contact.name API Support
// @contact.email support@lingoroots.app

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
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

	logger.Logger.Info("Starting LingoRoots API")

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

	// Run migrations
	if err := runMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

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

	// Background jobs are enqueued through asynq
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()
	enqueuer := tasks.NewEnqueuer(asynqClient)

	// Initialize JWT token generator
	tokenGenerator := service.NewTokenGenerator(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, logger.Logger)
	userTokenRepo := repositories.NewUserTokenRepository(db)
	resetRepo := repositories.NewPasswordResetRepository(db)
	languageRepo := repositories.NewLanguageRepository(db)
	lessonRepo := repositories.NewLessonRepository(db)
	quizRepo := repositories.NewQuizRepository(db)
	progressRepo := repositories.NewProgressRepository(db, logger.Logger)
	achievementRepo := repositories.NewAchievementRepository(db)
	attemptStore := repositories.NewAttemptStore(rdb)
	leaderboardCache := repositories.NewLeaderboardCache(rdb)

	// Audio generation is optional
	var synthesizer services.SpeechSynthesizer
	if cfg.Speech.LanguageCode != "" {
		synth, err := speech.New(context.Background(), cfg.Speech.LanguageCode, cfg.Speech.VoiceName)
		if err != nil {
			logger.Logger.Fatal("Failed to create speech synthesizer", zap.Error(err))
		}
		defer synth.Close()
		synthesizer = synth
	} else {
		logger.Logger.Warn("TTS_LANGUAGE_CODE is not set, audio generation is disabled")
	}
	mediaStorage := storage.NewLocalStorage(cfg.Media.BasePath, cfg.Media.BaseURL)
	feedbackClient := feedback.NewClient(cfg.Feedback.BaseURL, cfg.Feedback.APIKey, cfg.Feedback.Model, cfg.Feedback.Timeout)

	// Initialize services
	authService := services.NewAuthService(userRepo, userTokenRepo, resetRepo, enqueuer, tokenGenerator, logger.Logger, cfg.PasswordResetURL)
	leaderboardService := services.NewLeaderboardService(leaderboardCache, userRepo, logger.Logger)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		n, err := leaderboardService.Rebuild(ctx)
		if err != nil {
			logger.Logger.Warn("Failed to rebuild leaderboard on startup", zap.Error(err))
			return
		}
		logger.Logger.Info("Leaderboard rebuilt", zap.Int("users", n))
	}()
	profileService := services.NewProfileService(userRepo, progressRepo, languageRepo, leaderboardCache, logger.Logger)
	languageService := services.NewLanguageService(languageRepo)
	lessonService := services.NewLessonService(lessonRepo, languageRepo)
	quizService := services.NewQuizService(quizRepo, lessonRepo, languageRepo)
	progressService := services.NewProgressService(progressRepo, achievementRepo, userRepo, lessonRepo, quizRepo, languageRepo, leaderboardCache, enqueuer, policy, logger.Logger)
	attemptService := services.NewAttemptService(attemptStore, quizRepo, languageRepo, progressService, logger.Logger)
	achievementService := services.NewAchievementService(achievementRepo)
	feedbackService := services.NewFeedbackService(feedbackClient, languageRepo, logger.Logger)
	audioService := services.NewAudioService(synthesizer, mediaStorage, lessonRepo, logger.Logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, logger.Logger, cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry)
	profileHandler := handlers.NewProfileHandler(profileService, progressService, logger.Logger)
	contentHandler := handlers.NewContentHandler(languageService, lessonService, quizService, logger.Logger)
	progressHandler := handlers.NewProgressHandler(progressService, logger.Logger)
	attemptHandler := handlers.NewAttemptHandler(attemptService, logger.Logger)
	achievementHandler := handlers.NewAchievementHandler(achievementService, leaderboardService, logger.Logger)
	learningAidsHandler := handlers.NewLearningAidsHandler(feedbackService, audioService, logger.Logger)
	maintenanceHandler := handlers.NewMaintenanceHandler(enqueuer, logger.Logger)

	// Initialize auth middleware
	authMiddleware := middleware.AuthMiddleware(tokenGenerator)
	editorMiddleware := middleware.RoleMiddleware(tokenGenerator, models.RoleContentCreator)
	adminMiddleware := middleware.RoleMiddleware(tokenGenerator, models.RoleAdmin)
	apiKeyMiddleware := middleware.APIKeyMiddleware(cfg.APIKey)
	feedbackLimiter := httprate.LimitByIP(10, time.Minute)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middlewares.RequestIDMiddleware)
	r.Use(middlewares.LoggerMiddleware(logger.Logger))
	r.Use(middlewares.RecoveryMiddleware(logger.Logger))
	r.Use(middlewares.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(middlewares.RequestSizeLimitMiddleware(10 * 1024 * 1024)) // 10MB

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	// Generated audio
	if strings.HasPrefix(cfg.Media.BaseURL, "/") {
		mediaPrefix := strings.TrimRight(cfg.Media.BaseURL, "/")
		r.Handle(mediaPrefix+"/*", http.StripPrefix(mediaPrefix, http.FileServer(http.Dir(cfg.Media.BasePath))))
	}

	// Scope router to /api/v1
	r.Route("/api/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r)
		profileHandler.RegisterRoutes(r, authMiddleware, adminMiddleware)
		contentHandler.RegisterRoutes(r, authMiddleware, editorMiddleware, adminMiddleware)
		progressHandler.RegisterRoutes(r, authMiddleware)
		attemptHandler.RegisterRoutes(r, authMiddleware)
		achievementHandler.RegisterRoutes(r, authMiddleware)
		learningAidsHandler.RegisterRoutes(r, authMiddleware, editorMiddleware, feedbackLimiter)
		maintenanceHandler.RegisterRoutes(r, apiKeyMiddleware)
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "lingoroots_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try the repository root if running from cmd/api
		if _, err := os.Stat("../../migrations"); err == nil {
			migrationPath = "file://../../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationPath,
		"mysql",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
