// Package config provides configuration for the application
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Database         DatabaseConfig
	Redis            RedisConfig
	Server           ServerConfig
	Logging          LoggingConfig
	CORS             CORSConfig
	JWT              JWTConfig
	SMTP             SMTPConfig
	Feedback         FeedbackConfig
	Speech           SpeechConfig
	Media            MediaConfig
	Progress         ProgressConfig
	Scheduler        SchedulerConfig
	APIKey           string
	PasswordResetURL string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port of the Redis server
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port int
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	AllowedOrigins []string
}

// JWTConfig holds JWT token configuration
type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// SMTPConfig holds SMTP server configuration
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// FeedbackConfig holds settings of the hosted model used for quiz feedback
type FeedbackConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// SpeechConfig holds text-to-speech settings.
// An empty LanguageCode disables audio generation.
type SpeechConfig struct {
	LanguageCode string
	VoiceName    string
}

// MediaConfig holds local media storage settings
type MediaConfig struct {
	BasePath string
	BaseURL  string
}

// ProgressConfig holds progress ledger settings
type ProgressConfig struct {
	ScoringPolicy string
}

// SchedulerConfig holds cron specs of periodic jobs
type SchedulerConfig struct {
	StreakResetSpec        string
	LeaderboardRebuildSpec string
	TokenCleanupSpec       string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// .env is optional, real environment wins
	_ = godotenv.Load()

	cfg := &Config{}
	var err error

	if cfg.Database, err = loadDatabase("DB_"); err != nil {
		return nil, err
	}

	if cfg.Server.Port, err = intEnv("SERVER_PORT", 8080); err != nil {
		return nil, err
	}
	cfg.Logging.Level = stringEnv("LOG_LEVEL", "info")
	cfg.CORS.AllowedOrigins = parseOrigins(os.Getenv("CORS_ALLOWED_ORIGINS"))

	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.JWT.AccessTokenExpiry, err = durationEnv("JWT_ACCESS_TOKEN_EXPIRY", time.Hour); err != nil {
		return nil, err
	}
	if cfg.JWT.RefreshTokenExpiry, err = durationEnv("JWT_REFRESH_TOKEN_EXPIRY", 7*24*time.Hour); err != nil {
		return nil, err
	}

	cfg.Redis.Host = stringEnv("REDIS_HOST", "localhost")
	if cfg.Redis.Port, err = intEnv("REDIS_PORT", 6379); err != nil {
		return nil, err
	}
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if cfg.Redis.DB, err = intEnv("REDIS_DB", 0); err != nil {
		return nil, err
	}

	cfg.SMTP.Host = stringEnv("SMTP_HOST", "localhost")
	if cfg.SMTP.Port, err = intEnv("SMTP_PORT", 587); err != nil {
		return nil, err
	}
	cfg.SMTP.Username = os.Getenv("SMTP_USERNAME")
	cfg.SMTP.Password = os.Getenv("SMTP_PASSWORD")
	cfg.SMTP.From = stringEnv("SMTP_FROM", "noreply@lingoroots.app")

	cfg.Feedback.APIKey = os.Getenv("GEMINI_API_KEY")
	cfg.Feedback.BaseURL = stringEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")
	cfg.Feedback.Model = stringEnv("GEMINI_MODEL", "gemini-2.0-flash")
	if cfg.Feedback.Timeout, err = durationEnv("GEMINI_TIMEOUT", 20*time.Second); err != nil {
		return nil, err
	}

	cfg.Speech.LanguageCode = os.Getenv("TTS_LANGUAGE_CODE")
	cfg.Speech.VoiceName = os.Getenv("TTS_VOICE_NAME")

	cfg.Media.BasePath = stringEnv("MEDIA_BASE_PATH", "./media")
	cfg.Media.BaseURL = stringEnv("MEDIA_BASE_URL", "/media")

	cfg.Progress.ScoringPolicy = stringEnv("QUIZ_SCORING_POLICY", "cumulative")

	cfg.Scheduler.StreakResetSpec = stringEnv("STREAK_RESET_CRON", "5 0 * * *")
	cfg.Scheduler.LeaderboardRebuildSpec = stringEnv("LEADERBOARD_REBUILD_CRON", "*/30 * * * *")
	cfg.Scheduler.TokenCleanupSpec = stringEnv("TOKEN_CLEANUP_CRON", "0 3 * * *")

	cfg.APIKey = os.Getenv("API_KEY")
	cfg.PasswordResetURL = stringEnv("PASSWORD_RESET_URL", "http://localhost:3000/reset-password")

	return cfg, nil
}

// DSN returns the database connection string
func (c *Config) DSN() string {
	return c.Database.DSN()
}

// DSN returns the MySQL connection string for these settings
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.DBName,
	)
}

func loadDatabase(prefix string) (DatabaseConfig, error) {
	var db DatabaseConfig
	var err error

	if db.Host, err = requiredEnv(prefix + "HOST"); err != nil {
		return db, err
	}
	portStr, err := requiredEnv(prefix + "PORT")
	if err != nil {
		return db, err
	}
	if db.Port, err = strconv.Atoi(portStr); err != nil {
		return db, fmt.Errorf("invalid %sPORT: %w", prefix, err)
	}
	if db.User, err = requiredEnv(prefix + "USER"); err != nil {
		return db, err
	}
	if db.Password, err = requiredEnv(prefix + "PASSWORD"); err != nil {
		return db, err
	}
	if db.DBName, err = requiredEnv(prefix + "NAME"); err != nil {
		return db, err
	}
	return db, nil
}

func requiredEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

func stringEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// parseOrigins splits a comma-separated origin list, defaulting to "*"
func parseOrigins(raw string) []string {
	origins := make([]string, 0)
	for _, origin := range strings.Split(raw, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
