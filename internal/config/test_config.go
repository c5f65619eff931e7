package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadTestConfig loads database and Redis settings for integration tests from TEST_* variables.
// When the TEST_DB_* group is incomplete the returned Config has an empty Database section,
// which integration tests treat as "skip".
func LoadTestConfig() (*Config, error) {
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()

	cfg := &Config{}

	db, err := loadDatabase("TEST_DB_")
	if err == nil {
		cfg.Database = db
	}

	cfg.Redis.Host = stringEnv("TEST_REDIS_HOST", "localhost")
	if cfg.Redis.Port, err = intEnv("TEST_REDIS_PORT", 6379); err != nil {
		return nil, err
	}
	cfg.Redis.Password = os.Getenv("TEST_REDIS_PASSWORD")
	if cfg.Redis.DB, err = intEnv("TEST_REDIS_DB", 15); err != nil {
		return nil, err
	}

	return cfg, nil
}
