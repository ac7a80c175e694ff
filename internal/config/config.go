package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultJWTSecret = "change-me-in-production"

// Config is populated from environment variables. Tuning for the planners
// lives in a separate TOML file (see LoadTuning).
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Engine   EngineConfig
	Jobs     JobConfig
	Archive  ArchiveConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

// EngineConfig bounds every unit of work.
type EngineConfig struct {
	TxMaxAttempts    int
	TxBaseDelay      time.Duration
	TxMaxDelay       time.Duration
	OperationTimeout time.Duration
	TuningFile       string
}

// ArchiveConfig locates the object store that keeps operator exports.
type ArchiveConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Prefix    string
}

// JobConfig drives the worker's scheduled jobs.
type JobConfig struct {
	SlottingCron  string
	SlottingSites []string
	Concurrency   int
}

func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Inventory Engine"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "inventory"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", defaultJWTSecret),
			Issuer: getEnv("JWT_ISSUER", "inventory-engine"),
		},
		Engine: EngineConfig{
			TxMaxAttempts:    getEnvInt("ENGINE_TX_MAX_ATTEMPTS", 5),
			TxBaseDelay:      getEnvDuration("ENGINE_TX_BASE_DELAY", 20*time.Millisecond),
			TxMaxDelay:       getEnvDuration("ENGINE_TX_MAX_DELAY", time.Second),
			OperationTimeout: getEnvDuration("ENGINE_OPERATION_TIMEOUT", 10*time.Second),
			TuningFile:       getEnv("ENGINE_TUNING_FILE", "config/tuning.toml"),
		},
		Jobs: JobConfig{
			SlottingCron:  getEnv("JOB_SLOTTING_CRON", "0 3 * * *"),
			SlottingSites: getEnvList("JOB_SLOTTING_SITES"),
			Concurrency:   getEnvInt("WORKER_CONCURRENCY", 10),
		},
		Archive: ArchiveConfig{
			Endpoint:  getEnv("ARCHIVE_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("ARCHIVE_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("ARCHIVE_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("ARCHIVE_BUCKET", "inventory-exports"),
			UseSSL:    getEnv("ARCHIVE_USE_SSL", "false") == "true",
			Prefix:    getEnv("ARCHIVE_PREFIX", "exports"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Engine.TxMaxAttempts < 1 {
		return fmt.Errorf("ENGINE_TX_MAX_ATTEMPTS must be at least 1")
	}
	if c.Engine.TxBaseDelay <= 0 || c.Engine.TxMaxDelay < c.Engine.TxBaseDelay {
		return fmt.Errorf("ENGINE_TX_MAX_DELAY must be >= ENGINE_TX_BASE_DELAY > 0")
	}
	if c.Engine.OperationTimeout <= 0 {
		return fmt.Errorf("ENGINE_OPERATION_TIMEOUT must be positive")
	}

	if c.App.Environment == "production" {
		if c.JWT.Secret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
