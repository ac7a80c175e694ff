package main

import (
	"log"
	"os"

	"github.com/hibiken/asynq"

	"inventory-engine/pkg/container"
)

// Config holds the worker-only settings; everything else comes from the
// container.
type Config struct {
	RedisOpt    asynq.RedisClientOpt
	Concurrency int
	HealthAddr  string
	// SlottingPolicy is forwarded to the nightly run; empty means the tuning default.
	SlottingPolicy string
}

func loadConfig(c *container.Container) *Config {
	cfg := &Config{
		RedisOpt:       c.RedisClientOpt(),
		Concurrency:    c.Config.Jobs.Concurrency,
		HealthAddr:     getEnv("WORKER_HEALTH_ADDR", ":9999"),
		SlottingPolicy: os.Getenv("JOB_SLOTTING_POLICY"),
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}

	log.Printf("[Config] Redis: %s, concurrency: %d, slotting cron: %q",
		cfg.RedisOpt.Addr, cfg.Concurrency, c.Config.Jobs.SlottingCron)

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
