package main

import (
	"log"

	"inventory-engine/internal/infrastructure/queue"
	"inventory-engine/pkg/container"
)

// asynqScheduler wraps queue.Scheduler with startup logging
type asynqScheduler struct {
	*queue.Scheduler
}

// setupScheduler registers the cron jobs and starts the scheduler
func setupScheduler(cfg *Config, c *container.Container) *asynqScheduler {
	scheduler := queue.NewScheduler(cfg.RedisOpt, c.Config.Jobs, cfg.SlottingPolicy)

	if err := scheduler.RegisterJobs(); err != nil {
		log.Fatalf("[Scheduler] Failed to register: %v", err)
	}

	go func() {
		log.Println("[Scheduler] Starting...")
		if err := scheduler.Start(); err != nil {
			log.Fatalf("[Scheduler] Failed: %v", err)
		}
	}()

	return &asynqScheduler{Scheduler: scheduler}
}

// Shutdown gracefully shuts down the scheduler
func (s *asynqScheduler) Shutdown() {
	log.Println("[Scheduler] Shutting down...")
	s.Scheduler.Shutdown()
	log.Println("[Scheduler] ✓ Stopped")
}
