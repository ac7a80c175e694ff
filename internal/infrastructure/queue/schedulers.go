package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"inventory-engine/internal/config"
	"inventory-engine/internal/shared"
	"inventory-engine/pkg/logger"
)

// Scheduler enqueues the periodic jobs of the worker.
type Scheduler struct {
	scheduler *asynq.Scheduler
	jobConfig config.JobConfig
	policy    string
}

// NewScheduler builds a UTC scheduler against redisOpt. policy is forwarded
// to every nightly slotting run; empty means the service default.
func NewScheduler(redisOpt asynq.RedisClientOpt, jobConfig config.JobConfig, policy string) *Scheduler {
	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{
		scheduler: scheduler,
		jobConfig: jobConfig,
		policy:    policy,
	}
}

// RegisterJobs registers every periodic job. A blank cron spec disables the
// job.
func (s *Scheduler) RegisterJobs() error {
	if err := s.registerSlottingAnalysisJob(); err != nil {
		return err
	}
	return nil
}

// ================================================
// JOB: Nightly slotting analysis (fan-out per site)
// ================================================
func (s *Scheduler) registerSlottingAnalysisJob() error {
	if s.jobConfig.SlottingCron == "" {
		logger.Info("SlottingAnalysis schedule disabled", map[string]interface{}{})
		return nil
	}

	payload, err := json.Marshal(shared.SlottingAnalysisPayload{Policy: s.policy})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeAnalyzeAllSites, payload)

	entryID, err := s.scheduler.Register(
		s.jobConfig.SlottingCron,
		task,
		asynq.Queue(shared.QueueLow),
		asynq.MaxRetry(1),
		asynq.Timeout(5*time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register SlottingAnalysis job", err)
		return err
	}

	logger.Info("✓ Registered SlottingAnalysis", map[string]interface{}{
		"cron":     s.jobConfig.SlottingCron,
		"entry_id": entryID,
		"sites":    len(s.jobConfig.SlottingSites),
	})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
