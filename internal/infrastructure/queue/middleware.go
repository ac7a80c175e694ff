package queue

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"

	"inventory-engine/pkg/logger"
)

// LoggingMiddleware logs the outcome and duration of every task.
func LoggingMiddleware(next asynq.Handler) asynq.Handler {
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		start := time.Now()
		err := next.ProcessTask(ctx, t)

		fields := map[string]interface{}{
			"type":        t.Type(),
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if id, ok := asynq.GetTaskID(ctx); ok {
			fields["task_id"] = id
		}
		if retried, ok := asynq.GetRetryCount(ctx); ok {
			fields["retry"] = retried
		}

		switch {
		case err == nil:
			logger.Info("✅ Task processed", fields)
		case errors.Is(err, asynq.SkipRetry):
			logger.ErrorWithFields("⛔ Task dropped", err, fields)
		default:
			logger.ErrorWithFields("❌ Task failed", err, fields)
		}
		return err
	})
}
