package main

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// withTaskLogger attaches a task-scoped logger to the handler context.
func withTaskLogger(base zerolog.Logger) asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
			fields := base.With().Str("task", t.Type())
			if id, ok := asynq.GetTaskID(ctx); ok {
				fields = fields.Str("task_id", id)
			}
			if retry, ok := asynq.GetRetryCount(ctx); ok {
				fields = fields.Int("retry", retry)
			}
			logger := fields.Logger()
			return next.ProcessTask(logger.WithContext(ctx), t)
		})
	}
}

func taskErrorHandler(logger zerolog.Logger) asynq.ErrorHandlerFunc {
	return func(ctx context.Context, t *asynq.Task, err error) {
		retry, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)
		logger.Error().Err(err).Str("task", t.Type()).Int("retry", retry).Int("max_retry", maxRetry).Msg("task failed")
	}
}

// taskLogger routes asynq's internal logs through zerolog.
type taskLogger struct {
	logger zerolog.Logger
}

func (l taskLogger) Debug(args ...any) { l.logger.Debug().Msg(fmt.Sprint(args...)) }
func (l taskLogger) Info(args ...any)  { l.logger.Info().Msg(fmt.Sprint(args...)) }
func (l taskLogger) Warn(args ...any)  { l.logger.Warn().Msg(fmt.Sprint(args...)) }
func (l taskLogger) Error(args ...any) { l.logger.Error().Msg(fmt.Sprint(args...)) }
func (l taskLogger) Fatal(args ...any) { l.logger.Fatal().Msg(fmt.Sprint(args...)) }
