package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/campus-os/campus-os/internal/jobs"
)

// SessionCleaner removes expired session records. Satisfied by *auth.Service.
type SessionCleaner interface {
	CleanupExpired(ctx context.Context, now time.Time) (int64, error)
}

// SessionCleanupJob purges login session records past their expiry. Redis
// entries expire on their own; this keeps the postgres audit copy bounded.
type SessionCleanupJob struct {
	Cleaner SessionCleaner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewSessionCleanupJob initialises the cleanup handler.
func NewSessionCleanupJob(cleaner SessionCleaner, logger *slog.Logger, metrics *jobmetrics.Metrics) *SessionCleanupJob {
	return &SessionCleanupJob{
		Cleaner: cleaner,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the cleanup.
func (j *SessionCleanupJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Cleaner == nil {
		return errors.New("session cleanup: handler not configured")
	}

	tracker := j.metrics().Track(TaskSessionCleanup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	removed, err := j.Cleaner.CleanupExpired(ctx, j.now())
	if err != nil {
		resultErr = err
		logger.Error("cleanup failed", slog.Any("error", err))
		return resultErr
	}
	logger.Info("completed session cleanup", slog.Int64("removed", removed))
	return resultErr
}

func (j *SessionCleanupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSessionCleanup))
	}
	return slog.Default().With(slog.String("job", TaskSessionCleanup))
}

func (j *SessionCleanupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}

func (j *SessionCleanupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
