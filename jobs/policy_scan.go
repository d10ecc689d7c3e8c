package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/campus-os/campus-os/internal/jobs"
)

const defaultMaxConflictKeys = 50

// PolicyIntegrityJob scans the policy store for keys violating the
// one-active-row-per-key invariant. The store's transactional update makes a
// violation impossible through the application; this catches drift from manual
// database surgery or restores.
type PolicyIntegrityJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewPolicyIntegrityJob initialises the policy scan handler.
func NewPolicyIntegrityJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *PolicyIntegrityJob {
	return &PolicyIntegrityJob{
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the scan.
func (j *PolicyIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("policy scan: handler not configured")
	}
	var payload PolicyIntegrityScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.MaxKeys <= 0 {
		payload.MaxKeys = defaultMaxConflictKeys
	}

	start := j.now()
	tracker := j.metrics().Track(TaskPolicyIntegrityScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	logger.Info("starting policy integrity scan")

	conflicts, err := j.scan(ctx, payload.MaxKeys)
	if err != nil {
		resultErr = err
		logger.Error("scan failed", slog.Any("error", err))
		return resultErr
	}

	for _, c := range conflicts {
		logger.Warn("policy key has multiple active versions",
			slog.String("policy_key", c.Key),
			slog.Int("active_rows", c.ActiveRows),
		)
	}
	j.metrics().AddPolicyConflicts(len(conflicts))

	logger.Info("completed policy integrity scan",
		slog.Int("conflicts", len(conflicts)),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

type policyConflict struct {
	Key        string
	ActiveRows int
}

func (j *PolicyIntegrityJob) scan(ctx context.Context, maxKeys int) ([]policyConflict, error) {
	if j.Pool == nil {
		return nil, errors.New("policy scan: pool not configured")
	}
	rows, err := j.Pool.Query(ctx, `
		SELECT policy_key, COUNT(*)
		FROM policies
		WHERE is_active
		GROUP BY policy_key
		HAVING COUNT(*) > 1
		ORDER BY policy_key
		LIMIT $1`, maxKeys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conflicts []policyConflict
	for rows.Next() {
		var c policyConflict
		if err := rows.Scan(&c.Key, &c.ActiveRows); err != nil {
			return nil, err
		}
		conflicts = append(conflicts, c)
	}
	return conflicts, rows.Err()
}

func (j *PolicyIntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskPolicyIntegrityScan))
	}
	return slog.Default().With(slog.String("job", TaskPolicyIntegrityScan))
}

func (j *PolicyIntegrityJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}

func (j *PolicyIntegrityJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
