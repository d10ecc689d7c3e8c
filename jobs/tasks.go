// Package jobs defines the background task vocabulary and the asynq worker
// that executes it.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPolicyIntegrityScan verifies the one-active-row-per-key invariant.
	TaskPolicyIntegrityScan = "policy:integrity_scan"
	// TaskSessionCleanup purges expired login session records.
	TaskSessionCleanup = "session:cleanup"
	// TaskIdempotencyCleanup purges idempotency keys past retention.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// PolicyIntegrityScanPayload tunes the policy scan.
type PolicyIntegrityScanPayload struct {
	// MaxKeys caps how many conflicting keys are logged per run. Zero means
	// the default of 50.
	MaxKeys int `json:"max_keys"`
}

// NewPolicyIntegrityScanTask constructs an asynq task for the policy scan.
func NewPolicyIntegrityScanTask(payload PolicyIntegrityScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPolicyIntegrityScan, data), nil
}

// IdempotencyCleanupPayload tunes the key purge.
type IdempotencyCleanupPayload struct {
	// RetentionHours is how long processed keys are kept. Zero means the
	// default of 48.
	RetentionHours int `json:"retention_hours"`
}

// NewIdempotencyCleanupTask constructs an asynq task for the key purge.
func NewIdempotencyCleanupTask(payload IdempotencyCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}

// SessionCleanupPayload is currently empty; the cutoff is always "now".
type SessionCleanupPayload struct{}

// NewSessionCleanupTask constructs an asynq task for session cleanup.
func NewSessionCleanupTask() (*asynq.Task, error) {
	data, err := json.Marshal(SessionCleanupPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionCleanup, data), nil
}
