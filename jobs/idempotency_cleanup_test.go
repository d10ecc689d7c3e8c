package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPurger struct {
	err          error
	gotOlderThan time.Duration
}

func (s *stubPurger) Cleanup(_ context.Context, olderThan time.Duration) error {
	s.gotOlderThan = olderThan
	return s.err
}

func TestIdempotencyCleanupDefaultRetention(t *testing.T) {
	purger := &stubPurger{}
	job := NewIdempotencyCleanupJob(purger, nil, nil)

	task, err := NewIdempotencyCleanupTask(IdempotencyCleanupPayload{})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 48*time.Hour, purger.gotOlderThan)
}

func TestIdempotencyCleanupCustomRetention(t *testing.T) {
	purger := &stubPurger{}
	job := NewIdempotencyCleanupJob(purger, nil, nil)

	task, err := NewIdempotencyCleanupTask(IdempotencyCleanupPayload{RetentionHours: 6})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 6*time.Hour, purger.gotOlderThan)
}

func TestIdempotencyCleanupBadPayloadSkipsRetry(t *testing.T) {
	job := NewIdempotencyCleanupJob(&stubPurger{}, nil, nil)
	task := asynq.NewTask(TaskIdempotencyCleanup, []byte("{not json"))
	assert.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)
}

func TestIdempotencyCleanupPropagatesError(t *testing.T) {
	job := NewIdempotencyCleanupJob(&stubPurger{err: errors.New("down")}, nil, nil)
	task, err := NewIdempotencyCleanupTask(IdempotencyCleanupPayload{})
	require.NoError(t, err)
	assert.Error(t, job.Handle(context.Background(), task))
}
