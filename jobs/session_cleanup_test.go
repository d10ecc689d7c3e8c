package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCleaner struct {
	removed int64
	err     error
	gotNow  time.Time
}

func (s *stubCleaner) CleanupExpired(_ context.Context, now time.Time) (int64, error) {
	s.gotNow = now
	return s.removed, s.err
}

func TestSessionCleanupUsesClock(t *testing.T) {
	cleaner := &stubCleaner{removed: 3}
	job := NewSessionCleanupJob(cleaner, nil, nil)
	fixed := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	job.clock = func() time.Time { return fixed }

	task, err := NewSessionCleanupTask()
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, fixed, cleaner.gotNow)
}

func TestSessionCleanupPropagatesError(t *testing.T) {
	job := NewSessionCleanupJob(&stubCleaner{err: errors.New("down")}, nil, nil)
	task, err := NewSessionCleanupTask()
	require.NoError(t, err)
	assert.Error(t, job.Handle(context.Background(), task))
}

func TestSessionCleanupUnconfigured(t *testing.T) {
	var job *SessionCleanupJob
	task, err := NewSessionCleanupTask()
	require.NoError(t, err)
	assert.Error(t, job.Handle(context.Background(), task))
}
