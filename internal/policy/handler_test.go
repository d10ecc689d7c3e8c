package policy

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-os/campus-os/internal/command"
)

// memoryRepo reproduces the versioned store semantics in memory: at most one
// active row per key, versions strictly increasing.
type memoryRepo struct {
	rows       []Policy
	nextID     int64
	advanceErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1}
}

func (m *memoryRepo) Advance(ctx context.Context, key string, value json.RawMessage, description string, createdBy int64) (*Policy, Policy, error) {
	if m.advanceErr != nil {
		return nil, Policy{}, m.advanceErr
	}
	var prev *Policy
	version := 1
	for i := range m.rows {
		if m.rows[i].Key == key && m.rows[i].IsActive {
			snapshot := m.rows[i]
			prev = &snapshot
			version = snapshot.Version + 1
			m.rows[i].IsActive = false
		}
	}
	next := Policy{
		ID:          m.nextID,
		Key:         key,
		Value:       value,
		Description: description,
		Version:     version,
		IsActive:    true,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now().UTC(),
	}
	m.nextID++
	m.rows = append(m.rows, next)
	return prev, next, nil
}

func (m *memoryRepo) Active(ctx context.Context, key string) (Policy, error) {
	for _, row := range m.rows {
		if row.Key == key && row.IsActive {
			return row, nil
		}
	}
	return Policy{}, ErrNotFound
}

func (m *memoryRepo) ActiveSet(ctx context.Context) ([]Policy, error) {
	var active []Policy
	for _, row := range m.rows {
		if row.IsActive {
			active = append(active, row)
		}
	}
	return active, nil
}

func (m *memoryRepo) History(ctx context.Context, key string) ([]Policy, error) {
	var history []Policy
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].Key == key {
			history = append(history, m.rows[i])
		}
	}
	return history, nil
}

func updateCommand(t *testing.T, payload UpdatePayload) command.Command {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return command.Command{Type: command.TypePolicyUpdate, Payload: raw, ActorID: 11}
}

func TestUpdateHandlerFirstVersion(t *testing.T) {
	repo := newMemoryRepo()
	handler := NewUpdateHandler(repo)

	outcome, err := handler.Handle(context.Background(), updateCommand(t, UpdatePayload{
		Key:   "attendance.late_threshold_minutes",
		Value: json.RawMessage(`15`),
	}))
	require.NoError(t, err)

	created, ok := outcome.Data.(Policy)
	require.True(t, ok)
	assert.Equal(t, 1, created.Version)
	assert.True(t, created.IsActive)
	assert.Equal(t, int64(11), created.CreatedBy)
	assert.Nil(t, outcome.Before, "no prior active row")
	assert.Equal(t, created, outcome.After)
	require.NotNil(t, outcome.Entity)
	assert.Equal(t, "policy", outcome.Entity.Type)
	assert.Equal(t, "attendance.late_threshold_minutes", outcome.Entity.ID)
}

func TestUpdateHandlerAdvancesVersionAndDeactivatesPrior(t *testing.T) {
	repo := newMemoryRepo()
	handler := NewUpdateHandler(repo)
	key := "attendance.late_threshold_minutes"

	_, err := handler.Handle(context.Background(), updateCommand(t, UpdatePayload{Key: key, Value: json.RawMessage(`15`)}))
	require.NoError(t, err)

	outcome, err := handler.Handle(context.Background(), updateCommand(t, UpdatePayload{Key: key, Value: json.RawMessage(`20`)}))
	require.NoError(t, err)

	next := outcome.Data.(Policy)
	assert.Equal(t, 2, next.Version)
	assert.True(t, next.IsActive)
	assert.JSONEq(t, `20`, string(next.Value))

	before, ok := outcome.Before.(Policy)
	require.True(t, ok)
	assert.Equal(t, 1, before.Version)
	assert.JSONEq(t, `15`, string(before.Value))

	history, err := repo.History(context.Background(), key)
	require.NoError(t, err)
	require.Len(t, history, 2, "all versions retained")

	var activeCount int
	for _, row := range history {
		if row.IsActive {
			activeCount++
			assert.Equal(t, 2, row.Version)
		}
	}
	assert.Equal(t, 1, activeCount, "exactly one active row per key")
}

func TestUpdateHandlerVersionsAreStrictlyIncreasing(t *testing.T) {
	repo := newMemoryRepo()
	handler := NewUpdateHandler(repo)

	for want := 1; want <= 5; want++ {
		outcome, err := handler.Handle(context.Background(), updateCommand(t, UpdatePayload{
			Key:   "grading.scale",
			Value: json.RawMessage(`{"max":100}`),
		}))
		require.NoError(t, err)
		assert.Equal(t, want, outcome.Data.(Policy).Version)
	}
}

func TestUpdateHandlerRejectsMalformedPayload(t *testing.T) {
	handler := NewUpdateHandler(newMemoryRepo())

	_, err := handler.Handle(context.Background(), command.Command{
		Type:    command.TypePolicyUpdate,
		Payload: json.RawMessage(`{"policy_key": 42}`),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid payload")
}

func TestUpdateHandlerRequiresKeyAndValue(t *testing.T) {
	handler := NewUpdateHandler(newMemoryRepo())

	_, err := handler.Handle(context.Background(), updateCommand(t, UpdatePayload{Value: json.RawMessage(`1`)}))
	require.Error(t, err)

	_, err = handler.Handle(context.Background(), updateCommand(t, UpdatePayload{Key: "x"}))
	require.Error(t, err)
}

func TestUpdateHandlerPropagatesStorageError(t *testing.T) {
	repo := newMemoryRepo()
	repo.advanceErr = errors.New("storage unavailable")
	handler := NewUpdateHandler(repo)

	_, err := handler.Handle(context.Background(), updateCommand(t, UpdatePayload{
		Key:   "k",
		Value: json.RawMessage(`1`),
	}))
	assert.EqualError(t, err, "storage unavailable")
}
