package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuditRepo struct {
	rows     []Row
	lastCall Filters
}

func (s *stubAuditRepo) List(ctx context.Context, f Filters) ([]Row, error) {
	s.lastCall = f
	return s.rows, nil
}

func TestServiceAppliesDefaultLimit(t *testing.T) {
	repo := &stubAuditRepo{}
	svc := NewService(repo)

	_, err := svc.List(context.Background(), Filters{})
	require.NoError(t, err)
	assert.Equal(t, 100, repo.lastCall.Limit)
}

func TestServiceClampsOversizedLimit(t *testing.T) {
	repo := &stubAuditRepo{}
	svc := NewService(repo)

	_, err := svc.List(context.Background(), Filters{Limit: 5000})
	require.NoError(t, err)
	assert.Equal(t, 100, repo.lastCall.Limit)
}

func TestServicePassesFiltersThrough(t *testing.T) {
	repo := &stubAuditRepo{}
	svc := NewService(repo)

	_, err := svc.List(context.Background(), Filters{
		ActorUserID: 42,
		CommandType: "policy.update",
		EntityType:  "policy",
		Search:      "threshold",
		Limit:       25,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), repo.lastCall.ActorUserID)
	assert.Equal(t, "policy.update", repo.lastCall.CommandType)
	assert.Equal(t, "policy", repo.lastCall.EntityType)
	assert.Equal(t, "threshold", repo.lastCall.Search)
	assert.Equal(t, 25, repo.lastCall.Limit)
}
