package policy

import (
	"context"
	"encoding/json"
)

// RepositoryPort defines the persistence operations the service and command
// handler need.
type RepositoryPort interface {
	Advance(ctx context.Context, key string, value json.RawMessage, description string, createdBy int64) (prev *Policy, next Policy, err error)
	Active(ctx context.Context, key string) (Policy, error)
	ActiveSet(ctx context.Context) ([]Policy, error)
	History(ctx context.Context, key string) ([]Policy, error)
}

// Service exposes the read side of the policy store. Writes go through the
// command bus handler only.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Active returns the active policy for a key.
func (s *Service) Active(ctx context.Context, key string) (Policy, error) {
	return s.repo.Active(ctx, key)
}

// ActiveSet returns all active policies.
func (s *Service) ActiveSet(ctx context.Context) ([]Policy, error) {
	return s.repo.ActiveSet(ctx)
}

// History returns every stored version for a key, newest first.
func (s *Service) History(ctx context.Context, key string) ([]Policy, error) {
	return s.repo.History(ctx, key)
}
