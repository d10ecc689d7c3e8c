package audit

import (
	"context"
	"fmt"
)

// maxQueryLimit caps how many events a single query may return.
const maxQueryLimit = 100

// RepositoryPort defines the query access the service needs.
type RepositoryPort interface {
	List(ctx context.Context, f Filters) ([]Row, error)
}

// Service coordinates audit trail queries. There is deliberately no write
// path here: only the command bus records events, via Recorder.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns the most recent events matching the filters, newest first,
// capped at 100 rows.
func (s *Service) List(ctx context.Context, f Filters) ([]Row, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("audit: repository not configured")
	}
	if f.Limit <= 0 || f.Limit > maxQueryLimit {
		f.Limit = maxQueryLimit
	}
	return s.repo.List(ctx, f)
}
