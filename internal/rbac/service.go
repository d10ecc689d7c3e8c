package rbac

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/campus-os/campus-os/internal/authz"
)

// RepositoryPort defines grant persistence as needed by the service and the
// role command handlers.
type RepositoryPort interface {
	InsertGrant(ctx context.Context, grant Grant) (Grant, error)
	GetGrant(ctx context.Context, userID int64, role authz.Role) (Grant, bool, error)
	DeleteGrant(ctx context.Context, userID int64, role authz.Role) error
	UserRoles(ctx context.Context, userID int64) ([]authz.Role, error)
	RolePermissions(ctx context.Context, roles []authz.Role) ([]authz.Permission, error)
}

// Service resolves principals and owns grant reads. Grant writes happen only
// through the user.role.assign/remove command handlers.
type Service struct {
	repo    RepositoryPort
	resolve singleflight.Group
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ResolveActor loads the user's roles and persisted grants and builds the
// effective actor. Concurrent resolutions for the same user are deduplicated;
// the result is computed fresh per request burst, never cached across them.
func (s *Service) ResolveActor(ctx context.Context, userID int64) (authz.Actor, error) {
	key := fmt.Sprintf("actor:%d", userID)
	v, err, _ := s.resolve.Do(key, func() (any, error) {
		roles, err := s.repo.UserRoles(ctx, userID)
		if err != nil {
			return nil, err
		}
		granted, err := s.repo.RolePermissions(ctx, roles)
		if err != nil {
			return nil, err
		}
		return authz.NewActor(userID, roles, granted...), nil
	})
	if err != nil {
		return authz.Actor{}, err
	}
	return v.(authz.Actor), nil
}

// UserRoles returns the roles granted to a user.
func (s *Service) UserRoles(ctx context.Context, userID int64) ([]authz.Role, error) {
	return s.repo.UserRoles(ctx, userID)
}
