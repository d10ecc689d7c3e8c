package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campus-os/campus-os/internal/authz"
)

// pgUniqueViolation is the SQLSTATE for unique constraint violations.
const pgUniqueViolation = "23505"

// Repository provides PostgreSQL backed persistence for grants.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertGrant stores a new role grant. A duplicate (user, role) pair maps to
// ErrRoleAlreadyAssigned via the unique constraint, not a generic failure.
func (r *Repository) InsertGrant(ctx context.Context, grant Grant) (Grant, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO user_roles (user_id, role, assigned_by, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING user_id, role, assigned_by, created_at`,
		grant.UserID, string(grant.Role), grant.AssignedBy)
	stored, err := scanGrant(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return Grant{}, ErrRoleAlreadyAssigned
		}
		return Grant{}, fmt.Errorf("rbac: insert grant: %w", err)
	}
	return stored, nil
}

// GetGrant fetches one grant, or pgx.ErrNoRows wrapped as not-found=false.
func (r *Repository) GetGrant(ctx context.Context, userID int64, role authz.Role) (Grant, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT user_id, role, assigned_by, created_at
		FROM user_roles
		WHERE user_id = $1 AND role = $2`, userID, string(role))
	grant, err := scanGrant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Grant{}, false, nil
		}
		return Grant{}, false, fmt.Errorf("rbac: get grant: %w", err)
	}
	return grant, true, nil
}

// DeleteGrant removes a grant if present. Deleting an absent grant is not an
// error.
func (r *Repository) DeleteGrant(ctx context.Context, userID int64, role authz.Role) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role = $2`, userID, string(role))
	if err != nil {
		return fmt.Errorf("rbac: delete grant: %w", err)
	}
	return nil
}

// UserRoles lists the roles granted to a user.
func (r *Repository) UserRoles(ctx context.Context, userID int64) ([]authz.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT role FROM user_roles WHERE user_id = $1 ORDER BY role`, userID)
	if err != nil {
		return nil, fmt.Errorf("rbac: query user roles: %w", err)
	}
	defer rows.Close()
	var roles []authz.Role
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("rbac: scan role: %w", err)
		}
		roles = append(roles, authz.Role(role))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

// RolePermissions lists the persisted permission grants for a set of roles.
func (r *Repository) RolePermissions(ctx context.Context, roles []authz.Role) ([]authz.Permission, error) {
	if len(roles) == 0 {
		return nil, nil
	}
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT permission
		FROM role_permissions
		WHERE role = ANY($1)
		ORDER BY permission`, names)
	if err != nil {
		return nil, fmt.Errorf("rbac: query role permissions: %w", err)
	}
	defer rows.Close()
	var perms []authz.Permission
	for rows.Next() {
		var perm string
		if err := rows.Scan(&perm); err != nil {
			return nil, fmt.Errorf("rbac: scan permission: %w", err)
		}
		perms = append(perms, authz.Permission(perm))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return perms, nil
}

func scanGrant(row pgx.Row) (Grant, error) {
	var (
		g    Grant
		role string
	)
	err := row.Scan(&g.UserID, &role, &g.AssignedBy, &g.CreatedAt)
	if err != nil {
		return Grant{}, err
	}
	g.Role = authz.Role(role)
	return g, nil
}
