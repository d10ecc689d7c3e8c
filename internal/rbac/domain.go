// Package rbac persists role grants and per-role permission grants, and
// resolves the acting principal for a request. Static role bundles live in
// internal/authz; this package layers the runtime-customisable grants on top.
package rbac

import (
	"errors"
	"time"

	"github.com/campus-os/campus-os/internal/authz"
)

// ErrRoleAlreadyAssigned indicates a duplicate (user, role) grant.
var ErrRoleAlreadyAssigned = errors.New("user already has this role")

// ErrUnknownRole indicates a role outside the closed vocabulary.
var ErrUnknownRole = errors.New("unknown role")

// Grant links a user to a role. The (UserID, Role) pair is unique.
type Grant struct {
	UserID     int64      `json:"user_id"`
	Role       authz.Role `json:"role"`
	AssignedBy int64      `json:"assigned_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at,omitempty"`
}

// PermissionGrant attaches an extra permission to a role at runtime, layered
// over the static bundle.
type PermissionGrant struct {
	Role       authz.Role
	Permission authz.Permission
	CreatedAt  time.Time
}

// knownRole validates a role against the closed vocabulary.
func knownRole(role authz.Role) bool {
	for _, r := range authz.AllRoles() {
		if r == role {
			return true
		}
	}
	return false
}
