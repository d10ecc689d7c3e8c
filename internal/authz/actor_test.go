package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectivePermissionsUnionsBundles(t *testing.T) {
	perms := EffectivePermissions([]Role{RoleTeacher, RoleClerk})

	assert.Contains(t, perms, PermAssessmentsWrite, "teacher bundle")
	assert.Contains(t, perms, PermStudentsWrite, "clerk bundle")
	assert.Contains(t, perms, PermStudentsRead, "shared by both, collapses")
	assert.NotContains(t, perms, PermUsersAdmin)
}

func TestEffectivePermissionsIgnoresUnknownRoles(t *testing.T) {
	perms := EffectivePermissions([]Role{"janitor", RoleTeacher})
	assert.Equal(t, EffectivePermissions([]Role{RoleTeacher}), perms)
}

func TestAdminBypassesEveryPermission(t *testing.T) {
	for _, role := range []Role{RolePrincipal, RoleAdmin} {
		actor := NewActor(1, []Role{role})
		require.True(t, actor.IsAdmin(), "role %s must be admin-class", role)
		for _, perm := range AllPermissions() {
			assert.True(t, actor.Can(perm), "admin-class %s denied %s", role, perm)
		}
		// A token outside the vocabulary still passes: the bypass is a
		// short-circuit, not a materialised bundle.
		assert.True(t, actor.Can(Permission("reports.nuclear")))
	}
}

func TestNonAdminIsSetMembership(t *testing.T) {
	actor := NewActor(2, []Role{RoleClerk})

	assert.True(t, actor.Can(PermStudentsWrite))
	assert.False(t, actor.Can(PermPoliciesWrite))
	assert.False(t, actor.Can(PermUsersAdmin))
	assert.False(t, actor.IsAdmin())
}

func TestNewActorLayersPersistedGrants(t *testing.T) {
	actor := NewActor(3, []Role{RoleTeacher}, PermPoliciesRead)

	assert.True(t, actor.Can(PermPoliciesRead))
	assert.False(t, actor.Can(PermPoliciesWrite))
}

func TestActorRoleSnapshotIsCopied(t *testing.T) {
	roles := []Role{RoleClerk}
	actor := NewActor(4, roles)
	roles[0] = RoleAdmin

	assert.Equal(t, []Role{RoleClerk}, actor.Roles)
	assert.False(t, actor.IsAdmin())
}

func TestHasRole(t *testing.T) {
	actor := NewActor(5, []Role{RoleTeacher, RoleClerk})

	assert.True(t, actor.HasRole(RoleTeacher))
	assert.False(t, actor.HasRole(RoleAdmin))
}
