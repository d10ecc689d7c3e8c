package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-os/campus-os/internal/authz"
)

func TestRegistryCoversEveryType(t *testing.T) {
	for _, typ := range AllTypes() {
		perm, err := RequiredPermission(typ)
		require.NoError(t, err, "command type %s has no permission entry", typ)
		assert.NotEmpty(t, perm)
	}
}

func TestRequiredPermissionFailsClosedForUnknownType(t *testing.T) {
	_, err := RequiredPermission(Type("grades.tamper"))
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestRequiredPermissionMapping(t *testing.T) {
	cases := map[Type]authz.Permission{
		TypeStudentCreate:    authz.PermStudentsWrite,
		TypePolicyUpdate:     authz.PermPoliciesWrite,
		TypeUserRoleAssign:   authz.PermUsersAdmin,
		TypeUserRoleRemove:   authz.PermUsersAdmin,
		TypeAttendanceRecord: authz.PermAttendanceWrite,
	}
	for typ, want := range cases {
		perm, err := RequiredPermission(typ)
		require.NoError(t, err)
		assert.Equal(t, want, perm, "command type %s", typ)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	noop := HandlerFunc(func(ctx context.Context, cmd Command) (Outcome, error) {
		return Outcome{}, nil
	})
	reg.Register(TypeStudentCreate, noop)

	assert.Panics(t, func() { reg.Register(TypeStudentCreate, noop) })
	assert.Panics(t, func() { reg.Register(TypeStudentUpdate, nil) })
}

func TestRegistryTypesSorted(t *testing.T) {
	reg := NewRegistry()
	noop := HandlerFunc(func(ctx context.Context, cmd Command) (Outcome, error) {
		return Outcome{}, nil
	})
	reg.Register(TypeUserRoleAssign, noop)
	reg.Register(TypeAttendanceRecord, noop)

	assert.Equal(t, []Type{TypeAttendanceRecord, TypeUserRoleAssign}, reg.Types())
}

func TestEntityTypeDerivation(t *testing.T) {
	assert.Equal(t, "student", TypeStudentCreate.EntityType())
	assert.Equal(t, "user", TypeUserRoleAssign.EntityType())
	assert.Equal(t, "policy", TypePolicyUpdate.EntityType())
}
