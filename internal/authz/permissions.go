// Package authz owns the closed permission vocabulary, the role bundles and
// the resolver that computes effective permissions for an actor. Domain code
// reads from this package; nothing outside the command bus mutates grants.
package authz

// Permission is an atomic capability token. The vocabulary is closed: values
// are declared here and nowhere else.
type Permission string

const (
	PermStudentsRead  Permission = "students.read"
	PermStudentsWrite Permission = "students.write"

	PermStaffRead  Permission = "staff.read"
	PermStaffWrite Permission = "staff.write"

	PermAttendanceWrite  Permission = "attendance.write"
	PermAssessmentsWrite Permission = "assessments.write"

	PermPoliciesRead  Permission = "policies.read"
	PermPoliciesWrite Permission = "policies.write"

	PermAuditRead Permission = "audit.read"

	PermUsersAdmin Permission = "users.admin"
	PermRolesAdmin Permission = "roles.admin"
)

// AllPermissions lists the full vocabulary, primarily for seeding and for
// exhaustiveness checks in tests.
func AllPermissions() []Permission {
	return []Permission{
		PermStudentsRead,
		PermStudentsWrite,
		PermStaffRead,
		PermStaffWrite,
		PermAttendanceWrite,
		PermAssessmentsWrite,
		PermPoliciesRead,
		PermPoliciesWrite,
		PermAuditRead,
		PermUsersAdmin,
		PermRolesAdmin,
	}
}

// Role is a named permission bundle.
type Role string

const (
	RoleTeacher   Role = "teacher"
	RoleClerk     Role = "clerk"
	RolePrincipal Role = "principal"
	RoleAdmin     Role = "admin"
)

// AllRoles lists every role the system recognises.
func AllRoles() []Role {
	return []Role{RoleTeacher, RoleClerk, RolePrincipal, RoleAdmin}
}

// roleBundles maps each non-admin-class role to its static permission grant.
// Admin-class roles are deliberately absent: they bypass permission checks
// entirely (see Actor.Can), so their bundles never need maintenance when the
// vocabulary grows.
var roleBundles = map[Role][]Permission{
	RoleTeacher: {
		PermStudentsRead,
		PermAttendanceWrite,
		PermAssessmentsWrite,
	},
	RoleClerk: {
		PermStudentsRead,
		PermStudentsWrite,
		PermStaffRead,
		PermAttendanceWrite,
		PermPoliciesRead,
	},
}

// IsAdminClass reports whether the role bypasses permission checking.
func IsAdminClass(role Role) bool {
	return role == RolePrincipal || role == RoleAdmin
}

// BundlePermissions returns the static grant for a role. Unknown or
// admin-class roles yield nothing.
func BundlePermissions(role Role) []Permission {
	perms := roleBundles[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// EffectivePermissions unions the static bundles of the given roles.
// Duplicates collapse and unknown roles contribute nothing; this is a pure
// predicate helper, not a validator.
func EffectivePermissions(roles []Role) map[Permission]struct{} {
	set := make(map[Permission]struct{})
	for _, role := range roles {
		for _, perm := range roleBundles[role] {
			set[perm] = struct{}{}
		}
	}
	return set
}
