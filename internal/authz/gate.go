package authz

// Check describes a capability query as posed by a UI layer deciding whether
// to show an affordance. It is not a security boundary; the command bus is.
type Check struct {
	Permission  Permission
	Permissions []Permission
	Role        Role
	Roles       []Role
	// RequireAll switches the list fields from any-of to all-of semantics.
	RequireAll bool
}

// CanAccess evaluates the check against the actor. Admin-class actors always
// pass. An empty check passes trivially; every populated field must be
// satisfied.
func (a Actor) CanAccess(c Check) bool {
	if a.admin {
		return true
	}
	if c.Permission != "" && !a.Can(c.Permission) {
		return false
	}
	if c.Role != "" && !a.HasRole(c.Role) {
		return false
	}
	if len(c.Permissions) > 0 && !a.matchPermissions(c.Permissions, c.RequireAll) {
		return false
	}
	if len(c.Roles) > 0 && !a.matchRoles(c.Roles, c.RequireAll) {
		return false
	}
	return true
}

func (a Actor) matchPermissions(perms []Permission, requireAll bool) bool {
	for _, p := range perms {
		if a.Can(p) {
			if !requireAll {
				return true
			}
		} else if requireAll {
			return false
		}
	}
	return requireAll
}

func (a Actor) matchRoles(roles []Role, requireAll bool) bool {
	for _, r := range roles {
		if a.HasRole(r) {
			if !requireAll {
				return true
			}
		} else if requireAll {
			return false
		}
	}
	return requireAll
}
