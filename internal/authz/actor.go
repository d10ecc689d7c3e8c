package authz

// Actor is the authenticated principal as seen by the command bus: identity,
// a snapshot of roles, and the effective permission set computed once at
// request time. The bus never re-resolves live state.
type Actor struct {
	UserID      int64
	Roles       []Role
	permissions map[Permission]struct{}
	admin       bool
}

// NewActor builds an actor from its roles plus any persisted per-role grants
// layered on top of the static bundles.
func NewActor(userID int64, roles []Role, granted ...Permission) Actor {
	perms := EffectivePermissions(roles)
	for _, p := range granted {
		perms[p] = struct{}{}
	}
	admin := false
	for _, role := range roles {
		if IsAdminClass(role) {
			admin = true
			break
		}
	}
	snapshot := make([]Role, len(roles))
	copy(snapshot, roles)
	return Actor{UserID: userID, Roles: snapshot, permissions: perms, admin: admin}
}

// IsAdmin reports whether any of the actor's roles is admin-class.
func (a Actor) IsAdmin() bool {
	return a.admin
}

// Can reports whether the actor holds the permission. Admin-class actors pass
// unconditionally; this is an explicit short-circuit, not a materialised
// grant, so the vocabulary can grow without touching any bundle.
func (a Actor) Can(perm Permission) bool {
	if a.admin {
		return true
	}
	_, ok := a.permissions[perm]
	return ok
}

// HasRole reports whether the role was assigned to the actor.
func (a Actor) HasRole(role Role) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Permissions returns the effective permission set as an unordered slice,
// mainly for the /api/me surface. Admin-class actors still only report their
// computed set; the bypass is a property of Can, not of the data.
func (a Actor) Permissions() []Permission {
	out := make([]Permission, 0, len(a.permissions))
	for p := range a.permissions {
		out = append(out, p)
	}
	return out
}

// RoleNames returns the role snapshot as plain strings for audit persistence.
func (a Actor) RoleNames() []string {
	names := make([]string, len(a.Roles))
	for i, r := range a.Roles {
		names[i] = string(r)
	}
	return names
}
