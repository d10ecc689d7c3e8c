package policyhttp

import (
	"github.com/go-chi/chi/v5"

	"github.com/campus-os/campus-os/internal/authz"
	"github.com/campus-os/campus-os/internal/rbac"
)

// MountRoutes registers the policy read endpoints behind the policies.read
// guard.
func (h *Handler) MountRoutes(r chi.Router, guard rbac.Middleware) {
	if h == nil {
		return
	}
	r.Group(func(gr chi.Router) {
		gr.Use(guard.RequireAny(authz.PermPoliciesRead))
		gr.Get("/policies", h.handleActiveSet)
		gr.Get("/policies/{key}", h.handleActive)
		gr.Get("/policies/{key}/history", h.handleHistory)
	})
}
