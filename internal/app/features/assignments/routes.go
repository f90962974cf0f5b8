// internal/app/features/assignments/routes.go
package assignments

import (
	"github.com/dalemusser/congregationhub/internal/app/system/auth"
	"github.com/dalemusser/congregationhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /assignments. Only group managers may reshape
// groups.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		pr.Use(auth.RequireRole(authz.ManageRoles...))

		pr.Post("/{kind}/assign", h.HandleAssign)
		pr.Post("/{kind}/distribute", h.HandleDistribute)
		pr.Post("/{kind}/remove", h.HandleRemove)
		pr.Post("/{kind}/swap", h.HandleSwap)
	})
	return r
}
