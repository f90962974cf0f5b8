// internal/app/features/groups/routes.go
package groups

import (
	"github.com/dalemusser/congregationhub/internal/app/system/auth"
	"github.com/dalemusser/congregationhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Everything under /groups requires authentication
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Get("/validate", h.ServeValidate)

		pr.Group(func(mr chi.Router) {
			mr.Use(auth.RequireRole(authz.ManageRoles...))
			mr.Post("/", h.HandleCreate)
			mr.Delete("/{id}", h.HandleDelete)
		})
	})

	return r
}
