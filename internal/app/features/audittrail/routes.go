// internal/app/features/audittrail/routes.go
package audittrail

import (
	"github.com/dalemusser/congregationhub/internal/app/system/auth"
	"github.com/dalemusser/congregationhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the audit trail. Admins only.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)
	r.Use(auth.RequireRole(authz.RoleAdmin))
	r.Get("/", h.ServeList)
	return r
}
