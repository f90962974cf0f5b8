// internal/app/features/visits/routes.go
package visits

import (
	"github.com/dalemusser/congregationhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /visits. Ownership of individual schedules and
// reports is enforced by the service.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Post("/schedules", h.HandleUpsertSchedule)
		pr.Delete("/schedules/{id}", h.HandleDeleteSchedule)

		pr.Get("/reports", h.ServeReports)
		pr.Post("/reports", h.HandleSubmitReport)
		pr.Delete("/reports/{id}", h.HandleDeleteReport)

		pr.Get("/grid", h.ServeGrid)
	})
	return r
}
