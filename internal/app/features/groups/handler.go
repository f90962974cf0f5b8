// internal/app/features/groups/handler.go
package groups

import (
	"context"
	"encoding/json"
	"net/http"

	errorsfeature "github.com/dalemusser/congregationhub/internal/app/features/errors"
	"github.com/dalemusser/congregationhub/internal/app/services/groupassign"
	"github.com/dalemusser/congregationhub/internal/app/system/authz"
	"github.com/dalemusser/congregationhub/internal/app/system/timeouts"
	"github.com/dalemusser/congregationhub/internal/domain/distribution"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the groups feature.
type Handler struct {
	Svc    *groupassign.Service
	ErrLog *errorsfeature.ErrorLogger
	Log    *zap.Logger
}

// NewHandler constructs a new groups Handler. It is typically called
// from the bootstrap BuildHandler function.
func NewHandler(svc *groupassign.Service, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, ErrLog: errLog, Log: logger}
}

// ServeList handles GET /groups: every group with its roster counts.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := h.Svc.ListBucketsWithCounts(ctx)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusOK, out)
}

// ServeValidate handles GET /groups/validate?kind=member|territory.
// The kind defaults to member.
func (h *Handler) ServeValidate(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("kind")
	if name == "" {
		name = string(distribution.KindMember)
	}
	kind, err := distribution.ParseKind(name)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	warnings, err := h.Svc.ValidateBuckets(ctx, kind)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusOK, warnings)
}

type createRequest struct {
	Name string `json:"name"`
}

// HandleCreate handles POST /groups.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.Actor(r)

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.BadRequest(w, "request body must be valid JSON")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	g, err := h.Svc.CreateGroup(ctx, actor, req.Name)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusCreated, g)
}

// HandleDelete handles DELETE /groups/{id}. Members and territories of the
// group are left unassigned.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.Actor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Svc.DeleteGroup(ctx, actor, chi.URLParam(r, "id")); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
