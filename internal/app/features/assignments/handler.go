// internal/app/features/assignments/handler.go
package assignments

import (
	"context"
	"encoding/json"
	"net/http"

	errorsfeature "github.com/dalemusser/congregationhub/internal/app/features/errors"
	"github.com/dalemusser/congregationhub/internal/app/services/groupassign"
	"github.com/dalemusser/congregationhub/internal/app/system/authz"
	"github.com/dalemusser/congregationhub/internal/app/system/timeouts"
	"github.com/dalemusser/congregationhub/internal/domain/distribution"
	"github.com/dalemusser/congregationhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves the member and territory assignment endpoints. The
// roster kind comes from the {kind} path segment.
type Handler struct {
	Svc    *groupassign.Service
	ErrLog *errorsfeature.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(svc *groupassign.Service, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, ErrLog: errLog, Log: logger}
}

type assignRequest struct {
	EntityIDs []string `json:"entity_ids"`
	GroupID   string   `json:"group_id"`
}

type distributeRequest struct {
	Strategy string `json:"strategy"`
}

type swapRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

type countResponse struct {
	Count int `json:"count"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// prepare resolves the actor and roster kind and decodes the JSON body
// into dst. It writes the error response itself and returns ok=false on
// failure.
func (h *Handler) prepare(w http.ResponseWriter, r *http.Request, dst any) (models.Actor, distribution.Kind, bool) {
	actor, ok := authz.Actor(r)
	if !ok {
		errorsfeature.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthenticated", "message": "sign in required"})
		return models.Actor{}, "", false
	}
	kind, err := distribution.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return models.Actor{}, "", false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.ErrLog.BadRequest(w, "request body must be valid JSON")
		return models.Actor{}, "", false
	}
	return actor, kind, true
}

// HandleAssign handles POST /assignments/{kind}/assign.
func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	actor, kind, ok := h.prepare(w, r, &req)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	n, err := h.Svc.AssignEntities(ctx, actor, kind, req.EntityIDs, req.GroupID)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusOK, countResponse{Count: n})
}

// HandleDistribute handles POST /assignments/{kind}/distribute.
//
// A timeout here can leave a partial redistribution behind; each entity
// write is idempotent, so rerunning the same strategy converges.
func (h *Handler) HandleDistribute(w http.ResponseWriter, r *http.Request) {
	var req distributeRequest
	actor, kind, ok := h.prepare(w, r, &req)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "distribute "+string(kind)+"s")
	defer cancel()

	n, err := h.Svc.Distribute(ctx, actor, kind, req.Strategy)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusOK, countResponse{Count: n})
}

// HandleRemove handles POST /assignments/{kind}/remove.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	actor, kind, ok := h.prepare(w, r, &req)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	n, err := h.Svc.RemoveFromBucket(ctx, actor, kind, req.EntityIDs)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusOK, countResponse{Count: n})
}

// HandleSwap handles POST /assignments/{kind}/swap.
func (h *Handler) HandleSwap(w http.ResponseWriter, r *http.Request) {
	var req swapRequest
	actor, kind, ok := h.prepare(w, r, &req)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Svc.SwapEntities(ctx, actor, kind, req.A, req.B); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusOK, okResponse{OK: true})
}
