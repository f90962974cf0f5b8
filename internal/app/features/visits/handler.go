// internal/app/features/visits/handler.go
package visits

import (
	"context"
	"encoding/json"
	"net/http"

	errorsfeature "github.com/dalemusser/congregationhub/internal/app/features/errors"
	visitsvc "github.com/dalemusser/congregationhub/internal/app/services/visits"
	"github.com/dalemusser/congregationhub/internal/app/system/authz"
	"github.com/dalemusser/congregationhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves visit schedules, visit reports and the monthly grid.
type Handler struct {
	Svc    *visitsvc.Service
	ErrLog *errorsfeature.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(svc *visitsvc.Service, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, ErrLog: errLog, Log: logger}
}

type scheduleRequest struct {
	GroupID string `json:"group_id"`
	Month   string `json:"month"`
	Date    string `json:"date"`
}

type scheduleResponse struct {
	OK         bool   `json:"ok"`
	ScheduleID string `json:"schedule_id"`
	Status     string `json:"status"`
}

type reportResponse struct {
	ReportID string `json:"report_id"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// HandleUpsertSchedule handles POST /visits/schedules.
func (h *Handler) HandleUpsertSchedule(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.Actor(r)

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.BadRequest(w, "request body must be valid JSON")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	v, err := h.Svc.UpsertSchedule(ctx, actor, req.GroupID, req.Month, req.Date)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusOK, scheduleResponse{OK: true, ScheduleID: v.ID.Hex(), Status: string(v.Status)})
}

// HandleDeleteSchedule handles DELETE /visits/schedules/{id}.
func (h *Handler) HandleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.Actor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Svc.DeleteSchedule(ctx, actor, chi.URLParam(r, "id")); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusOK, okResponse{OK: true})
}

// HandleSubmitReport handles POST /visits/reports.
func (h *Handler) HandleSubmitReport(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.Actor(r)

	var in visitsvc.ReportInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.ErrLog.BadRequest(w, "request body must be valid JSON")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	rep, err := h.Svc.SubmitReport(ctx, actor, in)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusCreated, reportResponse{ReportID: rep.ID.Hex()})
}

// HandleDeleteReport handles DELETE /visits/reports/{id}.
func (h *Handler) HandleDeleteReport(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.Actor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	if err := h.Svc.DeleteReport(ctx, actor, chi.URLParam(r, "id")); err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusOK, okResponse{OK: true})
}

// ServeReports handles GET /visits/reports?group_id=&month=.
func (h *Handler) ServeReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := h.Svc.ListReports(ctx, q.Get("group_id"), q.Get("month"))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusOK, out)
}

// ServeGrid handles GET /visits/grid?month=.
func (h *Handler) ServeGrid(w http.ResponseWriter, r *http.Request) {
	actor, _ := authz.Actor(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	grid, err := h.Svc.ListScheduleGrid(ctx, actor, r.URL.Query().Get("month"))
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusOK, grid)
}
