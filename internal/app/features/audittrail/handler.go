// internal/app/features/audittrail/handler.go
package audittrail

import (
	"context"
	"net/http"
	"strconv"
	"time"

	errorsfeature "github.com/dalemusser/congregationhub/internal/app/features/errors"
	"github.com/dalemusser/congregationhub/internal/app/store/audit"
	"github.com/dalemusser/congregationhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const maxLimit = 500

// Reader queries recorded audit events. *audit.Store and the memory
// store's AuditSink satisfy it.
type Reader interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]audit.Event, error)
}

// Handler serves the audit trail to administrators.
type Handler struct {
	Events Reader
	ErrLog *errorsfeature.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(events Reader, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Events: events, ErrLog: errLog, Log: logger}
}

// ServeList handles GET /audit. Optional query parameters: category,
// event_type, actor_id, success (true|false), since and until (RFC 3339
// or YYYY-MM-DD), limit (1-500) and offset.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	filter, msg := parseFilter(r)
	if msg != "" {
		h.ErrLog.BadRequest(w, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.ErrLog.Write(w, r, err)
		return
	}
	errorsfeature.WriteJSON(w, http.StatusOK, events)
}

// parseFilter returns a user-facing message for the first bad parameter.
func parseFilter(r *http.Request) (audit.QueryFilter, string) {
	q := r.URL.Query()
	f := audit.QueryFilter{
		Category:  q.Get("category"),
		EventType: q.Get("event_type"),
	}

	if v := q.Get("actor_id"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			return f, "actor_id must be a valid id"
		}
		f.ActorID = &id
	}
	if v := q.Get("success"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, "success must be true or false"
		}
		f.Success = &b
	}
	if v := q.Get("since"); v != "" {
		t, ok := parseTime(v, false)
		if !ok {
			return f, "since must be RFC 3339 or YYYY-MM-DD"
		}
		f.StartTime = &t
	}
	if v := q.Get("until"); v != "" {
		t, ok := parseTime(v, true)
		if !ok {
			return f, "until must be RFC 3339 or YYYY-MM-DD"
		}
		f.EndTime = &t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 1 || n > maxLimit {
			return f, "limit must be between 1 and 500"
		}
		f.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return f, "offset must not be negative"
		}
		f.Offset = n
	}
	return f, ""
}

// parseTime accepts RFC 3339 or a bare date. A bare "until" date covers
// the whole day.
func parseTime(v string, endOfDay bool) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), true
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, true
}
