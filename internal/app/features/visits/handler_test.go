package visits_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	errorsfeature "github.com/dalemusser/congregationhub/internal/app/features/errors"
	"github.com/dalemusser/congregationhub/internal/app/features/visits"
	visitsvc "github.com/dalemusser/congregationhub/internal/app/services/visits"
	"github.com/dalemusser/congregationhub/internal/app/store/memstore"
	"github.com/dalemusser/congregationhub/internal/app/system/auth"
	"github.com/dalemusser/congregationhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type env struct {
	r     chi.Router
	db    *memstore.DB
	user  *auth.SessionUser
	group models.Group
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := memstore.New()
	logger := zap.NewNop()
	svc := visitsvc.New(visitsvc.Config{
		Groups:       db.Groups,
		Schedules:    db.Schedules,
		Reports:      db.Reports,
		FieldService: db.FieldService,
		Tx:           db.Runner(),
		Log:          logger,
	})
	g, err := db.Groups.Create(context.Background(), models.Group{Name: "G1"})
	if err != nil {
		t.Fatal(err)
	}
	return &env{
		r:     visits.Routes(visits.NewHandler(svc, errorsfeature.NewErrorLogger(logger), logger)),
		db:    db,
		user:  &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Name: "Circuit Overseer", Role: "elder"},
		group: g,
	}
}

func (e *env) serve(user *auth.SessionUser, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != nil {
		req = auth.WithTestUser(req, user)
	}
	rec := httptest.NewRecorder()
	e.r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func TestUpsertSchedule(t *testing.T) {
	e := newEnv(t)
	body := `{"group_id":"` + e.group.ID.Hex() + `","month":"2025-03","date":"2025-03-10"}`

	first := e.serve(e.user, "POST", "/schedules", body)
	if first.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, first.Code, first.Body.String())
	}
	second := e.serve(e.user, "POST", "/schedules", body)

	a := decode[map[string]any](t, first)
	b := decode[map[string]any](t, second)
	if a["schedule_id"] != b["schedule_id"] {
		t.Errorf("repeat upsert created a second record: %v vs %v", a["schedule_id"], b["schedule_id"])
	}
	if a["status"] != "scheduled" {
		t.Errorf("status: got %v", a["status"])
	}
}

func TestUpsertSchedule_Errors(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"bad json", `{`, http.StatusBadRequest},
		{"unknown group", `{"group_id":"` + primitive.NewObjectID().Hex() + `","month":"2025-03","date":"2025-03-10"}`, http.StatusNotFound},
		{"date outside month", `{"group_id":"` + e.group.ID.Hex() + `","month":"2025-03","date":"2025-04-10"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := e.serve(e.user, "POST", "/schedules", tt.body); rec.Code != tt.want {
				t.Errorf("got %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestReportLifecycle(t *testing.T) {
	e := newEnv(t)
	gid := e.group.ID.Hex()
	e.serve(e.user, "POST", "/schedules", `{"group_id":"`+gid+`","month":"2025-03","date":"2025-03-10"}`)

	rec := e.serve(e.user, "POST", "/reports", `{
		"group_id":"`+gid+`","month":"2025-03","visit_date":"2025-03-10",
		"roster":[{"member_id":"`+primitive.NewObjectID().Hex()+`","name":"Ana","present":true}],
		"observations":"Encouraging visit","follow_up_needed":false}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: got %d: %s", rec.Code, rec.Body.String())
	}
	reportID := decode[map[string]string](t, rec)["report_id"]

	grid := decode[visitsvc.Grid](t, e.serve(e.user, "GET", "/grid?month=2025-03", ""))
	if len(grid.Rows) != 1 || grid.Rows[0].Status != models.VisitCompleted || grid.Rows[0].Present != 1 {
		t.Fatalf("unexpected grid: %+v", grid.Rows)
	}

	list := decode[[]models.VisitReport](t, e.serve(e.user, "GET", "/reports?group_id="+gid+"&month=2025-03", ""))
	if len(list) != 1 || list[0].ID.Hex() != reportID {
		t.Fatalf("unexpected reports: %+v", list)
	}

	stranger := &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Name: "Other", Role: "elder"}
	if rec := e.serve(stranger, "DELETE", "/reports/"+reportID, ""); rec.Code != http.StatusForbidden {
		t.Errorf("stranger delete: got %d, want %d", rec.Code, http.StatusForbidden)
	}

	if rec := e.serve(e.user, "DELETE", "/reports/"+reportID, ""); rec.Code != http.StatusOK {
		t.Fatalf("delete: got %d: %s", rec.Code, rec.Body.String())
	}
	grid = decode[visitsvc.Grid](t, e.serve(e.user, "GET", "/grid?month=2025-03", ""))
	if grid.Rows[0].Status != models.VisitScheduled {
		t.Errorf("after delete: status %s", grid.Rows[0].Status)
	}
}

func TestDeleteSchedule(t *testing.T) {
	e := newEnv(t)
	rec := e.serve(e.user, "POST", "/schedules", `{"group_id":"`+e.group.ID.Hex()+`","month":"2025-03","date":""}`)
	id := decode[map[string]any](t, rec)["schedule_id"].(string)

	if rec := e.serve(e.user, "DELETE", "/schedules/"+id, ""); rec.Code != http.StatusOK {
		t.Fatalf("delete: got %d: %s", rec.Code, rec.Body.String())
	}
	if rec := e.serve(e.user, "DELETE", "/schedules/"+id, ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete: got %d", rec.Code)
	}
}

func TestServeReports_UnknownGroup(t *testing.T) {
	e := newEnv(t)
	rec := e.serve(e.user, "GET", "/reports?group_id="+primitive.NewObjectID().Hex()+"&month=2025-03", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestRoutes_RequireSignIn(t *testing.T) {
	e := newEnv(t)
	if rec := e.serve(nil, "GET", "/grid?month=2025-03", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
