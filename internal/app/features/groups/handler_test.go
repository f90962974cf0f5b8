package groups_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	errorsfeature "github.com/dalemusser/congregationhub/internal/app/features/errors"
	"github.com/dalemusser/congregationhub/internal/app/features/groups"
	"github.com/dalemusser/congregationhub/internal/app/services/groupassign"
	"github.com/dalemusser/congregationhub/internal/app/store/memstore"
	"github.com/dalemusser/congregationhub/internal/app/system/auth"
	"github.com/dalemusser/congregationhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) (chi.Router, *memstore.DB) {
	t.Helper()
	db := memstore.New()
	logger := zap.NewNop()
	svc := groupassign.New(groupassign.Config{
		Groups:      db.Groups,
		Members:     db.Members,
		Territories: db.Territories,
		Tx:          db.Runner(),
		Log:         logger,
	})
	return groups.Routes(groups.NewHandler(svc, errorsfeature.NewErrorLogger(logger), logger)), db
}

func adminUser() *auth.SessionUser {
	return &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Name: "Test Admin", Role: "admin"}
}

func publisherUser() *auth.SessionUser {
	return &auth.SessionUser{ID: primitive.NewObjectID().Hex(), Name: "Test Publisher", Role: "publisher"}
}

func serve(r http.Handler, user *auth.SessionUser, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if user != nil {
		req = auth.WithTestUser(req, user)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandleCreate_Success(t *testing.T) {
	r, db := newTestRouter(t)

	rec := serve(r, adminUser(), "POST", "/", `{"name":"  North  "}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	list, err := db.Groups.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Name != "North" {
		t.Errorf("unexpected groups: %+v", list)
	}
}

func TestHandleCreate_Duplicate(t *testing.T) {
	r, _ := newTestRouter(t)

	serve(r, adminUser(), "POST", "/", `{"name":"North"}`)
	rec := serve(r, adminUser(), "POST", "/", `{"name":"north"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected status %d, got %d", http.StatusConflict, rec.Code)
	}
}

func TestHandleCreate_Forbidden(t *testing.T) {
	r, db := newTestRouter(t)

	rec := serve(r, publisherUser(), "POST", "/", `{"name":"North"}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected status %d, got %d", http.StatusForbidden, rec.Code)
	}
	if list, _ := db.Groups.List(context.Background()); len(list) != 0 {
		t.Errorf("group should not have been created")
	}
}

func TestServeList(t *testing.T) {
	r, db := newTestRouter(t)
	ctx := context.Background()
	g, _ := db.Groups.Create(ctx, models.Group{Name: "North"})
	gid := g.ID
	_, _ = db.Members.Create(ctx, models.Member{FullName: "Ana", GroupID: &gid, Privileges: []string{"Elder"}})
	_, _ = db.Members.Create(ctx, models.Member{FullName: "Ben", GroupID: &gid, PioneerStatus: "regular"})

	rec := serve(r, publisherUser(), "GET", "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var got []groupassign.BucketSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 group, got %d", len(got))
	}
	if got[0].Members != 2 || got[0].Elders != 1 || got[0].Pioneers != 1 {
		t.Errorf("unexpected counts: %+v", got[0])
	}
}

func TestServeList_Empty(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := serve(r, publisherUser(), "GET", "/", "")
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %s", rec.Body.String())
	}
}

func TestServeValidate(t *testing.T) {
	r, db := newTestRouter(t)
	_, _ = db.Groups.Create(context.Background(), models.Group{Name: "Empty"})

	tests := []struct {
		query string
		code  int
		want  string
	}{
		{"", http.StatusOK, `"code":"empty"`},
		{"?kind=territory", http.StatusOK, `"code":"empty"`},
		{"?kind=people", http.StatusBadRequest, `"error":"validation"`},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := serve(r, publisherUser(), "GET", "/validate"+tt.query, "")
			if rec.Code != tt.code {
				t.Errorf("status: got %d, want %d", rec.Code, tt.code)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body %s missing %s", rec.Body.String(), tt.want)
			}
		})
	}
}

func TestHandleDelete(t *testing.T) {
	r, db := newTestRouter(t)
	ctx := context.Background()
	g, _ := db.Groups.Create(ctx, models.Group{Name: "North"})
	gid := g.ID
	m, _ := db.Members.Create(ctx, models.Member{FullName: "Ana", GroupID: &gid})

	rec := serve(r, adminUser(), "DELETE", "/"+g.ID.Hex(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	after, err := db.Members.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if after.GroupID != nil {
		t.Errorf("member should be unassigned, got %v", after.GroupID)
	}

	rec = serve(r, adminUser(), "DELETE", "/"+g.ID.Hex(), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}
