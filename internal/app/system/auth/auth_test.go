package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/congregationhub/internal/app/system/auth"
	"go.uber.org/zap"
)

func initStore(t *testing.T) {
	t.Helper()
	if err := auth.InitSessionStore("test-session-key-must-be-32-chars-long", "test-session", "", false, zap.NewNop()); err != nil {
		t.Fatalf("InitSessionStore: %v", err)
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireSignedIn_NoUser_Returns401(t *testing.T) {
	rec := httptest.NewRecorder()
	auth.RequireSignedIn(okHandler()).ServeHTTP(rec, httptest.NewRequest("GET", "/groups", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}
}

func TestRequireSignedIn_WithUser_PassesThrough(t *testing.T) {
	req := auth.WithTestUser(httptest.NewRequest("GET", "/groups", nil), &auth.SessionUser{ID: "u1", Role: "publisher"})
	rec := httptest.NewRecorder()
	auth.RequireSignedIn(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name string
		user *auth.SessionUser
		want int
	}{
		{"no user", nil, http.StatusUnauthorized},
		{"wrong role", &auth.SessionUser{ID: "u1", Role: "publisher"}, http.StatusForbidden},
		{"allowed role", &auth.SessionUser{ID: "u1", Role: "elder"}, http.StatusOK},
		{"case-insensitive", &auth.SessionUser{ID: "u1", Role: "Admin"}, http.StatusOK},
	}

	h := auth.RequireRole("admin", " Elder ")(okHandler())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/assignments/member/distribute", nil)
			if tt.user != nil {
				req = auth.WithTestUser(req, tt.user)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("got %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestSignIn_RoundTripsThroughCookie(t *testing.T) {
	initStore(t)

	rec := httptest.NewRecorder()
	want := auth.SessionUser{ID: "64b000000000000000000001", Name: "Ana Silva", Role: "elder"}
	if err := auth.SignIn(rec, httptest.NewRequest("POST", "/", nil), want); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}

	req := httptest.NewRequest("GET", "/groups", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	var got *auth.SessionUser
	auth.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	})).ServeHTTP(httptest.NewRecorder(), req)

	if got == nil {
		t.Fatal("expected user in context")
	}
	if *got != want {
		t.Errorf("got %+v, want %+v", *got, want)
	}
}

func TestLoadSessionUser_NoCookie(t *testing.T) {
	initStore(t)

	found := true
	auth.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, found = auth.CurrentUser(r)
	})).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if found {
		t.Error("expected no user without a session cookie")
	}
}

func TestInitSessionStore_EmptyKey(t *testing.T) {
	if err := auth.InitSessionStore("", "", "", false, zap.NewNop()); err != nil {
		t.Errorf("dev mode should generate a key, got %v", err)
	}
	if err := auth.InitSessionStore("", "", "", true, zap.NewNop()); err == nil {
		t.Error("secure mode should reject an empty key")
	}
}
