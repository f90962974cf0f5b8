package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/congregationhub/internal/app/system/auth"
	"github.com/dalemusser/congregationhub/internal/app/system/authz"
	"github.com/dalemusser/congregationhub/internal/domain/models"
	"github.com/dalemusser/congregationhub/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validConfig() AppConfig {
	return AppConfig{
		StoreBackend:  BackendMemory,
		MongoURI:      "mongodb://localhost:27017",
		MongoDatabase: "congregation_hub_test",
		SessionKey:    "test-session-key-0123456789abcdef0123",
		AuditLogAdmin: "all",
		GroupMinSize:  5,
		GroupMaxSize:  20,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{name: "memory backend", mutate: func(*AppConfig) {}},
		{name: "mongo backend", mutate: func(c *AppConfig) { c.StoreBackend = BackendMongo }},
		{
			name:    "unknown backend",
			mutate:  func(c *AppConfig) { c.StoreBackend = "redis" },
			wantErr: "store_backend",
		},
		{
			name: "bad mongo uri",
			mutate: func(c *AppConfig) {
				c.StoreBackend = BackendMongo
				c.MongoURI = "postgres://nope"
			},
			wantErr: "MongoDB URI",
		},
		{
			name:   "bad mongo uri ignored for memory",
			mutate: func(c *AppConfig) { c.MongoURI = "postgres://nope" },
		},
		{
			name:    "min above max",
			mutate:  func(c *AppConfig) { c.GroupMinSize = 21 },
			wantErr: "group_min_size",
		},
		{
			name:    "unknown audit mode",
			mutate:  func(c *AppConfig) { c.AuditLogAdmin = "verbose" },
			wantErr: "audit_log_admin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{}, cfg, testLogger())
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"https://a.example", "http://b.example"},
		splitList(" https://a.example, ,http://b.example "))
}

func TestConnectDB_Memory(t *testing.T) {
	deps, err := ConnectDB(context.Background(), &config.CoreConfig{}, validConfig(), testLogger())
	require.NoError(t, err)
	assert.NotNil(t, deps.Memory)
	assert.Nil(t, deps.MongoClient)

	// nothing to index, nothing to disconnect
	assert.NoError(t, EnsureSchema(context.Background(), &config.CoreConfig{}, validConfig(), deps, testLogger()))
	assert.NoError(t, Shutdown(context.Background(), &config.CoreConfig{}, validConfig(), deps, testLogger()))
}

func TestEnsureSchema_Mongo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}
	require.NoError(t, EnsureSchema(ctx, &config.CoreConfig{}, validConfig(), deps, testLogger()))
	// idempotent
	require.NoError(t, EnsureSchema(ctx, &config.CoreConfig{}, validConfig(), deps, testLogger()))
}

// newApp runs the lifecycle hooks against the memory backend and returns
// the root handler with the backing store.
func newApp(t *testing.T) (http.Handler, DBDeps) {
	t.Helper()
	core := &config.CoreConfig{Env: "dev"}
	cfg := validConfig()
	cfg.CORSAllowedOrigins = []string{"https://app.example"}

	deps, err := ConnectDB(context.Background(), core, cfg, testLogger())
	require.NoError(t, err)
	require.NoError(t, Startup(context.Background(), core, cfg, deps, testLogger()))
	h, err := BuildHandler(core, cfg, deps, testLogger())
	require.NoError(t, err)
	return h, deps
}

// sessionCookies signs u in and returns the resulting cookies.
func sessionCookies(t *testing.T, u auth.SessionUser) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, auth.SignIn(rec, httptest.NewRequest(http.MethodGet, "/", nil), u))
	return rec.Result().Cookies()
}

func do(h http.Handler, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBuildHandler_Smoke(t *testing.T) {
	h, deps := newApp(t)

	rec := do(h, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"memory"`)

	rec = do(h, http.MethodGet, "/groups", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	elder := sessionCookies(t, auth.SessionUser{ID: primitive.NewObjectID().Hex(), Name: "Brother Lee", Role: authz.RoleElder})

	rec = do(h, http.MethodPost, "/groups", `{"name":"North"}`, elder)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	for _, name := range []string{"Ana", "Ben", "Cam"} {
		_, err := deps.Memory.Members.Create(context.Background(), models.Member{FullName: name, Gender: "Male"})
		require.NoError(t, err)
	}

	rec = do(h, http.MethodPost, "/assignments/member/distribute", `{"strategy":"simple"}`, elder)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 3, out.Count)

	rec = do(h, http.MethodGet, "/visits/grid?month=2026-03", "", elder)
	assert.Equal(t, http.StatusOK, rec.Code)

	// the audit trail reached the memory sink
	assert.NotEmpty(t, deps.Memory.Audit.Events())

	rec = do(h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "congregationhub_")
}

func TestBuildHandler_VisitorCannotDistribute(t *testing.T) {
	h, _ := newApp(t)
	visitor := sessionCookies(t, auth.SessionUser{ID: primitive.NewObjectID().Hex(), Name: "Pat", Role: authz.RoleVisitor})

	rec := do(h, http.MethodPost, "/assignments/member/distribute", `{"strategy":"simple"}`, visitor)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBuildHandler_CORSPreflight(t *testing.T) {
	h, _ := newApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/groups", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestBuildHandler_AuditTrail(t *testing.T) {
	h, _ := newApp(t)
	admin := sessionCookies(t, auth.SessionUser{ID: primitive.NewObjectID().Hex(), Name: "Admin", Role: authz.RoleAdmin})

	rec := do(h, http.MethodPost, "/groups", `{"name":"South"}`, admin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(h, http.MethodGet, "/audit?event_type=group_created", "", admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var events []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "Admin", events[0]["actor_name"])
}
