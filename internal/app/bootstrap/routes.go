// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	audittrailfeature "github.com/dalemusser/congregationhub/internal/app/features/audittrail"
	assignmentsfeature "github.com/dalemusser/congregationhub/internal/app/features/assignments"
	errorsfeature "github.com/dalemusser/congregationhub/internal/app/features/errors"
	groupsfeature "github.com/dalemusser/congregationhub/internal/app/features/groups"
	healthfeature "github.com/dalemusser/congregationhub/internal/app/features/health"
	visitsfeature "github.com/dalemusser/congregationhub/internal/app/features/visits"
	"github.com/dalemusser/congregationhub/internal/app/system/auth"
	"github.com/dalemusser/congregationhub/internal/app/system/metrics"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed, so the session store is already initialized.
// Every feature speaks JSON; all but /health and /metrics require a
// signed-in user.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	m := metrics.New()
	svc := buildServices(appCfg, deps, m, logger)

	// Create error logger for handlers.
	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()

	if len(appCfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   appCfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(m.Middleware)

	// Loads the SessionUser into context if signed in.
	r.Use(auth.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", m.Handler())

	// Group assignment and distribution
	assignHandler := assignmentsfeature.NewHandler(svc.assign, errLog, logger)
	r.Mount("/assignments", assignmentsfeature.Routes(assignHandler))

	// Group management
	groupsHandler := groupsfeature.NewHandler(svc.assign, errLog, logger)
	r.Mount("/groups", groupsfeature.Routes(groupsHandler))

	// Visit schedules and reports
	visitsHandler := visitsfeature.NewHandler(svc.visits, errLog, logger)
	r.Mount("/visits", visitsfeature.Routes(visitsHandler))

	// Audit trail (admins only)
	auditHandler := audittrailfeature.NewHandler(svc.auditReader, errLog, logger)
	r.Mount("/audit", audittrailfeature.Routes(auditHandler))

	return r, nil
}
