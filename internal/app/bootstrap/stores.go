// internal/app/bootstrap/stores.go
package bootstrap

import (
	"github.com/dalemusser/congregationhub/internal/app/features/audittrail"
	"github.com/dalemusser/congregationhub/internal/app/services/groupassign"
	visitsvc "github.com/dalemusser/congregationhub/internal/app/services/visits"
	"github.com/dalemusser/congregationhub/internal/app/store/audit"
	fieldservicestore "github.com/dalemusser/congregationhub/internal/app/store/fieldservice"
	groupstore "github.com/dalemusser/congregationhub/internal/app/store/groups"
	memberstore "github.com/dalemusser/congregationhub/internal/app/store/members"
	territorystore "github.com/dalemusser/congregationhub/internal/app/store/territories"
	reportstore "github.com/dalemusser/congregationhub/internal/app/store/visitreports"
	schedulestore "github.com/dalemusser/congregationhub/internal/app/store/visitschedules"
	"github.com/dalemusser/congregationhub/internal/app/system/auditlog"
	"github.com/dalemusser/congregationhub/internal/app/system/metrics"
	"github.com/dalemusser/congregationhub/internal/app/system/txn"
	"go.uber.org/zap"
)

// services bundles what the feature handlers depend on.
type services struct {
	assign      *groupassign.Service
	visits      *visitsvc.Service
	auditReader audittrail.Reader
}

// repositories is one backend's set of stores.
type repositories struct {
	groups       groupassign.Groups
	members      groupassign.Roster
	territories  groupassign.Roster
	schedules    visitsvc.Schedules
	reports      visitsvc.Reports
	fieldService visitsvc.FieldService
	auditSink    auditlog.Sink
	auditReader  audittrail.Reader
	tx           txn.Runner
}

func mongoRepositories(deps DBDeps, logger *zap.Logger) repositories {
	db := deps.MongoDatabase
	events := audit.New(db)
	return repositories{
		groups:       groupstore.New(db),
		members:      memberstore.New(db),
		territories:  territorystore.New(db),
		schedules:    schedulestore.New(db),
		reports:      reportstore.New(db),
		fieldService: fieldservicestore.New(db),
		auditSink:    events,
		auditReader:  events,
		tx:           txn.MongoRunner{DB: db, Log: logger},
	}
}

func memoryRepositories(deps DBDeps) repositories {
	m := deps.Memory
	return repositories{
		groups:       m.Groups,
		members:      m.Members,
		territories:  m.Territories,
		schedules:    m.Schedules,
		reports:      m.Reports,
		fieldService: m.FieldService,
		auditSink:    m.Audit,
		auditReader:  m.Audit,
		tx:           m.Runner(),
	}
}

// buildServices constructs the services over whichever backend deps holds.
func buildServices(appCfg AppConfig, deps DBDeps, m *metrics.Metrics, logger *zap.Logger) services {
	var repos repositories
	if deps.Memory != nil {
		repos = memoryRepositories(deps)
	} else {
		repos = mongoRepositories(deps, logger)
	}

	auditLog := auditlog.New(repos.auditSink, logger, auditlog.Config{Admin: appCfg.AuditLogAdmin})

	return services{
		assign: groupassign.New(groupassign.Config{
			Groups:      repos.groups,
			Members:     repos.members,
			Territories: repos.territories,
			Tx:          repos.tx,
			Audit:       auditLog,
			Metrics:     m,
			Log:         logger,
			MinSize:     appCfg.GroupMinSize,
			MaxSize:     appCfg.GroupMaxSize,
		}),
		visits: visitsvc.New(visitsvc.Config{
			Groups:       repos.groups,
			Schedules:    repos.schedules,
			Reports:      repos.reports,
			FieldService: repos.fieldService,
			Tx:           repos.tx,
			Audit:        auditLog,
			Metrics:      m,
			Log:          logger,
		}),
		auditReader: repos.auditReader,
	}
}
