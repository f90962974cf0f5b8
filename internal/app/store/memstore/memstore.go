// Package memstore provides in-memory implementations of every repository
// for tests and the memory store backend. Each store guards its own map
// with a sync.RWMutex; DB.Runner adds snapshot/rollback so a failed
// multi-store operation leaves no partial writes.
package memstore

import (
	"context"
	"sync"

	"github.com/dalemusser/congregationhub/internal/app/system/txn"
)

// DB bundles one instance of every store.
type DB struct {
	Groups       *Groups
	Members      *Members
	Territories  *Territories
	Schedules    *Schedules
	Reports      *Reports
	FieldService *FieldService
	Audit        *AuditSink

	txMu sync.Mutex
}

// New returns an empty DB.
func New() *DB {
	return &DB{
		Groups:       NewGroups(),
		Members:      NewMembers(),
		Territories:  NewTerritories(),
		Schedules:    NewSchedules(),
		Reports:      NewReports(),
		FieldService: NewFieldService(),
		Audit:        &AuditSink{},
	}
}

type snapshotter interface {
	snapshot() func()
}

// Runner returns a txn.Runner that restores every store to its prior state
// when fn fails. Transactions are serialized.
func (db *DB) Runner() txn.Runner { return runner{db: db} }

type runner struct{ db *DB }

func (r runner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	r.db.txMu.Lock()
	defer r.db.txMu.Unlock()

	stores := []snapshotter{r.db.Groups, r.db.Members, r.db.Territories, r.db.Schedules, r.db.Reports, r.db.FieldService}
	restores := make([]func(), len(stores))
	for i, s := range stores {
		restores[i] = s.snapshot()
	}
	if err := fn(ctx); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}
	return nil
}

var _ txn.Runner = runner{}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
