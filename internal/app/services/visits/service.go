// Package visits tracks supervisory visits per (group, month) and keeps
// schedule records in step with submitted visit reports.
//
// A schedule record moves pending -> scheduled when a date is set and
// scheduled -> completed only when a report for that date is saved.
// Deleting the report moves it back to scheduled. Report writes and the
// matching schedule transition run in one transaction where the store
// supports it; otherwise a compensating write undoes the first half.
package visits

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/congregationhub/internal/app/system/apperr"
	"github.com/dalemusser/congregationhub/internal/app/system/auditlog"
	"github.com/dalemusser/congregationhub/internal/app/system/metrics"
	"github.com/dalemusser/congregationhub/internal/app/system/txn"
	"github.com/dalemusser/congregationhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	monthLayout = "2006-01"
	dateLayout  = "2006-01-02"
)

type Groups interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error)
}

type Schedules interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.VisitSchedule, error)
	FindByKey(ctx context.Context, groupID primitive.ObjectID, month string, date *time.Time) (models.VisitSchedule, error)
	Insert(ctx context.Context, v models.VisitSchedule) (models.VisitSchedule, error)
	Update(ctx context.Context, v models.VisitSchedule) error
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
	ListByCreatorMonth(ctx context.Context, createdBy primitive.ObjectID, month string) ([]models.VisitSchedule, error)
	ListByGroupMonth(ctx context.Context, groupID primitive.ObjectID, month string) ([]models.VisitSchedule, error)
}

type Reports interface {
	Insert(ctx context.Context, r models.VisitReport) (models.VisitReport, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.VisitReport, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
	ListByGroupMonth(ctx context.Context, groupID primitive.ObjectID, month string) ([]models.VisitReport, error)
	ListByGroupsMonth(ctx context.Context, groupIDs []primitive.ObjectID, month string) ([]models.VisitReport, error)
}

// FieldService looks up members' monthly field-service reports.
type FieldService interface {
	ListByMembersMonth(ctx context.Context, memberIDs []primitive.ObjectID, month string) ([]models.FieldServiceReport, error)
}

type Config struct {
	Groups       Groups
	Schedules    Schedules
	Reports      Reports
	FieldService FieldService
	Tx           txn.Runner
	Audit        *auditlog.Logger
	Metrics      *metrics.Metrics
	Log          *zap.Logger
}

type Service struct {
	groups    Groups
	schedules Schedules
	reports   Reports
	fsr       FieldService
	tx        txn.Runner
	audit     *auditlog.Logger
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func New(cfg Config) *Service {
	s := &Service{
		groups:    cfg.Groups,
		schedules: cfg.Schedules,
		reports:   cfg.Reports,
		fsr:       cfg.FieldService,
		tx:        cfg.Tx,
		audit:     cfg.Audit,
		metrics:   cfg.Metrics,
		log:       cfg.Log,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.tx == nil {
		s.tx = txn.Direct{}
	}
	return s
}

// parseMonth validates a YYYY-MM month.
func parseMonth(op, month string) (time.Time, error) {
	if month == "" {
		return time.Time{}, apperr.Validationf(op, "month is required")
	}
	m, err := time.Parse(monthLayout, month)
	if err != nil {
		return time.Time{}, apperr.Validationf(op, "month must be YYYY-MM")
	}
	return m, nil
}

// parseDate parses a YYYY-MM-DD date that must fall inside month. The
// result is midnight UTC.
func parseDate(op, field, date string, month time.Time) (time.Time, error) {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, apperr.Validationf(op, "%s must be YYYY-MM-DD", field)
	}
	if d.Year() != month.Year() || d.Month() != month.Month() {
		return time.Time{}, apperr.Validationf(op, "%s must fall within %s", field, month.Format(monthLayout))
	}
	return d, nil
}

func sameDay(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

func (s *Service) resolveGroup(ctx context.Context, op, groupID string) (models.Group, error) {
	oid, err := primitive.ObjectIDFromHex(groupID)
	if err != nil {
		return models.Group{}, apperr.ErrGroupNotFound.With(op)
	}
	g, err := s.groups.GetByID(ctx, oid)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return models.Group{}, apperr.ErrGroupNotFound.With(op)
		}
		return models.Group{}, apperr.Internalf(op, err, "failed to load group")
	}
	return g, nil
}

// transition applies ev to v, stamping the actor.
func transition(op string, v *models.VisitSchedule, ev models.VisitEvent, actor models.Actor) error {
	next, err := v.Status.Next(ev)
	if err != nil {
		return apperr.Validationf(op, "%v", err)
	}
	v.Status = next
	v.UpdatedBy = actor.ID
	return nil
}

// classify passes typed errors through and wraps anything else as Internal.
func classify(op, msg string, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Internalf(op, err, "%s", msg)
}
