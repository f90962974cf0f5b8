package visits_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/congregationhub/internal/app/services/visits"
	"github.com/dalemusser/congregationhub/internal/app/store/audit"
	"github.com/dalemusser/congregationhub/internal/app/store/memstore"
	"github.com/dalemusser/congregationhub/internal/app/system/apperr"
	"github.com/dalemusser/congregationhub/internal/app/system/auditlog"
	"github.com/dalemusser/congregationhub/internal/app/system/txn"
	"github.com/dalemusser/congregationhub/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fixture struct {
	db      *memstore.DB
	svc     *visits.Service
	actor   models.Actor
	ctx     context.Context
	groupID primitive.ObjectID
}

func newFixtureWith(t *testing.T, tx func(*memstore.DB) txn.Runner) *fixture {
	t.Helper()
	db := memstore.New()
	svc := visits.New(visits.Config{
		Groups:       db.Groups,
		Schedules:    db.Schedules,
		Reports:      db.Reports,
		FieldService: db.FieldService,
		Tx:           tx(db),
		Audit:        auditlog.New(db.Audit, zap.NewNop(), auditlog.Config{Admin: "db"}),
		Log:          zap.NewNop(),
	})
	g, err := db.Groups.Create(context.Background(), models.Group{Name: "G1"})
	require.NoError(t, err)
	return &fixture{
		db:      db,
		svc:     svc,
		actor:   models.Actor{ID: primitive.NewObjectID(), Name: "Circuit Overseer"},
		ctx:     context.Background(),
		groupID: g.ID,
	}
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWith(t, func(db *memstore.DB) txn.Runner { return db.Runner() })
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func (f *fixture) schedules(t *testing.T) []models.VisitSchedule {
	t.Helper()
	out, err := f.db.Schedules.ListByGroupMonth(f.ctx, f.groupID, "2025-03")
	require.NoError(t, err)
	return out
}

func (f *fixture) submit(t *testing.T, date string) models.VisitReport {
	t.Helper()
	r, err := f.svc.SubmitReport(f.ctx, f.actor, visits.ReportInput{
		GroupID:   f.groupID.Hex(),
		Month:     "2025-03",
		VisitDate: date,
	})
	require.NoError(t, err)
	return r
}

func TestUpsertSchedule_Idempotent(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.UpsertSchedule(f.ctx, f.actor, f.groupID.Hex(), "2025-03", "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, models.VisitScheduled, first.Status)

	other := models.Actor{ID: primitive.NewObjectID(), Name: "Helper"}
	second, err := f.svc.UpsertSchedule(f.ctx, other, f.groupID.Hex(), "2025-03", "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	all := f.schedules(t)
	require.Len(t, all, 1)
	assert.Equal(t, other.ID, all[0].UpdatedBy)
	assert.Equal(t, f.actor.ID, all[0].CreatedBy)
}

func TestUpsertSchedule_MultipleAttempts(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpsertSchedule(f.ctx, f.actor, f.groupID.Hex(), "2025-03", "2025-03-10")
	require.NoError(t, err)
	_, err = f.svc.UpsertSchedule(f.ctx, f.actor, f.groupID.Hex(), "2025-03", "2025-03-24")
	require.NoError(t, err)

	assert.Len(t, f.schedules(t), 2)
}

func TestUpsertSchedule_PendingIsPromoted(t *testing.T) {
	f := newFixture(t)

	pending, err := f.svc.UpsertSchedule(f.ctx, f.actor, f.groupID.Hex(), "2025-03", "")
	require.NoError(t, err)
	assert.Equal(t, models.VisitPending, pending.Status)
	assert.Nil(t, pending.ScheduledDate)

	_, err = f.svc.UpsertSchedule(f.ctx, f.actor, f.groupID.Hex(), "2025-03", "")
	require.NoError(t, err)
	require.Len(t, f.schedules(t), 1)

	dated, err := f.svc.UpsertSchedule(f.ctx, f.actor, f.groupID.Hex(), "2025-03", "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, pending.ID, dated.ID)
	assert.Equal(t, models.VisitScheduled, dated.Status)

	all := f.schedules(t)
	require.Len(t, all, 1)
	assert.True(t, all[0].ScheduledDate.Equal(day("2025-03-10")))
}

func TestUpsertSchedule_Validation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		group   string
		month   string
		date    string
		wantErr error
		kind    apperr.Kind
	}{
		{"unknown group", primitive.NewObjectID().Hex(), "2025-03", "2025-03-10", apperr.ErrGroupNotFound, apperr.NotFound},
		{"malformed group", "nope", "2025-03", "2025-03-10", apperr.ErrGroupNotFound, apperr.NotFound},
		{"missing month", f.groupID.Hex(), "", "2025-03-10", nil, apperr.Validation},
		{"bad month", f.groupID.Hex(), "March", "2025-03-10", nil, apperr.Validation},
		{"bad date", f.groupID.Hex(), "2025-03", "10/03/2025", nil, apperr.Validation},
		{"date outside month", f.groupID.Hex(), "2025-03", "2025-04-01", nil, apperr.Validation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.UpsertSchedule(f.ctx, f.actor, tt.group, tt.month, tt.date)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
			}
		})
	}
	assert.Empty(t, f.schedules(t))
}

func TestSubmitReport_CompletesOnlyMatchingDate(t *testing.T) {
	f := newFixture(t)
	first, err := f.svc.UpsertSchedule(f.ctx, f.actor, f.groupID.Hex(), "2025-03", "2025-03-10")
	require.NoError(t, err)
	second, err := f.svc.UpsertSchedule(f.ctx, f.actor, f.groupID.Hex(), "2025-03", "2025-03-24")
	require.NoError(t, err)

	f.submit(t, "2025-03-10")

	got, err := f.db.Schedules.GetByID(f.ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VisitCompleted, got.Status)
	require.NotNil(t, got.CompletedDate)
	assert.True(t, got.CompletedDate.Equal(day("2025-03-10")))

	untouched, err := f.db.Schedules.GetByID(f.ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VisitScheduled, untouched.Status)
	assert.Nil(t, untouched.CompletedDate)
}

func TestSubmitReport_CreatesCompletedScheduleWhenMissing(t *testing.T) {
	f := newFixture(t)

	f.submit(t, "2025-03-15")

	all := f.schedules(t)
	require.Len(t, all, 1)
	assert.Equal(t, models.VisitCompleted, all[0].Status)
	assert.True(t, all[0].ScheduledDate.Equal(day("2025-03-15")))
}

func TestSubmitReport_EnrichesRoster(t *testing.T) {
	f := newFixture(t)
	withReport := primitive.NewObjectID()
	without := primitive.NewObjectID()
	require.NoError(t, f.db.FieldService.Upsert(f.ctx, models.FieldServiceReport{MemberID: withReport, Month: "2025-03", Hours: 12.5}))
	require.NoError(t, f.db.FieldService.Upsert(f.ctx, models.FieldServiceReport{MemberID: without, Month: "2025-02", Hours: 30}))

	r, err := f.svc.SubmitReport(f.ctx, f.actor, visits.ReportInput{
		GroupID:   f.groupID.Hex(),
		Month:     "2025-03",
		VisitDate: "2025-03-10",
		Roster: []visits.RosterInput{
			{MemberID: withReport.Hex(), Name: "<b>Ana</b>", Present: true},
			{MemberID: without.Hex(), Name: "Ben"},
		},
		Observations: "<p>Good</p><script>x()</script>",
	})
	require.NoError(t, err)
	require.Len(t, r.Roster, 2)
	assert.Equal(t, "Ana", r.Roster[0].Name)
	assert.Equal(t, 12.5, r.Roster[0].FieldServiceHours)
	assert.True(t, r.Roster[0].SubmittedReport)
	assert.Equal(t, 0.0, r.Roster[1].FieldServiceHours)
	assert.False(t, r.Roster[1].SubmittedReport)
	assert.Equal(t, "<p>Good</p>", r.Observations)
}

func TestSubmitReport_LookupFailureIsNotAnError(t *testing.T) {
	f := newFixture(t)
	f.db.FieldService.FailList = errors.New("connection reset")

	r, err := f.svc.SubmitReport(f.ctx, f.actor, visits.ReportInput{
		GroupID:   f.groupID.Hex(),
		Month:     "2025-03",
		VisitDate: "2025-03-10",
		Roster:    []visits.RosterInput{{MemberID: primitive.NewObjectID().Hex(), Name: "Ana"}},
	})
	require.NoError(t, err)
	assert.False(t, r.Roster[0].SubmittedReport)
}

func TestSubmitReport_ReportFailureLeavesScheduleAlone(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.UpsertSchedule(f.ctx, f.actor, f.groupID.Hex(), "2025-03", "2025-03-10")
	require.NoError(t, err)
	f.db.Reports.FailInsert = errors.New("disk full")

	_, err = f.svc.SubmitReport(f.ctx, f.actor, visits.ReportInput{GroupID: f.groupID.Hex(), Month: "2025-03", VisitDate: "2025-03-10"})
	require.Error(t, err)
	assert.Equal(t, apperr.Internal, apperr.KindOf(err))

	all := f.schedules(t)
	require.Len(t, all, 1)
	assert.Equal(t, models.VisitScheduled, all[0].Status)

	events := f.db.Audit.ByType(audit.EventReportSubmitted)
	require.Len(t, events, 1)
	assert.False(t, events[0].Success)
}

func TestSubmitReport_ScheduleFailureRollsBackReport(t *testing.T) {
	runners := map[string]func(*memstore.DB) txn.Runner{
		"transaction":  func(db *memstore.DB) txn.Runner { return db.Runner() },
		"compensation": func(*memstore.DB) txn.Runner { return txn.Direct{} },
	}
	for name, runner := range runners {
		t.Run(name, func(t *testing.T) {
			f := newFixtureWith(t, runner)
			_, err := f.svc.UpsertSchedule(f.ctx, f.actor, f.groupID.Hex(), "2025-03", "2025-03-10")
			require.NoError(t, err)
			f.db.Schedules.FailUpdate = errors.New("write conflict")

			_, err = f.svc.SubmitReport(f.ctx, f.actor, visits.ReportInput{GroupID: f.groupID.Hex(), Month: "2025-03", VisitDate: "2025-03-10"})
			require.Error(t, err)

			reports, err := f.db.Reports.ListByGroupMonth(f.ctx, f.groupID, "2025-03")
			require.NoError(t, err)
			assert.Empty(t, reports)
			assert.Equal(t, models.VisitScheduled, f.schedules(t)[0].Status)
		})
	}
}

func TestSubmitReport_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SubmitReport(f.ctx, f.actor, visits.ReportInput{GroupID: f.groupID.Hex(), Month: "2025-03"})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	_, err = f.svc.SubmitReport(f.ctx, f.actor, visits.ReportInput{
		GroupID: f.groupID.Hex(), Month: "2025-03", VisitDate: "2025-03-10",
		Roster: []visits.RosterInput{{MemberID: "x"}},
	})
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))

	_, err = f.svc.SubmitReport(f.ctx, f.actor, visits.ReportInput{GroupID: primitive.NewObjectID().Hex(), Month: "2025-03", VisitDate: "2025-03-10"})
	assert.True(t, errors.Is(err, apperr.ErrGroupNotFound))

	assert.Empty(t, f.schedules(t))
}

func TestReportRoundTrip(t *testing.T) {
	f := newFixture(t)
	sched, err := f.svc.UpsertSchedule(f.ctx, f.actor, f.groupID.Hex(), "2025-03", "2025-03-10")
	require.NoError(t, err)

	r := f.submit(t, "2025-03-10")
	require.NoError(t, f.svc.DeleteReport(f.ctx, f.actor, r.ID.Hex()))

	got, err := f.db.Schedules.GetByID(f.ctx, sched.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VisitScheduled, got.Status)
	assert.Nil(t, got.CompletedDate)
	require.NotNil(t, got.ScheduledDate)

	_, err = f.db.Reports.GetByID(f.ctx, r.ID)
	assert.True(t, errors.Is(err, apperr.ErrReportNotFound))
}

func TestDeleteReport_KeepsCompletedWhileAnotherSameDayReportExists(t *testing.T) {
	f := newFixture(t)
	first := f.submit(t, "2025-03-10")
	f.submit(t, "2025-03-10")

	require.NoError(t, f.svc.DeleteReport(f.ctx, f.actor, first.ID.Hex()))
	all := f.schedules(t)
	require.Len(t, all, 1)
	assert.Equal(t, models.VisitCompleted, all[0].Status)
}

func TestDeleteReport_Unauthorized(t *testing.T) {
	f := newFixture(t)
	r := f.submit(t, "2025-03-10")

	stranger := models.Actor{ID: primitive.NewObjectID(), Name: "Someone Else"}
	err := f.svc.DeleteReport(f.ctx, stranger, r.ID.Hex())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))

	_, err = f.db.Reports.GetByID(f.ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.VisitCompleted, f.schedules(t)[0].Status)

	events := f.db.Audit.ByType(audit.EventReportDeleted)
	require.Len(t, events, 1)
	assert.False(t, events[0].Success)
	assert.Equal(t, stranger.ID, *events[0].ActorID)
}

func TestDeleteReport_NotFound(t *testing.T) {
	f := newFixture(t)
	err := f.svc.DeleteReport(f.ctx, f.actor, primitive.NewObjectID().Hex())
	assert.True(t, errors.Is(err, apperr.ErrReportNotFound))
	err = f.svc.DeleteReport(f.ctx, f.actor, "zzz")
	assert.True(t, errors.Is(err, apperr.ErrReportNotFound))
}

func TestDeleteSchedule_CreatorOnly(t *testing.T) {
	f := newFixture(t)
	s, err := f.svc.UpsertSchedule(f.ctx, f.actor, f.groupID.Hex(), "2025-03", "2025-03-10")
	require.NoError(t, err)

	err = f.svc.DeleteSchedule(f.ctx, models.Actor{ID: primitive.NewObjectID()}, s.ID.Hex())
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
	require.Len(t, f.schedules(t), 1)

	require.NoError(t, f.svc.DeleteSchedule(f.ctx, f.actor, s.ID.Hex()))
	assert.Empty(t, f.schedules(t))

	err = f.svc.DeleteSchedule(f.ctx, f.actor, s.ID.Hex())
	assert.True(t, errors.Is(err, apperr.ErrScheduleNotFound))
}

func TestListReports(t *testing.T) {
	f := newFixture(t)

	empty, err := f.svc.ListReports(f.ctx, f.groupID.Hex(), "2025-03")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	f.submit(t, "2025-03-20")
	f.submit(t, "2025-03-05")
	got, err := f.svc.ListReports(f.ctx, f.groupID.Hex(), "2025-03")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].VisitDate.Before(got[1].VisitDate))

	_, err = f.svc.ListReports(f.ctx, primitive.NewObjectID().Hex(), "2025-03")
	assert.True(t, errors.Is(err, apperr.ErrGroupNotFound))
}
