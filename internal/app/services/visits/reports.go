package visits

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/dalemusser/congregationhub/internal/app/store/audit"
	"github.com/dalemusser/congregationhub/internal/app/system/apperr"
	"github.com/dalemusser/congregationhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/congregationhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// RosterInput is one member's state as captured during the visit.
type RosterInput struct {
	MemberID       string `json:"member_id"`
	Name           string `json:"name"`
	Present        bool   `json:"present"`
	BibleStudy     bool   `json:"bible_study"`
	MinistryActive bool   `json:"ministry_active"`
}

// ReportInput is the payload of SubmitReport.
type ReportInput struct {
	GroupID        string        `json:"group_id"`
	Month          string        `json:"month"`
	VisitDate      string        `json:"visit_date"`
	Roster         []RosterInput `json:"roster"`
	Observations   string        `json:"observations"`
	FollowUpNeeded bool          `json:"follow_up_needed"`
}

// SubmitReport saves a visit report and marks the schedule record for the
// same group, month and date completed, creating it if none exists. The
// roster is stored as given; it is not checked against current group
// membership.
func (s *Service) SubmitReport(ctx context.Context, actor models.Actor, in ReportInput) (models.VisitReport, error) {
	const op = "visits.SubmitReport"
	var saved models.VisitReport

	err := s.audit.Track(ctx, actor, audit.CategoryVisit, audit.EventReportSubmitted, func() (map[string]string, error) {
		m, err := parseMonth(op, in.Month)
		if err != nil {
			return nil, err
		}
		if in.VisitDate == "" {
			return nil, apperr.Validationf(op, "visit date is required")
		}
		visitDate, err := parseDate(op, "visit date", in.VisitDate, m)
		if err != nil {
			return nil, err
		}
		roster, err := parseRoster(op, in.Roster)
		if err != nil {
			return nil, err
		}
		g, err := s.resolveGroup(ctx, op, in.GroupID)
		if err != nil {
			return nil, err
		}

		s.enrich(ctx, roster, in.Month)

		report := models.VisitReport{
			GroupID:         g.ID,
			Month:           in.Month,
			VisitDate:       visitDate,
			Roster:          roster,
			Observations:    htmlsanitize.Sanitize(in.Observations),
			FollowUpNeeded:  in.FollowUpNeeded,
			SubmittedBy:     actor.ID,
			SubmittedByName: actor.Name,
		}

		var sched models.VisitSchedule
		err = s.tx.Run(ctx, func(ctx context.Context) error {
			var err error
			saved, err = s.reports.Insert(ctx, report)
			if err != nil {
				return classify(op, "failed to save visit report", err)
			}
			sched, err = s.completeSchedule(ctx, op, actor, g.ID, in.Month, visitDate)
			if err != nil {
				// Undo the report when the store ran without a transaction.
				if _, derr := s.reports.Delete(ctx, saved.ID); derr != nil {
					s.log.Error("failed to roll back visit report",
						zap.String("report_id", saved.ID.Hex()),
						zap.Error(derr))
				}
				return err
			}
			return nil
		})
		if err != nil {
			saved = models.VisitReport{}
			return nil, err
		}

		s.metrics.VisitEvent("report_submitted")
		return map[string]string{
			"report_id":   saved.ID.Hex(),
			"schedule_id": sched.ID.Hex(),
			"group_id":    g.ID.Hex(),
			"group_name":  g.Name,
			"month":       in.Month,
			"visit_date":  in.VisitDate,
			"roster_size": strconv.Itoa(len(roster)),
		}, nil
	})
	return saved, err
}

func parseRoster(op string, in []RosterInput) ([]models.RosterEntry, error) {
	out := make([]models.RosterEntry, 0, len(in))
	seen := make(map[primitive.ObjectID]bool, len(in))
	for _, r := range in {
		id, err := primitive.ObjectIDFromHex(r.MemberID)
		if err != nil {
			return nil, apperr.Validationf(op, "roster member id %q is invalid", r.MemberID)
		}
		if seen[id] {
			return nil, apperr.Validationf(op, "member %s appears twice in the roster", r.MemberID)
		}
		seen[id] = true
		out = append(out, models.RosterEntry{
			MemberID:       id,
			Name:           htmlsanitize.StripTags(r.Name),
			Present:        r.Present,
			BibleStudy:     r.BibleStudy,
			MinistryActive: r.MinistryActive,
		})
	}
	return out, nil
}

// enrich copies each member's field-service hours for month onto the
// roster. A failed lookup leaves the roster unenriched.
func (s *Service) enrich(ctx context.Context, roster []models.RosterEntry, month string) {
	if len(roster) == 0 || s.fsr == nil {
		return
	}
	ids := make([]primitive.ObjectID, len(roster))
	for i, r := range roster {
		ids[i] = r.MemberID
	}
	found, err := s.fsr.ListByMembersMonth(ctx, ids, month)
	if err != nil {
		s.log.Warn("field service lookup failed; submitting report without hours",
			zap.String("month", month),
			zap.Error(err))
		return
	}
	byMember := make(map[primitive.ObjectID]models.FieldServiceReport, len(found))
	for _, f := range found {
		byMember[f.MemberID] = f
	}
	for i := range roster {
		if f, ok := byMember[roster[i].MemberID]; ok {
			roster[i].FieldServiceHours = f.Hours
			roster[i].SubmittedReport = true
		}
	}
}

// completeSchedule moves the record for (groupID, month, date) to
// completed. Without an exact match it promotes the month's pending
// record, and failing that inserts a completed record.
func (s *Service) completeSchedule(ctx context.Context, op string, actor models.Actor, groupID primitive.ObjectID, month string, date time.Time) (models.VisitSchedule, error) {
	for attempt := 0; attempt < 2; attempt++ {
		existing, err := s.schedules.FindByKey(ctx, groupID, month, &date)
		switch {
		case err == nil:
			if err := transition(op, &existing, models.EventReportSubmitted, actor); err != nil {
				return models.VisitSchedule{}, err
			}
			existing.CompletedDate = &date
			if err := s.schedules.Update(ctx, existing); err != nil {
				return models.VisitSchedule{}, classify(op, "failed to complete visit schedule", err)
			}
			return existing, nil
		case apperr.KindOf(err) != apperr.NotFound:
			return models.VisitSchedule{}, classify(op, "failed to load visit schedule", err)
		}

		promoted, ok, err := s.promotePending(ctx, op, actor, groupID, month, date, models.EventReportSubmitted)
		if errors.Is(err, apperr.ErrDuplicate) {
			continue
		}
		if err != nil {
			return models.VisitSchedule{}, err
		}
		if ok {
			return promoted, nil
		}

		created, err := s.schedules.Insert(ctx, models.VisitSchedule{
			GroupID:       groupID,
			Month:         month,
			ScheduledDate: &date,
			Status:        models.VisitCompleted,
			CompletedDate: &date,
			CreatedBy:     actor.ID,
			CreatedByName: actor.Name,
			UpdatedBy:     actor.ID,
		})
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, apperr.ErrDuplicate) {
			return models.VisitSchedule{}, classify(op, "failed to create visit schedule", err)
		}
	}
	return models.VisitSchedule{}, apperr.New(apperr.Conflict, op, "visit schedule was modified concurrently; retry")
}

// DeleteReport removes a report. Only its submitter may delete it. The
// matching completed schedule record falls back to scheduled with its
// completed date cleared, unless another report for the same day remains.
func (s *Service) DeleteReport(ctx context.Context, actor models.Actor, reportID string) error {
	const op = "visits.DeleteReport"
	return s.audit.Track(ctx, actor, audit.CategoryVisit, audit.EventReportDeleted, func() (map[string]string, error) {
		id, err := primitive.ObjectIDFromHex(reportID)
		if err != nil {
			return nil, apperr.ErrReportNotFound.With(op)
		}
		report, err := s.reports.GetByID(ctx, id)
		if err != nil {
			return nil, classify(op, "failed to load visit report", err)
		}
		if report.SubmittedBy != actor.ID {
			return nil, apperr.ErrUnauthorized.With(op)
		}

		var reverted string
		err = s.tx.Run(ctx, func(ctx context.Context) error {
			if _, err := s.reports.Delete(ctx, id); err != nil {
				return apperr.Internalf(op, err, "failed to delete visit report")
			}
			sid, err := s.revertSchedule(ctx, op, actor, report)
			if err != nil {
				if _, rerr := s.reports.Insert(ctx, report); rerr != nil {
					s.log.Error("failed to restore visit report",
						zap.String("report_id", id.Hex()),
						zap.Error(rerr))
				}
				return err
			}
			reverted = sid
			return nil
		})
		if err != nil {
			return nil, err
		}

		s.metrics.VisitEvent("report_deleted")
		return map[string]string{
			"report_id":   id.Hex(),
			"group_id":    report.GroupID.Hex(),
			"month":       report.Month,
			"visit_date":  report.VisitDate.UTC().Format(dateLayout),
			"schedule_id": reverted,
		}, nil
	})
}

// revertSchedule returns the id of the schedule record it moved back to
// scheduled, or "" when nothing needed reverting.
func (s *Service) revertSchedule(ctx context.Context, op string, actor models.Actor, report models.VisitReport) (string, error) {
	remaining, err := s.reports.ListByGroupMonth(ctx, report.GroupID, report.Month)
	if err != nil {
		return "", classify(op, "failed to load visit reports", err)
	}
	for _, r := range remaining {
		if r.ID != report.ID && sameDay(r.VisitDate, report.VisitDate) {
			return "", nil
		}
	}

	date := report.VisitDate.UTC()
	target, err := s.schedules.FindByKey(ctx, report.GroupID, report.Month, &date)
	if err != nil {
		if apperr.KindOf(err) != apperr.NotFound {
			return "", classify(op, "failed to load visit schedule", err)
		}
		// Fall back to a completed record whose completion date matches.
		all, err := s.schedules.ListByGroupMonth(ctx, report.GroupID, report.Month)
		if err != nil {
			return "", classify(op, "failed to load visit schedules", err)
		}
		found := false
		for _, v := range all {
			if v.Status == models.VisitCompleted && v.CompletedDate != nil && sameDay(*v.CompletedDate, date) {
				target, found = v, true
				break
			}
		}
		if !found {
			return "", nil
		}
	}
	if target.Status != models.VisitCompleted {
		return "", nil
	}

	if err := transition(op, &target, models.EventReportDeleted, actor); err != nil {
		return "", err
	}
	target.CompletedDate = nil
	if err := s.schedules.Update(ctx, target); err != nil {
		return "", classify(op, "failed to revert visit schedule", err)
	}
	return target.ID.Hex(), nil
}

// ListReports returns the reports for a group and month, oldest visit
// first. It fails only when the group does not resolve.
func (s *Service) ListReports(ctx context.Context, groupID, month string) ([]models.VisitReport, error) {
	const op = "visits.ListReports"
	if _, err := parseMonth(op, month); err != nil {
		return nil, err
	}
	g, err := s.resolveGroup(ctx, op, groupID)
	if err != nil {
		return nil, err
	}
	out, err := s.reports.ListByGroupMonth(ctx, g.ID, month)
	if err != nil {
		return nil, apperr.Internalf(op, err, "failed to load visit reports")
	}
	if out == nil {
		out = []models.VisitReport{}
	}
	return out, nil
}
