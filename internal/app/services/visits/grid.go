package visits

import (
	"context"
	"strconv"
	"time"

	"github.com/dalemusser/congregationhub/internal/app/system/apperr"
	"github.com/dalemusser/congregationhub/internal/domain/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// gridNamespace scopes the name-based UUIDs used as grid row ids.
var gridNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("congregationhub:visit-grid"))

// GridRow is one schedule record as displayed in the monthly grid.
type GridRow struct {
	ID            string             `json:"id"`
	ScheduleID    string             `json:"schedule_id"`
	GroupID       string             `json:"group_id"`
	GroupName     string             `json:"group_name"`
	Month         string             `json:"month"`
	ScheduledDate *time.Time         `json:"scheduled_date,omitempty"`
	Status        models.VisitStatus `json:"status"`
	ReportID      string             `json:"report_id,omitempty"`
	ReportStats
}

// Grid is the actor's visit schedule for one month.
type Grid struct {
	Month   string      `json:"month"`
	Rows    []GridRow   `json:"rows"`
	Summary GridSummary `json:"summary"`
}

// RowID derives a stable row id from the schedule, group, month and row
// position, so refetches render identically without persisted row ids.
func RowID(scheduleID, groupID, month string, index int) string {
	name := scheduleID + "|" + groupID + "|" + month + "|" + strconv.Itoa(index)
	return uuid.NewSHA1(gridNamespace, []byte(name)).String()
}

// ListScheduleGrid builds one row per schedule record the actor created
// for month. A record whose date has a matching report shows the report's
// counts as completed; any other record shows its own status with zero
// counts. No records yields an empty grid.
func (s *Service) ListScheduleGrid(ctx context.Context, actor models.Actor, month string) (Grid, error) {
	const op = "visits.ListScheduleGrid"
	if _, err := parseMonth(op, month); err != nil {
		return Grid{}, err
	}

	schedules, err := s.schedules.ListByCreatorMonth(ctx, actor.ID, month)
	if err != nil {
		return Grid{}, apperr.Internalf(op, err, "failed to load visit schedules")
	}

	var groupIDs []primitive.ObjectID
	seen := map[primitive.ObjectID]bool{}
	for _, v := range schedules {
		if !seen[v.GroupID] {
			seen[v.GroupID] = true
			groupIDs = append(groupIDs, v.GroupID)
		}
	}

	var reports []models.VisitReport
	names := make([]string, len(groupIDs))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(8)
	eg.Go(func() error {
		var err error
		reports, err = s.reports.ListByGroupsMonth(gctx, groupIDs, month)
		return err
	})
	for i, gid := range groupIDs {
		eg.Go(func() error {
			g, err := s.groups.GetByID(gctx, gid)
			if err != nil {
				// a deleted group still has history
				if apperr.KindOf(err) == apperr.NotFound {
					return nil
				}
				return err
			}
			names[i] = g.Name
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return Grid{}, apperr.Internalf(op, err, "failed to load visit grid")
	}

	nameOf := make(map[primitive.ObjectID]string, len(groupIDs))
	for i, gid := range groupIDs {
		nameOf[gid] = names[i]
	}
	byGroup := map[primitive.ObjectID][]models.VisitReport{}
	for _, r := range reports {
		byGroup[r.GroupID] = append(byGroup[r.GroupID], r)
	}

	rows := make([]GridRow, 0, len(schedules))
	for i, v := range schedules {
		row := GridRow{
			ID:            RowID(v.ID.Hex(), v.GroupID.Hex(), month, i),
			ScheduleID:    v.ID.Hex(),
			GroupID:       v.GroupID.Hex(),
			GroupName:     nameOf[v.GroupID],
			Month:         month,
			ScheduledDate: v.ScheduledDate,
			Status:        v.Status,
			ReportStats: ReportStats{
				FieldServiceHours: decimal.Zero,
				AverageHours:      decimal.Zero,
				AttendanceRate:    decimal.Zero,
			},
		}
		if r, ok := matchReport(byGroup[v.GroupID], v.ScheduledDate); ok {
			row.Status = models.VisitCompleted
			row.ReportID = r.ID.Hex()
			row.ReportStats = Summarize(r)
		}
		rows = append(rows, row)
	}

	return Grid{Month: month, Rows: rows, Summary: summarizeRows(rows)}, nil
}

// matchReport returns the latest report whose visit date is date's day.
func matchReport(reports []models.VisitReport, date *time.Time) (models.VisitReport, bool) {
	if date == nil {
		return models.VisitReport{}, false
	}
	var (
		match models.VisitReport
		found bool
	)
	for _, r := range reports {
		if sameDay(r.VisitDate, *date) {
			match, found = r, true
		}
	}
	return match, found
}
