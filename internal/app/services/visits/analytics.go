package visits

import (
	"github.com/dalemusser/congregationhub/internal/domain/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ReportStats are the counts projected from one visit report.
type ReportStats struct {
	Present           int             `json:"present"`
	Total             int             `json:"total"`
	BibleStudy        int             `json:"bible_study"`
	MinistryActive    int             `json:"ministry_active"`
	FollowUpNeeded    bool            `json:"follow_up_needed"`
	FieldServiceHours decimal.Decimal `json:"field_service_hours"`
	AverageHours      decimal.Decimal `json:"average_hours"`
	AttendanceRate    decimal.Decimal `json:"attendance_rate"` // percent, one decimal place
}

// rate returns part/whole as a percentage rounded to one place, or zero
// when whole is zero.
func rate(part, whole int) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(part)).Mul(hundred).Div(decimal.NewFromInt(int64(whole))).Round(1)
}

// Summarize projects a report's roster into counts.
func Summarize(r models.VisitReport) ReportStats {
	st := ReportStats{
		Total:             len(r.Roster),
		FollowUpNeeded:    r.FollowUpNeeded,
		FieldServiceHours: decimal.Zero,
		AverageHours:      decimal.Zero,
	}
	for _, e := range r.Roster {
		if e.Present {
			st.Present++
		}
		if e.BibleStudy {
			st.BibleStudy++
		}
		if e.MinistryActive {
			st.MinistryActive++
		}
		st.FieldServiceHours = st.FieldServiceHours.Add(decimal.NewFromFloat(e.FieldServiceHours))
	}
	if st.Total > 0 {
		st.AverageHours = st.FieldServiceHours.Div(decimal.NewFromInt(int64(st.Total))).Round(1)
	}
	st.AttendanceRate = rate(st.Present, st.Total)
	return st
}

// GridSummary aggregates a month's grid rows.
type GridSummary struct {
	Visits            int             `json:"visits"`
	Pending           int             `json:"pending"`
	Scheduled         int             `json:"scheduled"`
	Completed         int             `json:"completed"`
	Present           int             `json:"present"`
	Total             int             `json:"total"`
	FollowUps         int             `json:"follow_ups"`
	FieldServiceHours decimal.Decimal `json:"field_service_hours"`
	AttendanceRate    decimal.Decimal `json:"attendance_rate"`
	CompletionRate    decimal.Decimal `json:"completion_rate"`
}

func summarizeRows(rows []GridRow) GridSummary {
	sum := GridSummary{Visits: len(rows), FieldServiceHours: decimal.Zero}
	for _, r := range rows {
		switch r.Status {
		case models.VisitPending:
			sum.Pending++
		case models.VisitScheduled:
			sum.Scheduled++
		case models.VisitCompleted:
			sum.Completed++
		}
		sum.Present += r.Present
		sum.Total += r.Total
		if r.FollowUpNeeded {
			sum.FollowUps++
		}
		sum.FieldServiceHours = sum.FieldServiceHours.Add(r.FieldServiceHours)
	}
	sum.AttendanceRate = rate(sum.Present, sum.Total)
	sum.CompletionRate = rate(sum.Completed, sum.Visits)
	return sum
}
