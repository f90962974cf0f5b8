package visits

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/congregationhub/internal/app/store/audit"
	"github.com/dalemusser/congregationhub/internal/app/system/apperr"
	"github.com/dalemusser/congregationhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UpsertSchedule records a visit date for (groupID, month). It is
// idempotent by (group, month, date): repeating it only updates the
// record's metadata. A different date for the same group and month adds a
// separate visit attempt. An empty date keeps a single pending record for
// the month; a later dated call promotes that pending record.
func (s *Service) UpsertSchedule(ctx context.Context, actor models.Actor, groupID, month, date string) (models.VisitSchedule, error) {
	const op = "visits.UpsertSchedule"
	var result models.VisitSchedule

	err := s.audit.Track(ctx, actor, audit.CategoryVisit, audit.EventScheduleUpserted, func() (map[string]string, error) {
		m, err := parseMonth(op, month)
		if err != nil {
			return nil, err
		}
		var at *time.Time
		if date != "" {
			d, err := parseDate(op, "date", date, m)
			if err != nil {
				return nil, err
			}
			at = &d
		}
		g, err := s.resolveGroup(ctx, op, groupID)
		if err != nil {
			return nil, err
		}

		result, err = s.upsertSchedule(ctx, op, actor, g.ID, month, at)
		if err != nil {
			return nil, err
		}
		s.metrics.VisitEvent("schedule_upserted")
		return map[string]string{
			"schedule_id": result.ID.Hex(),
			"group_id":    g.ID.Hex(),
			"group_name":  g.Name,
			"month":       month,
			"date":        date,
			"status":      string(result.Status),
		}, nil
	})
	return result, err
}

func (s *Service) upsertSchedule(ctx context.Context, op string, actor models.Actor, groupID primitive.ObjectID, month string, at *time.Time) (models.VisitSchedule, error) {
	// One retry covers a concurrent insert of the same key losing the
	// unique index race.
	for attempt := 0; attempt < 2; attempt++ {
		existing, err := s.schedules.FindByKey(ctx, groupID, month, at)
		switch {
		case err == nil:
			if at != nil {
				if err := transition(op, &existing, models.EventDateSet, actor); err != nil {
					return models.VisitSchedule{}, err
				}
			}
			existing.UpdatedBy = actor.ID
			if err := s.schedules.Update(ctx, existing); err != nil {
				return models.VisitSchedule{}, classify(op, "failed to update visit schedule", err)
			}
			return existing, nil
		case apperr.KindOf(err) != apperr.NotFound:
			return models.VisitSchedule{}, classify(op, "failed to load visit schedule", err)
		}

		if at != nil {
			promoted, ok, err := s.promotePending(ctx, op, actor, groupID, month, *at, models.EventDateSet)
			if errors.Is(err, apperr.ErrDuplicate) {
				continue
			}
			if err != nil {
				return models.VisitSchedule{}, err
			}
			if ok {
				return promoted, nil
			}
		}

		status := models.VisitPending
		if at != nil {
			status = models.VisitScheduled
		}
		created, err := s.schedules.Insert(ctx, models.VisitSchedule{
			GroupID:       groupID,
			Month:         month,
			ScheduledDate: at,
			Status:        status,
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

// promotePending moves the pending record for (groupID, month), if any, to
// date by applying ev. ok is false when there is no pending record.
func (s *Service) promotePending(ctx context.Context, op string, actor models.Actor, groupID primitive.ObjectID, month string, date time.Time, ev models.VisitEvent) (models.VisitSchedule, bool, error) {
	pending, err := s.schedules.FindByKey(ctx, groupID, month, nil)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return models.VisitSchedule{}, false, nil
		}
		return models.VisitSchedule{}, false, classify(op, "failed to load visit schedule", err)
	}
	if err := transition(op, &pending, ev, actor); err != nil {
		return models.VisitSchedule{}, false, err
	}
	pending.ScheduledDate = &date
	if pending.Status == models.VisitCompleted {
		pending.CompletedDate = &date
	}
	if err := s.schedules.Update(ctx, pending); err != nil {
		return models.VisitSchedule{}, false, classify(op, "failed to update visit schedule", err)
	}
	return pending, true, nil
}

// DeleteSchedule removes a schedule record. Only its creator may delete it.
func (s *Service) DeleteSchedule(ctx context.Context, actor models.Actor, scheduleID string) error {
	const op = "visits.DeleteSchedule"
	return s.audit.Track(ctx, actor, audit.CategoryVisit, audit.EventScheduleDeleted, func() (map[string]string, error) {
		id, err := primitive.ObjectIDFromHex(scheduleID)
		if err != nil {
			return nil, apperr.ErrScheduleNotFound.With(op)
		}
		v, err := s.schedules.GetByID(ctx, id)
		if err != nil {
			return nil, classify(op, "failed to load visit schedule", err)
		}
		if v.CreatedBy != actor.ID {
			return nil, apperr.ErrUnauthorized.With(op)
		}
		if _, err := s.schedules.Delete(ctx, id); err != nil {
			return nil, apperr.Internalf(op, err, "failed to delete visit schedule")
		}
		s.metrics.VisitEvent("schedule_deleted")
		return map[string]string{
			"schedule_id": id.Hex(),
			"group_id":    v.GroupID.Hex(),
			"month":       v.Month,
			"status":      string(v.Status),
		}, nil
	})
}
