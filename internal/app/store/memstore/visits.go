package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/congregationhub/internal/app/system/apperr"
	"github.com/dalemusser/congregationhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Schedules is the in-memory visit schedule store. It enforces the same
// (group_id, month, scheduled_date) uniqueness as the Mongo index.
type Schedules struct {
	mu   sync.RWMutex
	byID map[primitive.ObjectID]models.VisitSchedule

	// FailUpdate, when set, is returned by Update. Tests use it to force
	// a failure partway through a multi-store operation.
	FailUpdate error
}

func NewSchedules() *Schedules {
	return &Schedules{byID: make(map[primitive.ObjectID]models.VisitSchedule)}
}

func (s *Schedules) snapshot() func() {
	s.mu.RLock()
	saved := cloneMap(s.byID)
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		s.byID = saved
		s.mu.Unlock()
	}
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func sameKey(v models.VisitSchedule, groupID primitive.ObjectID, month string, date *time.Time) bool {
	return v.GroupID == groupID && v.Month == month && sameDate(v.ScheduledDate, date)
}

func (s *Schedules) conflictLocked(v models.VisitSchedule) bool {
	for id, other := range s.byID {
		if id != v.ID && sameKey(other, v.GroupID, v.Month, v.ScheduledDate) {
			return true
		}
	}
	return false
}

func (s *Schedules) GetByID(_ context.Context, id primitive.ObjectID) (models.VisitSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.byID[id]
	if !ok {
		return models.VisitSchedule{}, apperr.ErrScheduleNotFound.With("memstore.Schedules.GetByID")
	}
	return v, nil
}

func (s *Schedules) FindByKey(_ context.Context, groupID primitive.ObjectID, month string, date *time.Time) (models.VisitSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.byID {
		if sameKey(v, groupID, month, date) {
			return v, nil
		}
	}
	return models.VisitSchedule{}, apperr.ErrScheduleNotFound.With("memstore.Schedules.FindByKey")
}

func (s *Schedules) Insert(_ context.Context, v models.VisitSchedule) (models.VisitSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	if s.conflictLocked(v) {
		return models.VisitSchedule{}, apperr.ErrDuplicate.With("memstore.Schedules.Insert")
	}
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	s.byID[v.ID] = v
	return v, nil
}

func (s *Schedules) Update(_ context.Context, v models.VisitSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailUpdate != nil {
		return s.FailUpdate
	}
	if _, ok := s.byID[v.ID]; !ok {
		return apperr.ErrScheduleNotFound.With("memstore.Schedules.Update")
	}
	if s.conflictLocked(v) {
		return apperr.ErrDuplicate.With("memstore.Schedules.Update")
	}
	v.UpdatedAt = time.Now().UTC()
	s.byID[v.ID] = v
	return nil
}

func (s *Schedules) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return 0, nil
	}
	delete(s.byID, id)
	return 1, nil
}

func (s *Schedules) list(keep func(models.VisitSchedule) bool) []models.VisitSchedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.VisitSchedule{}
	for _, v := range s.byID {
		if keep(v) {
			out = append(out, v)
		}
	}
	// pending (nil date) first, like Mongo's null ordering
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].ScheduledDate, out[j].ScheduledDate
		switch {
		case a == nil && b != nil:
			return true
		case a != nil && b == nil:
			return false
		case a != nil && b != nil && !a.Equal(*b):
			return a.Before(*b)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out
}

func (s *Schedules) ListByCreatorMonth(_ context.Context, createdBy primitive.ObjectID, month string) ([]models.VisitSchedule, error) {
	return s.list(func(v models.VisitSchedule) bool { return v.CreatedBy == createdBy && v.Month == month }), nil
}

func (s *Schedules) ListByGroupMonth(_ context.Context, groupID primitive.ObjectID, month string) ([]models.VisitSchedule, error) {
	return s.list(func(v models.VisitSchedule) bool { return v.GroupID == groupID && v.Month == month }), nil
}

// Reports is the in-memory visit report store.
type Reports struct {
	mu   sync.RWMutex
	byID map[primitive.ObjectID]models.VisitReport

	// FailInsert, when set, is returned by Insert.
	FailInsert error
}

func NewReports() *Reports {
	return &Reports{byID: make(map[primitive.ObjectID]models.VisitReport)}
}

func (s *Reports) snapshot() func() {
	s.mu.RLock()
	saved := cloneMap(s.byID)
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		s.byID = saved
		s.mu.Unlock()
	}
}

func (s *Reports) Insert(_ context.Context, r models.VisitReport) (models.VisitReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailInsert != nil {
		return models.VisitReport{}, s.FailInsert
	}
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	if r.Roster == nil {
		r.Roster = []models.RosterEntry{}
	}
	now := time.Now().UTC()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	s.byID[r.ID] = r
	return r, nil
}

func (s *Reports) GetByID(_ context.Context, id primitive.ObjectID) (models.VisitReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[id]
	if !ok {
		return models.VisitReport{}, apperr.ErrReportNotFound.With("memstore.Reports.GetByID")
	}
	return r, nil
}

func (s *Reports) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return 0, nil
	}
	delete(s.byID, id)
	return 1, nil
}

func (s *Reports) list(keep func(models.VisitReport) bool) []models.VisitReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.VisitReport{}
	for _, r := range s.byID {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].VisitDate.Equal(out[j].VisitDate) {
			return out[i].VisitDate.Before(out[j].VisitDate)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out
}

func (s *Reports) ListByGroupMonth(_ context.Context, groupID primitive.ObjectID, month string) ([]models.VisitReport, error) {
	return s.list(func(r models.VisitReport) bool { return r.GroupID == groupID && r.Month == month }), nil
}

func (s *Reports) ListByGroupsMonth(_ context.Context, groupIDs []primitive.ObjectID, month string) ([]models.VisitReport, error) {
	want := make(map[primitive.ObjectID]bool, len(groupIDs))
	for _, id := range groupIDs {
		want[id] = true
	}
	return s.list(func(r models.VisitReport) bool { return want[r.GroupID] && r.Month == month }), nil
}

// FieldService is the in-memory field-service report store, keyed by
// (member, month).
type FieldService struct {
	mu   sync.RWMutex
	rows map[fsKey]models.FieldServiceReport

	// FailList, when set, is returned by ListByMembersMonth.
	FailList error
}

type fsKey struct {
	member primitive.ObjectID
	month  string
}

func NewFieldService() *FieldService {
	return &FieldService{rows: make(map[fsKey]models.FieldServiceReport)}
}

func (s *FieldService) snapshot() func() {
	s.mu.RLock()
	saved := cloneMap(s.rows)
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		s.rows = saved
		s.mu.Unlock()
	}
}

func (s *FieldService) Upsert(_ context.Context, r models.FieldServiceReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := fsKey{member: r.MemberID, month: r.Month}
	if prev, ok := s.rows[k]; ok {
		r.ID = prev.ID
		r.CreatedAt = prev.CreatedAt
	} else {
		if r.ID.IsZero() {
			r.ID = primitive.NewObjectID()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now().UTC()
		}
	}
	s.rows[k] = r
	return nil
}

func (s *FieldService) ListByMembersMonth(_ context.Context, memberIDs []primitive.ObjectID, month string) ([]models.FieldServiceReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.FailList != nil {
		return nil, s.FailList
	}
	out := []models.FieldServiceReport{}
	for _, id := range memberIDs {
		if r, ok := s.rows[fsKey{member: id, month: month}]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}
