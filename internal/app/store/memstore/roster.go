package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	memberstore "github.com/dalemusser/congregationhub/internal/app/store/members"
	territorystore "github.com/dalemusser/congregationhub/internal/app/store/territories"
	"github.com/dalemusser/congregationhub/internal/app/system/apperr"
	"github.com/dalemusser/congregationhub/internal/domain/distribution"
	"github.com/dalemusser/congregationhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// entityTable is the shared roster storage for members and territories.
type entityTable[T any] struct {
	mu       sync.RWMutex
	byID     map[primitive.ObjectID]T
	toEntity func(T) distribution.Entity
	sortKey  func(T) string
	setGroup func(*T, *primitive.ObjectID)
	group    func(T) *primitive.ObjectID
}

func (t *entityTable[T]) snapshot() func() {
	t.mu.RLock()
	saved := cloneMap(t.byID)
	t.mu.RUnlock()
	return func() {
		t.mu.Lock()
		t.byID = saved
		t.mu.Unlock()
	}
}

func (t *entityTable[T]) sorted(keep func(primitive.ObjectID) bool) []distribution.Entity {
	type row struct {
		key string
		id  string
		e   distribution.Entity
	}
	rows := make([]row, 0, len(t.byID))
	for id, v := range t.byID {
		if keep != nil && !keep(id) {
			continue
		}
		rows = append(rows, row{key: t.sortKey(v), id: id.Hex(), e: t.toEntity(v)})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].key != rows[j].key {
			return rows[i].key < rows[j].key
		}
		return rows[i].id < rows[j].id
	})
	out := make([]distribution.Entity, len(rows))
	for i, r := range rows {
		out[i] = r.e
	}
	return out
}

func (t *entityTable[T]) ListEntities(_ context.Context) ([]distribution.Entity, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sorted(nil), nil
}

func (t *entityTable[T]) FindEntities(_ context.Context, ids []string) ([]distribution.Entity, error) {
	want := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			want[oid] = true
		}
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sorted(func(id primitive.ObjectID) bool { return want[id] }), nil
}

// Apply writes placements in order. Malformed or unknown ids are skipped.
func (t *entityTable[T]) Apply(_ context.Context, placements []distribution.Placement) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var matched int64
	for _, p := range placements {
		eid, err := primitive.ObjectIDFromHex(p.EntityID)
		if err != nil {
			continue
		}
		v, ok := t.byID[eid]
		if !ok {
			continue
		}
		var gid *primitive.ObjectID
		if p.BucketID != "" {
			oid, err := primitive.ObjectIDFromHex(p.BucketID)
			if err != nil {
				continue
			}
			gid = &oid
		}
		t.setGroup(&v, gid)
		t.byID[eid] = v
		matched++
	}
	return matched, nil
}

func (t *entityTable[T]) ClearGroup(_ context.Context, groupID primitive.ObjectID) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var n int64
	for id, v := range t.byID {
		if g := t.group(v); g != nil && *g == groupID {
			t.setGroup(&v, nil)
			t.byID[id] = v
			n++
		}
	}
	return n, nil
}

// Members is the in-memory member roster.
type Members struct {
	entityTable[models.Member]
}

func NewMembers() *Members {
	return &Members{entityTable[models.Member]{
		byID:     make(map[primitive.ObjectID]models.Member),
		toEntity: memberstore.ToEntity,
		sortKey:  func(m models.Member) string { return m.FullNameCI },
		setGroup: func(m *models.Member, g *primitive.ObjectID) { m.GroupID = g; m.UpdatedAt = time.Now().UTC() },
		group:    func(m models.Member) *primitive.ObjectID { return m.GroupID },
	}}
}

func (s *Members) Create(_ context.Context, m models.Member) (models.Member, error) {
	m.FullName = strings.TrimSpace(m.FullName)
	if m.FullName == "" {
		return models.Member{}, apperr.Validationf("memstore.Members.Create", "full name is required")
	}
	now := time.Now().UTC()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	m.FullNameCI = text.Fold(m.FullName)
	m.CreatedAt = now
	m.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[m.ID] = m
	return m, nil
}

func (s *Members) GetByID(_ context.Context, id primitive.ObjectID) (models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byID[id]
	if !ok {
		return models.Member{}, apperr.ErrEntityNotFound.With("memstore.Members.GetByID")
	}
	return m, nil
}

// Territories is the in-memory territory roster.
type Territories struct {
	entityTable[models.Territory]
}

func NewTerritories() *Territories {
	return &Territories{entityTable[models.Territory]{
		byID:     make(map[primitive.ObjectID]models.Territory),
		toEntity: territorystore.ToEntity,
		sortKey:  func(t models.Territory) string { return t.Number },
		setGroup: func(t *models.Territory, g *primitive.ObjectID) { t.AssignedGroup = g; t.UpdatedAt = time.Now().UTC() },
		group:    func(t models.Territory) *primitive.ObjectID { return t.AssignedGroup },
	}}
}

func (s *Territories) Create(_ context.Context, t models.Territory) (models.Territory, error) {
	t.Number = strings.TrimSpace(t.Number)
	if t.Number == "" {
		return models.Territory{}, apperr.Validationf("memstore.Territories.Create", "territory number is required")
	}
	now := time.Now().UTC()
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	t.CreatedAt = now
	t.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[t.ID] = t
	return t, nil
}
