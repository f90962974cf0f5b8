package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/congregationhub/internal/app/system/apperr"
	"github.com/dalemusser/congregationhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Groups is the in-memory group store. Names are unique after folding.
type Groups struct {
	mu   sync.RWMutex
	byID map[primitive.ObjectID]models.Group
}

func NewGroups() *Groups {
	return &Groups{byID: make(map[primitive.ObjectID]models.Group)}
}

func (s *Groups) snapshot() func() {
	s.mu.RLock()
	saved := cloneMap(s.byID)
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		s.byID = saved
		s.mu.Unlock()
	}
}

func (s *Groups) Create(_ context.Context, g models.Group) (models.Group, error) {
	g.Name = strings.TrimSpace(g.Name)
	if g.Name == "" {
		return models.Group{}, apperr.Validationf("memstore.Groups.Create", "group name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	g.NameCI = text.Fold(g.Name)
	for _, existing := range s.byID {
		if existing.NameCI == g.NameCI {
			return models.Group{}, apperr.New(apperr.Conflict, "memstore.Groups.Create", "a group with this name already exists")
		}
	}
	now := time.Now().UTC()
	if g.ID.IsZero() {
		g.ID = primitive.NewObjectID()
	}
	if g.Status == "" {
		g.Status = "active"
	}
	g.CreatedAt = now
	g.UpdatedAt = now
	s.byID[g.ID] = g
	return g, nil
}

func (s *Groups) GetByID(_ context.Context, id primitive.ObjectID) (models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.byID[id]
	if !ok {
		return models.Group{}, apperr.ErrGroupNotFound.With("memstore.Groups.GetByID")
	}
	return g, nil
}

func (s *Groups) List(_ context.Context) ([]models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Group, 0, len(s.byID))
	for _, g := range s.byID {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NameCI != out[j].NameCI {
			return out[i].NameCI < out[j].NameCI
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out, nil
}

func (s *Groups) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return 0, nil
	}
	delete(s.byID, id)
	return 1, nil
}
