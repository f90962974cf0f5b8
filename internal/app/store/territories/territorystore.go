// internal/app/store/territories/territorystore.go
package territorystore

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/congregationhub/internal/app/store/roster"
	"github.com/dalemusser/congregationhub/internal/app/system/apperr"
	"github.com/dalemusser/congregationhub/internal/domain/distribution"
	"github.com/dalemusser/congregationhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const groupField = "assigned_group"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("territories")}
}

// ToEntity projects a territory onto the fields the distribution engine reads.
func ToEntity(t models.Territory) distribution.Entity {
	name := t.Number
	if t.Name != "" {
		name = t.Number + " " + t.Name
	}
	return distribution.Entity{
		ID:         t.ID.Hex(),
		Name:       name,
		GroupID:    roster.HexOrEmpty(t.AssignedGroup),
		Difficulty: strings.ToLower(t.Difficulty),
		Households: t.Households,
	}
}

func (s *Store) Create(ctx context.Context, t models.Territory) (models.Territory, error) {
	t.Number = strings.TrimSpace(t.Number)
	if t.Number == "" {
		return models.Territory{}, apperr.Validationf("territorystore.Create", "territory number is required")
	}
	now := time.Now().UTC()
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Territory{}, err
	}
	return t, nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]distribution.Entity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "number", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ts []models.Territory
	if err := cur.All(ctx, &ts); err != nil {
		return nil, err
	}
	out := make([]distribution.Entity, 0, len(ts))
	for _, t := range ts {
		out = append(out, ToEntity(t))
	}
	return out, nil
}

// ListEntities returns every territory ordered by number.
func (s *Store) ListEntities(ctx context.Context) ([]distribution.Entity, error) {
	return s.find(ctx, bson.M{})
}

// FindEntities returns the territories whose ids resolve.
func (s *Store) FindEntities(ctx context.Context, ids []string) ([]distribution.Entity, error) {
	oids := roster.ParseIDs(ids)
	if len(oids) == 0 {
		return []distribution.Entity{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": oids}})
}

// Apply commits placements to territories.assigned_group.
func (s *Store) Apply(ctx context.Context, placements []distribution.Placement) (int64, error) {
	return roster.Apply(ctx, s.c, groupField, placements)
}

// ClearGroup unassigns every territory held by groupID.
func (s *Store) ClearGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	return roster.ClearBucket(ctx, s.c, groupField, groupID)
}
