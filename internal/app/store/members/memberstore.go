// internal/app/store/members/memberstore.go
package memberstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/congregationhub/internal/app/store/roster"
	"github.com/dalemusser/congregationhub/internal/app/system/apperr"
	"github.com/dalemusser/congregationhub/internal/domain/distribution"
	"github.com/dalemusser/congregationhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const groupField = "group_id"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("members")}
}

// ToEntity projects a member onto the fields the distribution engine reads.
func ToEntity(m models.Member) distribution.Entity {
	return distribution.Entity{
		ID:           m.ID.Hex(),
		Name:         m.FullName,
		GroupID:      roster.HexOrEmpty(m.GroupID),
		Gender:       m.Gender,
		Pioneer:      m.IsPioneer(),
		Privileges:   m.Privileges,
		FamilyHead:   m.FamilyHead,
		FamilyHeadID: roster.HexOrEmpty(m.FamilyHeadID),
	}
}

func (s *Store) Create(ctx context.Context, m models.Member) (models.Member, error) {
	m.FullName = strings.TrimSpace(m.FullName)
	if m.FullName == "" {
		return models.Member{}, apperr.Validationf("memberstore.Create", "full name is required")
	}
	now := time.Now().UTC()
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	m.FullNameCI = text.Fold(m.FullName)
	m.CreatedAt = now
	m.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Member{}, err
	}
	return m, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Member, error) {
	var m models.Member
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Member{}, apperr.ErrEntityNotFound.With("memberstore.GetByID")
		}
		return models.Member{}, err
	}
	return m, nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]distribution.Entity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []distribution.Entity{}
	for cur.Next(ctx) {
		var m models.Member
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out = append(out, ToEntity(m))
	}
	return out, cur.Err()
}

// ListEntities returns the full roster in name order.
func (s *Store) ListEntities(ctx context.Context) ([]distribution.Entity, error) {
	return s.find(ctx, bson.M{})
}

// FindEntities returns the members whose ids resolve. Unknown and malformed
// ids are omitted.
func (s *Store) FindEntities(ctx context.Context, ids []string) ([]distribution.Entity, error) {
	oids := roster.ParseIDs(ids)
	if len(oids) == 0 {
		return []distribution.Entity{}, nil
	}
	return s.find(ctx, bson.M{"_id": bson.M{"$in": oids}})
}

// Apply commits placements to members.group_id.
func (s *Store) Apply(ctx context.Context, placements []distribution.Placement) (int64, error) {
	return roster.Apply(ctx, s.c, groupField, placements)
}

// ClearGroup unassigns every member of groupID.
func (s *Store) ClearGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	return roster.ClearBucket(ctx, s.c, groupField, groupID)
}
