// internal/app/store/fieldservice/fieldservicestore.go
package fieldservicestore

import (
	"context"
	"time"

	"github.com/dalemusser/congregationhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store reads members' monthly field-service reports. Writes happen
// elsewhere; Upsert exists for imports and fixtures.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("field_service_reports")}
}

// ListByMembersMonth returns the reports filed for month by any of memberIDs.
func (s *Store) ListByMembersMonth(ctx context.Context, memberIDs []primitive.ObjectID, month string) ([]models.FieldServiceReport, error) {
	if len(memberIDs) == 0 {
		return []models.FieldServiceReport{}, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"member_id": bson.M{"$in": memberIDs}, "month": month})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.FieldServiceReport{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Upsert writes r keyed by (member_id, month).
func (s *Store) Upsert(ctx context.Context, r models.FieldServiceReport) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"member_id": r.MemberID, "month": r.Month},
		bson.M{
			"$set": bson.M{
				"hours":         r.Hours,
				"bible_studies": r.BibleStudies,
				"participated":  r.Participated,
			},
			"$setOnInsert": bson.M{"created_at": r.CreatedAt},
		},
		options.Update().SetUpsert(true),
	)
	return err
}
