// internal/app/store/visitreports/reportstore.go
package reportstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/congregationhub/internal/app/system/apperr"
	"github.com/dalemusser/congregationhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("visit_reports")}
}

func (s *Store) Insert(ctx context.Context, r models.VisitReport) (models.VisitReport, error) {
	now := time.Now().UTC()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	if r.Roster == nil {
		r.Roster = []models.RosterEntry{}
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		return models.VisitReport{}, err
	}
	return r, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.VisitReport, error) {
	var r models.VisitReport
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.VisitReport{}, apperr.ErrReportNotFound.With("reportstore.GetByID")
		}
		return models.VisitReport{}, err
	}
	return r, nil
}

// Delete removes a report by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.VisitReport, error) {
	opts := options.Find().SetSort(bson.D{{Key: "visit_date", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.VisitReport{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByGroupMonth returns the reports for (groupID, month) by visit date.
func (s *Store) ListByGroupMonth(ctx context.Context, groupID primitive.ObjectID, month string) ([]models.VisitReport, error) {
	return s.list(ctx, bson.M{"group_id": groupID, "month": month})
}

// ListByGroupsMonth returns the reports for any of groupIDs in month.
func (s *Store) ListByGroupsMonth(ctx context.Context, groupIDs []primitive.ObjectID, month string) ([]models.VisitReport, error) {
	if len(groupIDs) == 0 {
		return []models.VisitReport{}, nil
	}
	return s.list(ctx, bson.M{"group_id": bson.M{"$in": groupIDs}, "month": month})
}
