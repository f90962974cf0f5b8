// internal/app/store/visitschedules/schedulestore.go
package schedulestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/congregationhub/internal/app/system/apperr"
	"github.com/dalemusser/congregationhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists visit schedule records. The unique index on
// (group_id, month, scheduled_date) is created by indexes.EnsureAll.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("visit_schedules")}
}

func keyFilter(groupID primitive.ObjectID, month string, date *time.Time) bson.M {
	f := bson.M{"group_id": groupID, "month": month}
	if date == nil {
		f["scheduled_date"] = nil
	} else {
		f["scheduled_date"] = date.UTC()
	}
	return f
}

func (s *Store) findOne(ctx context.Context, op string, filter bson.M) (models.VisitSchedule, error) {
	var v models.VisitSchedule
	if err := s.c.FindOne(ctx, filter).Decode(&v); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.VisitSchedule{}, apperr.ErrScheduleNotFound.With(op)
		}
		return models.VisitSchedule{}, err
	}
	return v, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.VisitSchedule, error) {
	return s.findOne(ctx, "schedulestore.GetByID", bson.M{"_id": id})
}

// FindByKey looks a record up by its natural key. A nil date matches the
// pending record for (groupID, month).
func (s *Store) FindByKey(ctx context.Context, groupID primitive.ObjectID, month string, date *time.Time) (models.VisitSchedule, error) {
	return s.findOne(ctx, "schedulestore.FindByKey", keyFilter(groupID, month, date))
}

// Insert creates v. It returns apperr.ErrDuplicate if another record with
// the same natural key already exists.
func (s *Store) Insert(ctx context.Context, v models.VisitSchedule) (models.VisitSchedule, error) {
	now := time.Now().UTC()
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	v.CreatedAt = now
	v.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, v); err != nil {
		if wafflemongo.IsDup(err) {
			return models.VisitSchedule{}, apperr.ErrDuplicate.Wrap("schedulestore.Insert", err)
		}
		return models.VisitSchedule{}, err
	}
	return v, nil
}

// Update replaces the stored record with v (matched by ID).
func (s *Store) Update(ctx context.Context, v models.VisitSchedule) error {
	v.UpdatedAt = time.Now().UTC()
	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": v.ID}, v)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return apperr.ErrDuplicate.Wrap("schedulestore.Update", err)
		}
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.ErrScheduleNotFound.With("schedulestore.Update")
	}
	return nil
}

// Delete removes a record by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.VisitSchedule, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "scheduled_date", Value: 1},
		{Key: "_id", Value: 1},
	})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.VisitSchedule{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByCreatorMonth returns the records createdBy authored for month,
// pending records first, then by date.
func (s *Store) ListByCreatorMonth(ctx context.Context, createdBy primitive.ObjectID, month string) ([]models.VisitSchedule, error) {
	return s.list(ctx, bson.M{"created_by": createdBy, "month": month})
}

// ListByGroupMonth returns every visit attempt for (groupID, month).
func (s *Store) ListByGroupMonth(ctx context.Context, groupID primitive.ObjectID, month string) ([]models.VisitSchedule, error) {
	return s.list(ctx, bson.M{"group_id": groupID, "month": month})
}
