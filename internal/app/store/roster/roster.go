// Package roster holds the write path shared by the member and territory
// stores: committing distribution placements to a bucket-reference field.
package roster

import (
	"context"
	"time"

	"github.com/dalemusser/congregationhub/internal/domain/distribution"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ParseIDs converts hex ids, dropping any that are malformed. A malformed
// id can never resolve, so callers treat it like a missing document.
func ParseIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		out = append(out, oid)
	}
	return out
}

// HexOrEmpty returns id's hex form, or "" for nil.
func HexOrEmpty(id *primitive.ObjectID) string {
	if id == nil {
		return ""
	}
	return id.Hex()
}

// Apply writes each placement to field as one unordered bulk write of
// per-entity updates. Each update is a plain $set (or $unset when BucketID
// is empty), so replaying a partially applied batch is safe. It returns the
// number of entities matched.
func Apply(ctx context.Context, c *mongo.Collection, field string, placements []distribution.Placement) (int64, error) {
	now := time.Now().UTC()
	writes := make([]mongo.WriteModel, 0, len(placements))
	for _, p := range placements {
		eid, err := primitive.ObjectIDFromHex(p.EntityID)
		if err != nil {
			continue
		}
		var update bson.M
		if p.BucketID == "" {
			update = bson.M{"$unset": bson.M{field: ""}, "$set": bson.M{"updated_at": now}}
		} else {
			gid, err := primitive.ObjectIDFromHex(p.BucketID)
			if err != nil {
				continue
			}
			update = bson.M{"$set": bson.M{field: gid, "updated_at": now}}
		}
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": eid}).
			SetUpdate(update))
	}
	if len(writes) == 0 {
		return 0, nil
	}

	res, err := c.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// ClearBucket unsets field on every document pointing at groupID.
func ClearBucket(ctx context.Context, c *mongo.Collection, field string, groupID primitive.ObjectID) (int64, error) {
	res, err := c.UpdateMany(ctx,
		bson.M{field: groupID},
		bson.M{"$unset": bson.M{field: ""}, "$set": bson.M{"updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
