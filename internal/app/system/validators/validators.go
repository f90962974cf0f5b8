// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/congregationhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	// Roster and groups
	ensure("groups", groupsSchema())
	ensure("members", membersSchema())
	ensure("territories", territoriesSchema())

	// Visits
	ensure("visit_schedules", visitSchedulesSchema())
	ensure("visit_reports", visitReportsSchema())
	ensure("field_service_reports", fieldServiceSchema())

	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// collectionExists returns true when <name> already exists.
// Uses ListCollectionNames to avoid "created collection" log when it didn't.
func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return false, err
	}
	for _, n := range names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		// NamespaceExists / already exists is fine (race or prior run).
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

/* ------------------------------ validators ------------------------------- */

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || strings.Contains(strings.ToLower(ce.Message), "no such command")) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 115 ||
		strings.Contains(strings.ToLower(ce.Message), "not implemented") ||
		strings.Contains(strings.ToLower(ce.Message), "not supported")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

var month = bson.M{"bsonType": "string", "pattern": "^[0-9]{4}-(0[1-9]|1[0-2])$"}

func groupsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "status"},
			"properties": bson.M{
				"name":        nonBlank,
				"name_ci":     nonBlank,
				"overseer_id": bson.M{"bsonType": "objectId"},
				"status":      bson.M{"enum": bson.A{"active"}},
			},
		},
	}
}

func membersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"full_name"},
			"properties": bson.M{
				"full_name":      nonBlank,
				"gender":         bson.M{"enum": bson.A{"Male", "Female", ""}},
				"pioneer_status": bson.M{"enum": bson.A{"regular", "auxiliary", "special", ""}},
				"privileges": bson.M{
					"bsonType": "array",
					"items":    bson.M{"bsonType": "string"},
				},
				"family_head":    bson.M{"bsonType": "bool"},
				"family_head_id": bson.M{"bsonType": "objectId"},
				"group_id":       bson.M{"bsonType": "objectId"},
			},
		},
	}
}

func territoriesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"number"},
			"properties": bson.M{
				"number":         nonBlank,
				"difficulty":     bson.M{"enum": bson.A{"hard", "medium", "easy", ""}},
				"households":     bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"assigned_group": bson.M{"bsonType": "objectId"},
			},
		},
	}
}

func visitSchedulesSchema() bson.M {
	// The status enum is the closed set the state machine accepts.
	statusEnum := bson.A{}
	for _, s := range []models.VisitStatus{models.VisitPending, models.VisitScheduled, models.VisitCompleted} {
		statusEnum = append(statusEnum, string(s))
	}

	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"group_id", "month", "status", "created_by"},
			"properties": bson.M{
				"group_id":        bson.M{"bsonType": "objectId"},
				"month":           month,
				"scheduled_date":  bson.M{"bsonType": bson.A{"date", "null"}},
				"status":          bson.M{"enum": statusEnum},
				"completed_date":  bson.M{"bsonType": bson.A{"date", "null"}},
				"created_by":      bson.M{"bsonType": "objectId"},
				"created_by_name": bson.M{"bsonType": "string"},
			},
		},
	}
}

func visitReportsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"group_id", "month", "visit_date", "submitted_by"},
			"properties": bson.M{
				"group_id":   bson.M{"bsonType": "objectId"},
				"month":      month,
				"visit_date": bson.M{"bsonType": "date"},
				"roster": bson.M{
					"bsonType": bson.A{"array", "null"},
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"member_id"},
						"properties": bson.M{
							"member_id":           bson.M{"bsonType": "objectId"},
							"field_service_hours": bson.M{"bsonType": bson.A{"double", "int", "long"}, "minimum": 0},
						},
					},
				},
				"observations":     bson.M{"bsonType": "string"},
				"follow_up_needed": bson.M{"bsonType": "bool"},
				"submitted_by":     bson.M{"bsonType": "objectId"},
			},
		},
	}
}

func fieldServiceSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"member_id", "month"},
			"properties": bson.M{
				"member_id":     bson.M{"bsonType": "objectId"},
				"month":         month,
				"hours":         bson.M{"bsonType": bson.A{"double", "int", "long"}, "minimum": 0},
				"bible_studies": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
			},
		},
	}
}
