// internal/domain/models/visitschedule.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VisitSchedule is one planned or completed supervisory visit to a group.
//
// NOTE:
//   - The natural key is (group_id, month, scheduled_date). Several records
//     may exist for one (group_id, month); each is a separate visit attempt.
//   - A record without ScheduledDate is pending. At most one pending record
//     exists per (group_id, month).
type VisitSchedule struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID       primitive.ObjectID `bson:"group_id" json:"group_id"`
	Month         string             `bson:"month" json:"month"` // YYYY-MM
	ScheduledDate *time.Time         `bson:"scheduled_date" json:"scheduled_date,omitempty"`
	Status        VisitStatus        `bson:"status" json:"status"`
	CompletedDate *time.Time         `bson:"completed_date,omitempty" json:"completed_date,omitempty"`

	CreatedBy     primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedByName string             `bson:"created_by_name" json:"created_by_name"`
	UpdatedBy     primitive.ObjectID `bson:"updated_by" json:"updated_by"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
