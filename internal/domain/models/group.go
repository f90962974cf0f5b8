// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a field-service group: the destination bucket for members and
// territories.
//
// NOTE:
//   - Membership is not embedded on Group. A member or territory points at
//     its group (members.group_id, territories.assigned_group).
//   - Groups are created and deleted independently of distribution runs.
type Group struct {
	ID         primitive.ObjectID  `bson:"_id" json:"id"`
	Name       string              `bson:"name" json:"name"`
	NameCI     string              `bson:"name_ci" json:"name_ci"`
	OverseerID *primitive.ObjectID `bson:"overseer_id,omitempty" json:"overseer_id,omitempty"`

	Status string `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
