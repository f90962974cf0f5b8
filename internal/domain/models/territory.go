// internal/domain/models/territory.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Territory is a geographic unit worked by one group at a time.
type Territory struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Number        string              `bson:"number" json:"number"`
	Name          string              `bson:"name" json:"name"`
	Difficulty    string              `bson:"difficulty,omitempty" json:"difficulty,omitempty"` // hard | medium | easy
	Households    int                 `bson:"households" json:"households"`
	AssignedGroup *primitive.ObjectID `bson:"assigned_group,omitempty" json:"assigned_group,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
