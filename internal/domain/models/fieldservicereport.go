// internal/domain/models/fieldservicereport.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldServiceReport is a member's monthly ministry report. Exactly one
// document per (member_id, month).
type FieldServiceReport struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MemberID     primitive.ObjectID `bson:"member_id" json:"member_id"`
	Month        string             `bson:"month" json:"month"` // YYYY-MM
	Hours        float64            `bson:"hours" json:"hours"`
	BibleStudies int                `bson:"bible_studies" json:"bible_studies"`
	Participated bool               `bson:"participated" json:"participated"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}
