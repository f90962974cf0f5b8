// internal/domain/models/visitreport.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RosterEntry is one member's state at the time of a visit. The snapshot is
// authoritative: it is not re-validated against current group membership.
type RosterEntry struct {
	MemberID       primitive.ObjectID `bson:"member_id" json:"member_id"`
	Name           string             `bson:"name" json:"name"`
	Present        bool               `bson:"present" json:"present"`
	BibleStudy     bool               `bson:"bible_study" json:"bible_study"`
	MinistryActive bool               `bson:"ministry_active" json:"ministry_active"`

	// Filled in at submission from the member's field-service report for
	// the same month.
	FieldServiceHours float64 `bson:"field_service_hours" json:"field_service_hours"`
	SubmittedReport   bool    `bson:"submitted_report" json:"submitted_report"`
}

// VisitReport is the submitted outcome of one visit.
type VisitReport struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID        primitive.ObjectID `bson:"group_id" json:"group_id"`
	Month          string             `bson:"month" json:"month"`
	VisitDate      time.Time          `bson:"visit_date" json:"visit_date"`
	Roster         []RosterEntry      `bson:"roster" json:"roster"`
	Observations   string             `bson:"observations" json:"observations"`
	FollowUpNeeded bool               `bson:"follow_up_needed" json:"follow_up_needed"`

	SubmittedBy     primitive.ObjectID `bson:"submitted_by" json:"submitted_by"`
	SubmittedByName string             `bson:"submitted_by_name" json:"submitted_by_name"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
