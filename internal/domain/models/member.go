// internal/domain/models/member.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member is a publisher on the congregation roster.
//
// NOTE:
//   - GroupID is a full overwrite on reassignment; a member belongs to at
//     most one group.
//   - FamilyHeadID links a family member to the member flagged FamilyHead.
type Member struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FullName      string              `bson:"full_name" json:"full_name"`
	FullNameCI    string              `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Gender        string              `bson:"gender" json:"gender"`             // Male | Female
	PioneerStatus string              `bson:"pioneer_status,omitempty" json:"pioneer_status,omitempty"`
	Privileges    []string            `bson:"privileges,omitempty" json:"privileges,omitempty"` // Elder | Ministerial Servant
	FamilyHead    bool                `bson:"family_head" json:"family_head"`
	FamilyHeadID  *primitive.ObjectID `bson:"family_head_id,omitempty" json:"family_head_id,omitempty"`
	GroupID       *primitive.ObjectID `bson:"group_id,omitempty" json:"group_id,omitempty"`
	Status        string              `bson:"status,omitempty" json:"status,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsPioneer reports whether the member holds any pioneer appointment.
func (m Member) IsPioneer() bool {
	switch m.PioneerStatus {
	case "regular", "auxiliary", "special":
		return true
	}
	return false
}
