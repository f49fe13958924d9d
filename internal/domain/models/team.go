// internal/domain/models/team.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Team is a named roster with an optional leader.
// DayOfWeek (0 = Sunday) is only set for wrap-up teams.
type Team struct {
	ID        primitive.ObjectID   `bson:"_id" json:"id"`
	Name      string               `bson:"name" json:"name"`
	NameCI    string               `bson:"name_ci" json:"-"`
	LeaderID  *primitive.ObjectID  `bson:"leader_id,omitempty" json:"leaderId"`
	MemberIDs []primitive.ObjectID `bson:"member_ids" json:"memberIds"`
	DayOfWeek *int                 `bson:"day_of_week,omitempty" json:"dayOfWeek,omitempty"`
	IsWrapUp  bool                 `bson:"is_wrap_up,omitempty" json:"isWrapUp,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// LedBy reports whether id is the team's leader.
func (t Team) LedBy(id primitive.ObjectID) bool {
	return t.LeaderID != nil && *t.LeaderID == id
}

// HasMember reports whether id is on the team's base roster.
func (t Team) HasMember(id primitive.ObjectID) bool {
	return ContainsID(t.MemberIDs, id)
}

// ContainsID reports whether ids contains id.
func ContainsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
