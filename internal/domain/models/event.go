// internal/domain/models/event.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TeamOverride adjusts a team for one event only.
//
// A non-nil MemberIDs replaces the team roster for that event, even when
// it points at an empty list.
type TeamOverride struct {
	MemberIDs *[]primitive.ObjectID `bson:"member_ids,omitempty" json:"memberIds,omitempty"`
	LeaderID  *primitive.ObjectID   `bson:"leader_id,omitempty" json:"leaderId,omitempty"`
}

// Event is a dated occasion that one or more teams take part in.
// TeamOverrides is keyed by team id hex.
type Event struct {
	ID               primitive.ObjectID      `bson:"_id" json:"id"`
	Name             string                  `bson:"name" json:"name"`
	DateFrom         time.Time               `bson:"date_from" json:"dateFrom"`
	DateTo           time.Time               `bson:"date_to" json:"dateTo"`
	TeamIDs          []primitive.ObjectID    `bson:"team_ids" json:"teamIds"`
	TeamOverrides    map[string]TeamOverride `bson:"team_overrides,omitempty" json:"teamOverrides,omitempty"`
	OverallStartTime string                  `bson:"overall_start_time,omitempty" json:"overallStartTime,omitempty"`
	OverallEndTime   string                  `bson:"overall_end_time,omitempty" json:"overallEndTime,omitempty"`
	CreatedBy        *primitive.ObjectID     `bson:"created_by,omitempty" json:"createdBy,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// IncludesTeam reports whether the event lists teamID.
func (e Event) IncludesTeam(teamID primitive.ObjectID) bool {
	return ContainsID(e.TeamIDs, teamID)
}

// OverrideFor returns the override for teamID, if any.
func (e Event) OverrideFor(teamID primitive.ObjectID) (TeamOverride, bool) {
	o, ok := e.TeamOverrides[teamID.Hex()]
	return o, ok
}
