// internal/domain/models/attendance.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubmittedByLink marks records last written through a secure link.
const SubmittedByLink = "link"

// AttendanceRecord holds who was present or absent for one team on one
// civil date, optionally scoped to an event.
//
// The record key is (team_id, date, event_key). EventKey is the event id
// hex, or empty for ad-hoc attendance.
type AttendanceRecord struct {
	ID          primitive.ObjectID   `bson:"_id" json:"id"`
	EventID     *primitive.ObjectID  `bson:"event_id,omitempty" json:"eventId,omitempty"`
	EventKey    string               `bson:"event_key" json:"-"`
	TeamID      primitive.ObjectID   `bson:"team_id" json:"teamId"`
	Date        string               `bson:"date" json:"date"`
	SubmittedBy string               `bson:"submitted_by" json:"submittedBy"`
	PresentIDs  []primitive.ObjectID `bson:"present_ids" json:"presentIds"`
	AbsentIDs   []primitive.ObjectID `bson:"absent_ids" json:"absentIds"`
	StartTime   string               `bson:"start_time,omitempty" json:"startTime,omitempty"`
	EndTime     string               `bson:"end_time,omitempty" json:"endTime,omitempty"`
	Notes       string               `bson:"notes,omitempty" json:"notes,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// EventKey returns the key component stored for an optional event id.
func EventKey(eventID *primitive.ObjectID) string {
	if eventID == nil {
		return ""
	}
	return eventID.Hex()
}
