// internal/domain/models/attendancelink.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AttendanceLink lets anyone holding its secret submit attendance for one
// team until it expires. Only a hash of the secret is stored.
type AttendanceLink struct {
	ID         primitive.ObjectID  `bson:"_id" json:"id"`
	TeamID     primitive.ObjectID  `bson:"team_id" json:"teamId"`
	SecretHash string              `bson:"secret_hash" json:"-"`
	ExpiresAt  time.Time           `bson:"expires_at" json:"expiresAt"`
	CreatedBy  *primitive.ObjectID `bson:"created_by,omitempty" json:"createdBy,omitempty"`
	CreatedAt  time.Time           `bson:"created_at" json:"createdAt"`
}
