// internal/domain/models/member.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member is a registered committee member. Email is the login key.
//
// TeamIDs mirrors teams.member_ids. Teams own membership; this field is
// maintained by the team store and can be rebuilt from the teams collection.
type Member struct {
	ID        primitive.ObjectID   `bson:"_id" json:"id"`
	Email     string               `bson:"email" json:"email"`
	Title     string               `bson:"title,omitempty" json:"title"`
	FirstName string               `bson:"first_name,omitempty" json:"firstName"`
	LastName  string               `bson:"last_name,omitempty" json:"lastName"`
	ITSNumber string               `bson:"its_number,omitempty" json:"itsNumber"`
	Name      string               `bson:"name" json:"name"`
	NameCI    string               `bson:"name_ci" json:"-"`
	Phone     string               `bson:"phone,omitempty" json:"phone"`
	Role      Role                 `bson:"role" json:"role"`
	TeamIDs   []primitive.ObjectID `bson:"team_ids" json:"teamIds"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// ComposeName joins title, first and last name, skipping blanks.
func ComposeName(title, first, last string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{title, first, last} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// DisplayName picks the first non-empty of the composed name, the stored
// name, the email and finally the id.
func (m Member) DisplayName() string {
	if n := ComposeName(m.Title, m.FirstName, m.LastName); n != "" {
		return n
	}
	if n := strings.TrimSpace(m.Name); n != "" {
		return n
	}
	if m.Email != "" {
		return m.Email
	}
	return m.ID.Hex()
}
