package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMember_DisplayName(t *testing.T) {
	id := primitive.NewObjectID()
	tests := []struct {
		name string
		m    Member
		want string
	}{
		{"composed", Member{Title: "bhai", FirstName: "Ali", LastName: "Hussain", Name: "ignored"}, "bhai Ali Hussain"},
		{"first only", Member{FirstName: "Ali"}, "Ali"},
		{"stored name", Member{Name: "Ali H"}, "Ali H"},
		{"email", Member{Email: "ali@example.com"}, "ali@example.com"},
		{"id", Member{ID: id}, id.Hex()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestComposeName_SkipsBlanks(t *testing.T) {
	if got := ComposeName("", " Sara ", ""); got != "Sara" {
		t.Errorf("ComposeName = %q, want %q", got, "Sara")
	}
}

func TestEvent_OverrideFor(t *testing.T) {
	teamID := primitive.NewObjectID()
	empty := []primitive.ObjectID{}
	ev := Event{
		TeamIDs:       []primitive.ObjectID{teamID},
		TeamOverrides: map[string]TeamOverride{teamID.Hex(): {MemberIDs: &empty}},
	}
	if !ev.IncludesTeam(teamID) {
		t.Fatal("expected event to include team")
	}
	o, ok := ev.OverrideFor(teamID)
	if !ok || o.MemberIDs == nil {
		t.Fatal("expected override with member list")
	}
	if len(*o.MemberIDs) != 0 {
		t.Errorf("expected empty override roster, got %d", len(*o.MemberIDs))
	}
	if _, ok := ev.OverrideFor(primitive.NewObjectID()); ok {
		t.Error("unexpected override for unknown team")
	}
}
