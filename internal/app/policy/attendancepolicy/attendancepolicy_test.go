package attendancepolicy

import (
	"testing"
	"time"

	"github.com/dalemusser/committeehub/internal/app/system/apierr"
	"github.com/dalemusser/committeehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const today = "2025-03-05"

type actors struct {
	super   models.Member
	leader  models.Member
	admin   models.Member
	member  models.Member
	outside models.Member
}

func newActors() actors {
	return actors{
		super:   models.Member{ID: primitive.NewObjectID(), Role: models.RoleSuperAdmin},
		leader:  models.Member{ID: primitive.NewObjectID(), Role: models.RoleAdmin},
		admin:   models.Member{ID: primitive.NewObjectID(), Role: models.RoleAdmin},
		member:  models.Member{ID: primitive.NewObjectID(), Role: models.RoleMember},
		outside: models.Member{ID: primitive.NewObjectID(), Role: models.RoleMember},
	}
}

func event(teamIDs ...primitive.ObjectID) *models.Event {
	return &models.Event{
		ID:       primitive.NewObjectID(),
		DateFrom: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
		DateTo:   time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC),
		TeamIDs:  teamIDs,
	}
}

func TestDecide_Read(t *testing.T) {
	a := newActors()
	team := models.Team{ID: primitive.NewObjectID(), LeaderID: &a.leader.ID}

	tests := []struct {
		name  string
		actor models.Member
		want  *apierr.Error
	}{
		{"super admin", a.super, nil},
		{"leading admin", a.leader, nil},
		{"non-leading admin", a.admin, ErrNotTeamLeader},
		{"member", a.member, ErrMembersCannotRead},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(Request{Actor: tt.actor, Op: Read, Team: team, Today: today})
			assertDecision(t, got, tt.want)
		})
	}
}

func TestDecide_FullSubmit(t *testing.T) {
	a := newActors()
	team := models.Team{ID: primitive.NewObjectID(), LeaderID: &a.leader.ID}
	otherTeam := models.Team{ID: primitive.NewObjectID()}
	inEvent := event(team.ID)
	notInEvent := event(otherTeam.ID)

	tests := []struct {
		name  string
		actor models.Member
		ev    *models.Event
		date  string
		want  *apierr.Error
	}{
		{"super admin today", a.super, nil, today, nil},
		{"super admin past", a.super, nil, "2024-12-31", nil},
		{"leader today", a.leader, nil, today, nil},
		{"non-leading admin", a.admin, nil, today, ErrNotTeamLeader},
		{"member", a.member, nil, today, ErrNotTeamLeader},
		{"super admin tomorrow", a.super, nil, "2025-03-06", ErrFutureDate},
		{"leader tomorrow", a.leader, nil, "2025-03-06", ErrFutureDate},
		{"event in range", a.super, inEvent, today, nil},
		{"event first day", a.super, inEvent, "2025-03-01", nil},
		{"event before range", a.super, inEvent, "2025-02-28", ErrDateNotInEvent},
		{"team not in event", a.super, notInEvent, today, ErrTeamNotInEvent},
		{"non-leader checked before event", a.admin, notInEvent, today, ErrNotTeamLeader},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(Request{Actor: tt.actor, Op: FullSubmit, Team: team, Event: tt.ev, Date: tt.date, Today: today})
			assertDecision(t, got, tt.want)
		})
	}
}

func TestDecide_FullSubmit_EventWindow(t *testing.T) {
	a := newActors()
	team := models.Team{ID: primitive.NewObjectID()}
	ev := event(team.ID)

	// Today is after the event, so only the event range applies.
	got := Decide(Request{Actor: a.super, Op: FullSubmit, Team: team, Event: ev, Date: "2025-03-11", Today: "2025-03-20"})
	assertDecision(t, got, ErrDateNotInEvent)

	got = Decide(Request{Actor: a.super, Op: FullSubmit, Team: team, Event: ev, Date: "2025-03-05", Today: "2025-03-20"})
	assertDecision(t, got, nil)
}

func TestDecide_SelfSubmit(t *testing.T) {
	a := newActors()
	team := models.Team{ID: primitive.NewObjectID(), MemberIDs: []primitive.ObjectID{a.member.ID}}
	roster := []primitive.ObjectID{a.member.ID}
	inEvent := event(team.ID)
	notInEvent := event(primitive.NewObjectID())
	pastEvent := &models.Event{
		DateFrom: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		DateTo:   time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		TeamIDs:  []primitive.ObjectID{team.ID},
	}

	tests := []struct {
		name   string
		actor  models.Member
		ev     *models.Event
		date   string
		roster []primitive.ObjectID
		want   *apierr.Error
	}{
		{"member today", a.member, nil, today, roster, nil},
		{"admin uses self path", a.leader, nil, today, roster, ErrMembersOnly},
		{"super admin uses self path", a.super, nil, today, roster, ErrMembersOnly},
		{"yesterday", a.member, nil, "2025-03-04", roster, ErrNotToday},
		{"tomorrow", a.member, nil, "2025-03-06", roster, ErrNotToday},
		{"not on roster", a.outside, nil, today, roster, ErrNotInTeam},
		{"event ok", a.member, inEvent, today, roster, nil},
		{"team not in event", a.member, notInEvent, today, roster, ErrTeamNotInEvent},
		{"event not running today", a.member, pastEvent, today, roster, ErrDateNotInEvent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(Request{Actor: tt.actor, Op: SelfSubmit, Team: team, Event: tt.ev, Date: tt.date, Today: today, Roster: tt.roster})
			assertDecision(t, got, tt.want)
		})
	}
}

func TestDecide_UnknownRole(t *testing.T) {
	actor := models.Member{ID: primitive.NewObjectID(), Role: models.Role("guest")}
	for _, op := range []Operation{Read, FullSubmit, SelfSubmit, IssueLink} {
		t.Run(op.String(), func(t *testing.T) {
			got := Decide(Request{Actor: actor, Op: op, Today: today, Date: today})
			assertDecision(t, got, ErrUnknownRole)
		})
	}
}

func TestDecide_IssueLink(t *testing.T) {
	a := newActors()
	team := models.Team{ID: primitive.NewObjectID(), LeaderID: &a.leader.ID}

	tests := []struct {
		name  string
		actor models.Member
		want  *apierr.Error
	}{
		{"super admin", a.super, nil},
		{"leading admin", a.leader, nil},
		{"non-leading admin", a.admin, ErrNotTeamLeader},
		{"member", a.member, ErrNotTeamLeader},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDecision(t, Decide(Request{Actor: tt.actor, Op: IssueLink, Team: team}), tt.want)
		})
	}
}

func TestReadScope(t *testing.T) {
	tests := []struct {
		role models.Role
		want Scope
	}{
		{models.RoleSuperAdmin, ScopeAllTeams},
		{models.RoleAdmin, ScopeLedTeams},
		{models.RoleMember, ScopeNone},
		{models.Role("guest"), ScopeNone},
	}
	for _, tt := range tests {
		if got := ReadScope(tt.role); got != tt.want {
			t.Errorf("ReadScope(%q) = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestEventWindow_Location(t *testing.T) {
	ev := models.Event{
		DateFrom: time.Date(2025, 3, 1, 22, 0, 0, 0, time.UTC),
		DateTo:   time.Date(2025, 3, 2, 22, 0, 0, 0, time.UTC),
	}
	from, to := EventWindow(ev, time.FixedZone("plus3", 3*60*60))
	if from != "2025-03-02" || to != "2025-03-03" {
		t.Errorf("EventWindow = %s..%s, want 2025-03-02..2025-03-03", from, to)
	}
}

func assertDecision(t *testing.T, got, want *apierr.Error) {
	t.Helper()
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}
