// internal/app/policy/attendancepolicy/attendancepolicy.go
package attendancepolicy

import (
	"time"

	"github.com/dalemusser/committeehub/internal/app/system/apierr"
	"github.com/dalemusser/committeehub/internal/app/system/civildate"
	"github.com/dalemusser/committeehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Operation is an attendance action subject to authorization.
type Operation int

const (
	// Read lists or expands attendance records for a team.
	Read Operation = iota
	// FullSubmit overwrites a team's record (leader or super admin).
	FullSubmit
	// SelfSubmit marks the caller present (members only).
	SelfSubmit
	// IssueLink creates a secure submission link for a team.
	IssueLink
)

func (op Operation) String() string {
	switch op {
	case Read:
		return "read"
	case FullSubmit:
		return "full_submit"
	case SelfSubmit:
		return "self_submit"
	case IssueLink:
		return "issue_link"
	}
	return "unknown"
}

// Denial reasons.
var (
	ErrMembersCannotRead = apierr.New(apierr.Forbidden, "members_cannot_read", "Members cannot view attendance records")
	ErrNotTeamLeader     = apierr.New(apierr.Forbidden, "not_team_leader", "Only team leader or super admin can access this team's attendance")
	ErrTeamNotInEvent    = apierr.New(apierr.Forbidden, "team_not_in_event", "Team not in this event")
	ErrDateNotInEvent    = apierr.New(apierr.Forbidden, "date_not_in_event_range", "Date not in event range")
	ErrFutureDate        = apierr.New(apierr.Forbidden, "future_date", "Cannot submit attendance for future dates")
	ErrMembersOnly       = apierr.New(apierr.Forbidden, "members_only", "Self attendance is only for members")
	ErrNotToday          = apierr.New(apierr.Forbidden, "not_today", "Members can only mark attendance for today")
	ErrNotInTeam         = apierr.New(apierr.Forbidden, "not_in_team", "You are not in this team")
	ErrUnknownRole       = apierr.New(apierr.Forbidden, "unknown_role", "Forbidden")
)

// Request is everything a decision needs. The caller loads the team and
// event beforehand; the policy itself does no I/O.
type Request struct {
	Actor models.Member
	Op    Operation
	Team  models.Team
	// Event is set when the action is scoped to an event.
	Event *models.Event
	// Date is the civil date being acted on (ignored for Read).
	Date string
	// Today is the server's current civil date.
	Today string
	// Roster is the effective roster for Team and Event (SelfSubmit only).
	Roster []primitive.ObjectID
	// Location resolves event instants to civil dates. Nil means UTC.
	Location *time.Location
}

// Decide evaluates the rules for req.Op in order and returns the first
// violation, or nil when the action is allowed.
func Decide(req Request) *apierr.Error {
	switch req.Op {
	case Read:
		return decideRead(req)
	case FullSubmit:
		return decideFull(req)
	case SelfSubmit:
		return decideSelf(req)
	case IssueLink:
		return decideLeader(req)
	}
	return ErrUnknownRole
}

// Scope describes which teams an actor may read.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeLedTeams
	ScopeAllTeams
)

// ReadScope returns the read scope for role.
func ReadScope(role models.Role) Scope {
	switch role {
	case models.RoleSuperAdmin:
		return ScopeAllTeams
	case models.RoleAdmin:
		return ScopeLedTeams
	case models.RoleMember:
		return ScopeNone
	}
	return ScopeNone
}

func decideRead(req Request) *apierr.Error {
	switch req.Actor.Role {
	case models.RoleSuperAdmin:
		return nil
	case models.RoleAdmin:
		if req.Team.LedBy(req.Actor.ID) {
			return nil
		}
		return ErrNotTeamLeader
	case models.RoleMember:
		return ErrMembersCannotRead
	}
	return ErrUnknownRole
}

// decideLeader allows super admins and the team's leading admin.
func decideLeader(req Request) *apierr.Error {
	switch req.Actor.Role {
	case models.RoleSuperAdmin:
		return nil
	case models.RoleAdmin:
		if req.Team.LedBy(req.Actor.ID) {
			return nil
		}
		return ErrNotTeamLeader
	case models.RoleMember:
		return ErrNotTeamLeader
	}
	return ErrUnknownRole
}

func decideFull(req Request) *apierr.Error {
	if err := decideLeader(req); err != nil {
		return err
	}

	if req.Event != nil {
		if err := checkEvent(req, req.Date); err != nil {
			return err
		}
	}

	if civildate.After(req.Date, req.Today) {
		return ErrFutureDate
	}
	return nil
}

func decideSelf(req Request) *apierr.Error {
	switch req.Actor.Role {
	case models.RoleMember:
	case models.RoleAdmin, models.RoleSuperAdmin:
		return ErrMembersOnly
	default:
		return ErrUnknownRole
	}

	if req.Date != req.Today {
		return ErrNotToday
	}
	if !models.ContainsID(req.Roster, req.Actor.ID) {
		return ErrNotInTeam
	}
	if req.Event != nil {
		if err := checkEvent(req, req.Today); err != nil {
			return err
		}
	}
	return nil
}

func checkEvent(req Request, date string) *apierr.Error {
	if !req.Event.IncludesTeam(req.Team.ID) {
		return ErrTeamNotInEvent
	}
	from, to := EventWindow(*req.Event, req.Location)
	if !civildate.Within(date, from, to) {
		return ErrDateNotInEvent
	}
	return nil
}

// EventWindow returns the event's first and last civil dates.
func EventWindow(ev models.Event, loc *time.Location) (from, to string) {
	return civildate.Of(ev.DateFrom, loc), civildate.Of(ev.DateTo, loc)
}
