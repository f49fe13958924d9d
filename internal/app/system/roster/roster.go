// Package roster computes the effective member list for a team, applying
// per-event overrides.
package roster

import (
	"context"
	"errors"

	"github.com/dalemusser/committeehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrTeamNotFound is returned when the team does not exist.
var ErrTeamNotFound = errors.New("team not found")

// TeamSource loads teams. Lookup returns (nil, nil) when the team is missing.
type TeamSource interface {
	Lookup(ctx context.Context, id primitive.ObjectID) (*models.Team, error)
}

// EventSource loads events. Lookup returns (nil, nil) when the event is missing.
type EventSource interface {
	Lookup(ctx context.Context, id primitive.ObjectID) (*models.Event, error)
}

// Resolver resolves effective rosters from the team and event directories.
type Resolver struct {
	teams  TeamSource
	events EventSource
}

// New returns a Resolver.
func New(teams TeamSource, events EventSource) *Resolver {
	return &Resolver{teams: teams, events: events}
}

// EffectiveMembers returns the roster for teamID, replaced by the event's
// override when eventID names an event that lists the team and carries a
// member override. A missing event falls back to the team roster.
func (r *Resolver) EffectiveMembers(ctx context.Context, teamID primitive.ObjectID, eventID *primitive.ObjectID) ([]primitive.ObjectID, error) {
	team, err := r.teams.Lookup(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}

	var ev *models.Event
	if eventID != nil {
		ev, err = r.events.Lookup(ctx, *eventID)
		if err != nil {
			return nil, err
		}
	}
	return Effective(*team, ev), nil
}

// Effective applies ev's override (if any) to team's roster. ev may be nil.
func Effective(team models.Team, ev *models.Event) []primitive.ObjectID {
	base := team.MemberIDs
	if ev != nil && ev.IncludesTeam(team.ID) {
		if o, ok := ev.OverrideFor(team.ID); ok && o.MemberIDs != nil {
			base = *o.MemberIDs
		}
	}
	out := make([]primitive.ObjectID, len(base))
	copy(out, base)
	return out
}
