package events

import (
	"context"
	"net/http"

	eventstore "github.com/dalemusser/committeehub/internal/app/store/events"
	teamstore "github.com/dalemusser/committeehub/internal/app/store/teams"
	"github.com/dalemusser/committeehub/internal/app/system/apierr"
	"github.com/dalemusser/committeehub/internal/app/system/inputval"
	"github.com/dalemusser/committeehub/internal/app/system/roster"
	"github.com/dalemusser/committeehub/internal/app/system/timeouts"
	"github.com/dalemusser/committeehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// effectiveTeam is a team as it stands for one event.
type effectiveTeam struct {
	ID        primitive.ObjectID   `json:"id"`
	Name      string               `json:"name"`
	LeaderID  *primitive.ObjectID  `json:"leaderId"`
	MemberIDs []primitive.ObjectID `json:"memberIds"`
	DayOfWeek *int                 `json:"dayOfWeek,omitempty"`
	IsWrapUp  bool                 `json:"isWrapUp"`
}

type eventView struct {
	models.Event
	Teams []effectiveTeam `json:"teams"`
}

type viewResponse struct {
	Event eventView `json:"event"`
}

// effectiveTeams applies ev's overrides to its teams. The override leader
// is shown here for display only; attendance authorization always uses
// the team's own leader.
func effectiveTeams(ev models.Event, teams []models.Team) []effectiveTeam {
	out := make([]effectiveTeam, 0, len(teams))
	for _, t := range teams {
		et := effectiveTeam{
			ID:        t.ID,
			Name:      t.Name,
			LeaderID:  t.LeaderID,
			MemberIDs: roster.Effective(t, &ev),
			DayOfWeek: t.DayOfWeek,
			IsWrapUp:  t.IsWrapUp,
		}
		if o, ok := ev.OverrideFor(t.ID); ok && o.LeaderID != nil {
			et.LeaderID = o.LeaderID
		}
		out = append(out, et)
	}
	return out
}

// ServeView handles GET /api/events/{id}.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, err := inputval.ObjectID(chi.URLParam(r, "id"))
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ev, err := eventstore.New(h.DB).GetByID(ctx, id)
	if err != nil {
		apierr.Write(w, h.Log, storeErr(err))
		return
	}
	teams, err := teamstore.New(h.DB, h.Log).ListByIDs(ctx, ev.TeamIDs)
	if err != nil {
		apierr.Write(w, h.Log, apierr.Internalf(err, "load event teams"))
		return
	}
	apierr.JSON(w, http.StatusOK, viewResponse{Event: eventView{Event: *ev, Teams: effectiveTeams(*ev, teams)}})
}
