package teams

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/committeehub/internal/app/policy/teampolicy"
	memberstore "github.com/dalemusser/committeehub/internal/app/store/members"
	teamstore "github.com/dalemusser/committeehub/internal/app/store/teams"
	"github.com/dalemusser/committeehub/internal/app/system/apierr"
	"github.com/dalemusser/committeehub/internal/app/system/identity"
	"github.com/dalemusser/committeehub/internal/app/system/inputval"
	"github.com/dalemusser/committeehub/internal/app/system/timeouts"
	"github.com/dalemusser/committeehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type createRequest struct {
	Name      string   `json:"name"`
	LeaderID  string   `json:"leaderId"`
	MemberIDs []string `json:"memberIds"`
	DayOfWeek *int     `json:"dayOfWeek"`
}

// ServeCreate handles POST /api/teams.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.MemberFrom(r.Context())
	if !ok {
		apierr.Write(w, h.Log, apierr.ErrUnauthorized)
		return
	}
	var body createRequest
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	leaderID, err := inputval.OptionalObjectID(body.LeaderID)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	memberIDs, err := inputval.ObjectIDs(body.MemberIDs)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.checkMembers(ctx, leaderID, memberIDs); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	team, err := teamstore.New(h.DB, h.Log).Create(ctx, models.Team{
		Name:      body.Name,
		LeaderID:  leaderID,
		MemberIDs: memberIDs,
		DayOfWeek: body.DayOfWeek,
		IsWrapUp:  body.DayOfWeek != nil,
	})
	if err != nil {
		apierr.Write(w, h.Log, storeErr(err))
		return
	}
	h.Log.Info("team created",
		zap.String("team_id", team.ID.Hex()),
		zap.String("name", team.Name),
		zap.String("actor_id", actor.ID.Hex()))
	apierr.JSON(w, http.StatusCreated, team)
}

// patchRequest distinguishes an absent leaderId from an explicit null,
// which clears the leader.
type patchRequest struct {
	Name      *string         `json:"name"`
	LeaderID  json.RawMessage `json:"leaderId"`
	MemberIDs *[]string       `json:"memberIds"`
	DayOfWeek *int            `json:"dayOfWeek"`
	IsWrapUp  *bool           `json:"isWrapUp"`
}

func (b patchRequest) update() (teamstore.Update, error) {
	upd := teamstore.Update{
		Name:      b.Name,
		DayOfWeek: b.DayOfWeek,
		IsWrapUp:  b.IsWrapUp,
	}
	if len(b.LeaderID) > 0 {
		var raw *string
		if err := json.Unmarshal(b.LeaderID, &raw); err != nil {
			return upd, inputval.ErrInvalidID
		}
		if raw == nil || *raw == "" {
			upd.ClearLeader = true
		} else {
			id, err := inputval.ObjectID(*raw)
			if err != nil {
				return upd, err
			}
			upd.LeaderID = &id
		}
	}
	if b.MemberIDs != nil {
		ids, err := inputval.ObjectIDs(*b.MemberIDs)
		if err != nil {
			return upd, err
		}
		upd.MemberIDs = &ids
	}
	return upd, nil
}

// ServePatch handles PATCH /api/teams/{id}. Super admins and the team's
// leader may edit; member changes keep members' team_ids in step.
func (h *Handler) ServePatch(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.MemberFrom(r.Context())
	if !ok {
		apierr.Write(w, h.Log, apierr.ErrUnauthorized)
		return
	}
	id, err := inputval.ObjectID(chi.URLParam(r, "id"))
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	var body patchRequest
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	upd, err := body.update()
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	store := teamstore.New(h.DB, h.Log)
	team, err := store.Lookup(ctx, id)
	if err != nil {
		apierr.Write(w, h.Log, apierr.Internalf(err, "load team"))
		return
	}
	if team == nil {
		apierr.Write(w, h.Log, apierr.ErrTeamNotFound)
		return
	}
	if !teampolicy.CanManageTeam(*actor, *team) {
		apierr.Write(w, h.Log, errForbiddenTeam)
		return
	}
	var members []primitive.ObjectID
	if upd.MemberIDs != nil {
		members = *upd.MemberIDs
	}
	if err := h.checkMembers(ctx, upd.LeaderID, members); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	updated, err := store.Update(ctx, id, upd)
	if err != nil {
		apierr.Write(w, h.Log, storeErr(err))
		return
	}
	h.Log.Info("team updated",
		zap.String("team_id", id.Hex()),
		zap.Bool("roster_changed", upd.MemberIDs != nil),
		zap.String("actor_id", actor.ID.Hex()))
	apierr.JSON(w, http.StatusOK, updated)
}

// checkMembers verifies that the leader and every roster id name an
// existing member.
func (h *Handler) checkMembers(ctx context.Context, leaderID *primitive.ObjectID, memberIDs []primitive.ObjectID) error {
	want := map[primitive.ObjectID]bool{}
	for _, id := range memberIDs {
		want[id] = true
	}
	if leaderID != nil {
		want[*leaderID] = true
	}
	if len(want) == 0 {
		return nil
	}
	ids := make([]primitive.ObjectID, 0, len(want))
	for id := range want {
		ids = append(ids, id)
	}
	found, err := memberstore.New(h.DB).ListByIDs(ctx, ids)
	if err != nil {
		return apierr.Internalf(err, "load members")
	}
	if len(found) != len(ids) {
		return errUnknownMembers
	}
	return nil
}
