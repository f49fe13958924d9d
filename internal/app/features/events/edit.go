package events

import (
	"context"
	"net/http"
	"strings"

	eventstore "github.com/dalemusser/committeehub/internal/app/store/events"
	"github.com/dalemusser/committeehub/internal/app/system/apierr"
	"github.com/dalemusser/committeehub/internal/app/system/identity"
	"github.com/dalemusser/committeehub/internal/app/system/inputval"
	"github.com/dalemusser/committeehub/internal/app/system/timeouts"
	"github.com/dalemusser/committeehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type overrideRequest struct {
	MemberIDs *[]string `json:"memberIds"`
	LeaderID  string    `json:"leaderId"`
}

func decodeOverrides(in map[string]overrideRequest) (map[string]models.TeamOverride, error) {
	out := make(map[string]models.TeamOverride, len(in))
	for key, o := range in {
		teamID, err := inputval.ObjectID(key)
		if err != nil {
			return nil, err
		}
		var to models.TeamOverride
		if o.MemberIDs != nil {
			ids, err := inputval.ObjectIDs(*o.MemberIDs)
			if err != nil {
				return nil, err
			}
			to.MemberIDs = &ids
		}
		if to.LeaderID, err = inputval.OptionalObjectID(o.LeaderID); err != nil {
			return nil, err
		}
		out[teamID.Hex()] = to
	}
	return out, nil
}

type createRequest struct {
	Name          string                     `json:"name"`
	DateFrom      string                     `json:"dateFrom"`
	DateTo        string                     `json:"dateTo"`
	TeamIDs       []string                   `json:"teamIds"`
	TeamOverrides map[string]overrideRequest `json:"teamOverrides"`
}

type createResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ServeCreate handles POST /api/events.
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

	loc := h.Clock.Location()
	from, err := parseInstant(body.DateFrom, loc)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	to, err := parseInstant(body.DateTo, loc)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	teamIDs, err := inputval.ObjectIDs(body.TeamIDs)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	overrides, err := decodeOverrides(body.TeamOverrides)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	createdBy := actor.ID
	ev, err := eventstore.New(h.DB).Create(ctx, models.Event{
		Name:          body.Name,
		DateFrom:      from,
		DateTo:        to,
		TeamIDs:       teamIDs,
		TeamOverrides: overrides,
		CreatedBy:     &createdBy,
	})
	if err != nil {
		apierr.Write(w, h.Log, storeErr(err))
		return
	}
	h.Log.Info("event created",
		zap.String("event_id", ev.ID.Hex()),
		zap.String("name", ev.Name),
		zap.String("actor_id", actor.ID.Hex()))
	apierr.JSON(w, http.StatusCreated, createResponse{ID: ev.ID.Hex(), Name: ev.Name})
}

type patchRequest struct {
	Name             *string                     `json:"name"`
	DateFrom         *string                     `json:"dateFrom"`
	DateTo           *string                     `json:"dateTo"`
	TeamIDs          *[]string                   `json:"teamIds"`
	TeamOverrides    *map[string]overrideRequest `json:"teamOverrides"`
	OverallStartTime *string                     `json:"overallStartTime"`
	OverallEndTime   *string                     `json:"overallEndTime"`
}

func (h *Handler) update(b patchRequest) (eventstore.Update, error) {
	loc := h.Clock.Location()
	upd := eventstore.Update{Name: b.Name}
	if b.DateFrom != nil {
		t, err := parseInstant(*b.DateFrom, loc)
		if err != nil {
			return upd, err
		}
		upd.DateFrom = &t
	}
	if b.DateTo != nil {
		t, err := parseInstant(*b.DateTo, loc)
		if err != nil {
			return upd, err
		}
		upd.DateTo = &t
	}
	if b.TeamIDs != nil {
		ids, err := inputval.ObjectIDs(*b.TeamIDs)
		if err != nil {
			return upd, err
		}
		upd.TeamIDs = &ids
	}
	if b.TeamOverrides != nil {
		o, err := decodeOverrides(*b.TeamOverrides)
		if err != nil {
			return upd, err
		}
		upd.TeamOverrides = &o
	}
	if b.OverallStartTime != nil {
		s := strings.TrimSpace(*b.OverallStartTime)
		upd.OverallStartTime = &s
	}
	if b.OverallEndTime != nil {
		s := strings.TrimSpace(*b.OverallEndTime)
		upd.OverallEndTime = &s
	}
	return upd, nil
}

// ServePatch handles PATCH /api/events/{id}. Overall start and end times
// are rejected until the event has ended.
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
	upd, err := h.update(body)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ev, err := eventstore.New(h.DB).Update(ctx, id, upd, h.Clock)
	if err != nil {
		apierr.Write(w, h.Log, storeErr(err))
		return
	}
	h.Log.Info("event updated",
		zap.String("event_id", id.Hex()),
		zap.String("actor_id", actor.ID.Hex()))
	apierr.JSON(w, http.StatusOK, ev)
}

// ServeDelete handles DELETE /api/events/{id}. Attendance recorded against
// the event is kept; views fall back to team rosters.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := eventstore.New(h.DB).Delete(ctx, id); err != nil {
		apierr.Write(w, h.Log, storeErr(err))
		return
	}
	h.Log.Info("event deleted",
		zap.String("event_id", id.Hex()),
		zap.String("actor_id", actor.ID.Hex()))
	apierr.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
