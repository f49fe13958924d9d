// internal/app/features/attendance/handler.go
package attendance

import (
	"context"
	"net/http"

	"github.com/dalemusser/committeehub/internal/app/system/apierr"
	"github.com/dalemusser/committeehub/internal/app/system/identity"
	"github.com/dalemusser/committeehub/internal/app/system/inputval"
	"github.com/dalemusser/committeehub/internal/app/system/normalize"
	"github.com/dalemusser/committeehub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler serves the attendance API.
type Handler struct {
	Engine *Engine
	Log    *zap.Logger
}

func NewHandler(engine *Engine, logger *zap.Logger) *Handler {
	return &Handler{Engine: engine, Log: logger}
}

type submitResponse struct {
	OK bool   `json:"ok"`
	ID string `json:"id"`
}

// ServeList handles GET /api/attendance.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.MemberFrom(r.Context())
	if !ok {
		apierr.Write(w, h.Log, apierr.ErrUnauthorized)
		return
	}
	q := r.URL.Query()

	eventID, err := inputval.OptionalObjectID(normalize.QueryParam(q.Get("eventId")))
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	teamID, err := inputval.OptionalObjectID(normalize.QueryParam(q.Get("teamId")))
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	view, err := h.Engine.ResolveAttendanceView(ctx, *actor, ViewFilter{
		EventID:       eventID,
		TeamID:        teamID,
		Date:          normalize.QueryParam(q.Get("date")),
		From:          normalize.QueryParam(q.Get("from")),
		To:            normalize.QueryParam(q.Get("to")),
		ExpandMembers: q.Get("expand") == "members",
	})
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	apierr.JSON(w, http.StatusOK, view)
}

type submitRequest struct {
	MemberSelf bool     `json:"memberSelf"`
	EventID    string   `json:"eventId"`
	TeamID     string   `json:"teamId"`
	Date       string   `json:"date"`
	PresentIDs []string `json:"presentIds"`
	AbsentIDs  []string `json:"absentIds"`
	StartTime  *string  `json:"startTime"`
	EndTime    *string  `json:"endTime"`
	Notes      *string  `json:"notes"`
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
}

// ServeSubmit handles POST /api/attendance.
func (h *Handler) ServeSubmit(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.MemberFrom(r.Context())
	if !ok {
		apierr.Write(w, h.Log, apierr.ErrUnauthorized)
		return
	}

	var body submitRequest
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	in, err := body.input()
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rec, err := h.Engine.SubmitAttendance(ctx, *actor, in)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	h.Log.Info("attendance submitted",
		zap.String("team_id", in.TeamID.Hex()),
		zap.String("date", rec.Date),
		zap.Bool("member_self", in.MemberSelf),
		zap.String("actor_id", actor.ID.Hex()))
	apierr.JSON(w, http.StatusOK, submitResponse{OK: true, ID: rec.ID.Hex()})
}

func (b submitRequest) input() (SubmitInput, error) {
	teamID, err := inputval.ObjectID(b.TeamID)
	if err != nil {
		return SubmitInput{}, err
	}
	eventID, err := inputval.OptionalObjectID(b.EventID)
	if err != nil {
		return SubmitInput{}, err
	}
	in := SubmitInput{
		MemberSelf: b.MemberSelf,
		EventID:    eventID,
		TeamID:     teamID,
		Date:       b.Date,
		StartTime:  normalize.OptionalText(b.StartTime),
		EndTime:    normalize.OptionalText(b.EndTime),
		Notes:      b.Notes,
		Lat:        b.Lat,
		Lng:        b.Lng,
	}
	// Self-marks ignore client-supplied lists; only the caller is marked.
	if b.MemberSelf {
		return in, nil
	}
	if in.PresentIDs, err = inputval.ObjectIDs(b.PresentIDs); err != nil {
		return SubmitInput{}, err
	}
	if in.AbsentIDs, err = inputval.ObjectIDs(b.AbsentIDs); err != nil {
		return SubmitInput{}, err
	}
	return in, nil
}

// ServeVenue handles GET /api/attendance/venue.
func (h *Handler) ServeVenue(w http.ResponseWriter, r *http.Request) {
	apierr.JSON(w, http.StatusOK, map[string]bool{"required": h.Engine.VenueRequired()})
}

type linkRequest struct {
	TeamID string `json:"teamId"`
}

// ServeIssueLink handles POST /api/attendance/link.
func (h *Handler) ServeIssueLink(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.MemberFrom(r.Context())
	if !ok {
		apierr.Write(w, h.Log, apierr.ErrUnauthorized)
		return
	}
	var body linkRequest
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	teamID, err := inputval.ObjectID(body.TeamID)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	link, err := h.Engine.IssueLink(ctx, *actor, teamID)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	h.Log.Info("attendance link issued",
		zap.String("team_id", teamID.Hex()),
		zap.String("actor_id", actor.ID.Hex()),
		zap.Time("expires_at", link.ExpiresAt))
	apierr.JSON(w, http.StatusOK, linkResponse{Link: link.Link, ExpiresAt: link.ExpiresAt.UnixMilli()})
}

// linkResponse reports expiry in epoch milliseconds.
type linkResponse struct {
	Link      string `json:"link"`
	ExpiresAt int64  `json:"expiresAt"`
}

// ServeLinkRoster handles GET /api/attendance/submit?token=&teamId=.
func (h *Handler) ServeLinkRoster(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	teamID, err := inputval.ObjectID(q.Get("teamId"))
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	view, err := h.Engine.LinkRoster(ctx, q.Get("token"), teamID)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	apierr.JSON(w, http.StatusOK, view)
}

type linkSubmitRequest struct {
	Token      string   `json:"token"`
	TeamID     string   `json:"teamId"`
	Date       string   `json:"date"`
	PresentIDs []string `json:"presentIds"`
}

// ServeLinkSubmit handles POST /api/attendance/submit.
func (h *Handler) ServeLinkSubmit(w http.ResponseWriter, r *http.Request) {
	var body linkSubmitRequest
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	teamID, err := inputval.ObjectID(body.TeamID)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	present, err := inputval.ObjectIDs(body.PresentIDs)
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rec, err := h.Engine.SubmitViaLink(ctx, LinkSubmission{
		Secret:     body.Token,
		TeamID:     teamID,
		Date:       body.Date,
		PresentIDs: present,
	})
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	h.Log.Info("attendance submitted via link",
		zap.String("team_id", teamID.Hex()),
		zap.Int("present", len(present)))
	apierr.JSON(w, http.StatusOK, submitResponse{OK: true, ID: rec.ID.Hex()})
}
