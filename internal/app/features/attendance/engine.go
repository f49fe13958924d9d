// internal/app/features/attendance/engine.go
package attendance

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/committeehub/internal/app/policy/attendancepolicy"
	attendancestore "github.com/dalemusser/committeehub/internal/app/store/attendance"
	"github.com/dalemusser/committeehub/internal/app/store/attendancelinks"
	"github.com/dalemusser/committeehub/internal/app/system/apierr"
	"github.com/dalemusser/committeehub/internal/app/system/civildate"
	"github.com/dalemusser/committeehub/internal/app/system/geofence"
	"github.com/dalemusser/committeehub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/committeehub/internal/app/system/roster"
	"github.com/dalemusser/committeehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collaborators. The Mongo stores satisfy these; tests use fakes.
type (
	MemberDirectory interface {
		ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Member, error)
	}
	TeamDirectory interface {
		Lookup(ctx context.Context, id primitive.ObjectID) (*models.Team, error)
		ListLedBy(ctx context.Context, leaderID primitive.ObjectID) ([]models.Team, error)
	}
	EventDirectory interface {
		Lookup(ctx context.Context, id primitive.ObjectID) (*models.Event, error)
	}
	RecordStore interface {
		Find(ctx context.Context, k attendancestore.Key) (*models.AttendanceRecord, error)
		List(ctx context.Context, f attendancestore.Filter) ([]models.AttendanceRecord, error)
		UpsertFull(ctx context.Context, k attendancestore.Key, f attendancestore.Full) (*models.AttendanceRecord, error)
		Merge(ctx context.Context, m attendancestore.Merge) (*models.AttendanceRecord, error)
	}
	LinkStore interface {
		Create(ctx context.Context, teamID primitive.ObjectID, createdBy *primitive.ObjectID) (string, models.AttendanceLink, error)
		Lookup(ctx context.Context, secret string, teamID primitive.ObjectID) (*models.AttendanceLink, error)
	}
	// Recorder counts submissions and denials.
	Recorder interface {
		Submission(mode string)
		Denial(operation, reason string)
	}
)

// Submission modes reported to the Recorder.
const (
	ModeFull = "full"
	ModeSelf = "self"
	ModeLink = "link"
)

var (
	errInvalidDate      = apierr.New(apierr.BadRequest, "invalid_date", "Date must be YYYY-MM-DD")
	errInvalidTime      = apierr.New(apierr.BadRequest, "invalid_time", "Times must be HH:MM")
	errLocationRequired = apierr.New(apierr.BadRequest, "location_required", "Location required. Please enable location access.")
	errOutsideVenue     = apierr.New(apierr.Forbidden, "outside_venue", "You must be at the venue to mark attendance.")
	errInvalidLink      = apierr.New(apierr.Forbidden, "invalid_link", "Invalid or expired link")
	errLinkNotToday     = apierr.New(apierr.Forbidden, "not_today", "Link attendance can only be submitted for today")
	errPresentRequired  = apierr.New(apierr.BadRequest, "present_required", "Select at least one member")
	errMemberNotInTeam  = apierr.New(apierr.BadRequest, "member_not_in_team", "One or more members are not in this team")
)

// Deps wires an Engine.
type Deps struct {
	Members MemberDirectory
	Teams   TeamDirectory
	Events  EventDirectory
	Records RecordStore
	Links   LinkStore
	Venue   geofence.Venue
	Clock   civildate.Clock
	Metrics Recorder
	// BaseURL prefixes issued link URLs, e.g. "https://hub.example.org".
	BaseURL string
}

// Engine resolves and submits attendance. Every authorization and
// validation rule runs before the record store is touched.
type Engine struct {
	members MemberDirectory
	teams   TeamDirectory
	events  EventDirectory
	records RecordStore
	links   LinkStore
	roster  *roster.Resolver
	gate    *geofence.Gate
	clock   civildate.Clock
	metrics Recorder
	baseURL string
}

func NewEngine(d Deps) *Engine {
	clock := d.Clock
	if clock == nil {
		clock = civildate.NewClock(time.UTC)
	}
	return &Engine{
		members: d.Members,
		teams:   d.Teams,
		events:  d.Events,
		records: d.Records,
		links:   d.Links,
		roster:  roster.New(d.Teams, d.Events),
		gate:    geofence.New(d.Venue),
		clock:   clock,
		metrics: d.Metrics,
		baseURL: strings.TrimRight(d.BaseURL, "/"),
	}
}

// VenueRequired reports whether self-submissions must carry coordinates.
func (e *Engine) VenueRequired() bool { return e.gate.Required() }

// MemberSummary is the expanded form of a roster entry.
type MemberSummary struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
}

// ViewFilter narrows ResolveAttendanceView. Zero fields do not filter.
type ViewFilter struct {
	EventID       *primitive.ObjectID
	TeamID        *primitive.ObjectID
	Date          string
	From          string
	To            string
	ExpandMembers bool
}

// View is the read result. Record and Members are set only when members
// were expanded for a team.
type View struct {
	Records []models.AttendanceRecord `json:"records"`
	Record  *models.AttendanceRecord  `json:"record,omitempty"`
	Members []MemberSummary           `json:"members,omitempty"`
}

// ResolveAttendanceView lists the records actor may read. Admins see only
// teams they lead.
func (e *Engine) ResolveAttendanceView(ctx context.Context, actor models.Member, f ViewFilter) (*View, error) {
	for _, d := range []string{f.Date, f.From, f.To} {
		if d == "" {
			continue
		}
		if _, err := civildate.Parse(d); err != nil {
			return nil, errInvalidDate
		}
	}

	q := attendancestore.Filter{
		TeamID:  f.TeamID,
		EventID: f.EventID,
		Date:    f.Date,
		From:    f.From,
		To:      f.To,
	}

	switch attendancepolicy.ReadScope(actor.Role) {
	case attendancepolicy.ScopeAllTeams:
	case attendancepolicy.ScopeLedTeams:
		led, err := e.teams.ListLedBy(ctx, actor.ID)
		if err != nil {
			return nil, apierr.Internalf(err, "list led teams")
		}
		ids := make([]primitive.ObjectID, 0, len(led))
		for _, t := range led {
			ids = append(ids, t.ID)
		}
		q.TeamIn = &ids
	default:
		return nil, e.deny(attendancepolicy.Read, attendancepolicy.Decide(attendancepolicy.Request{
			Actor: actor, Op: attendancepolicy.Read,
		}))
	}

	var team *models.Team
	if f.TeamID != nil {
		var err error
		if team, err = e.loadTeam(ctx, *f.TeamID); err != nil {
			return nil, err
		}
		if d := attendancepolicy.Decide(attendancepolicy.Request{
			Actor: actor, Op: attendancepolicy.Read, Team: *team,
		}); d != nil {
			return nil, e.deny(attendancepolicy.Read, d)
		}
	}

	records, err := e.records.List(ctx, q)
	if err != nil {
		return nil, apierr.Internalf(err, "list attendance")
	}
	view := &View{Records: records}

	if !f.ExpandMembers || team == nil {
		return view, nil
	}

	// A stale event reference falls back to the team roster.
	ids, err := e.roster.EffectiveMembers(ctx, team.ID, f.EventID)
	if errors.Is(err, roster.ErrTeamNotFound) {
		return nil, apierr.ErrTeamNotFound
	}
	if err != nil {
		return nil, apierr.Internalf(err, "resolve roster")
	}
	if view.Members, err = e.summaries(ctx, ids); err != nil {
		return nil, err
	}

	if f.Date != "" {
		rec, err := e.records.Find(ctx, attendancestore.Key{TeamID: team.ID, Date: f.Date, EventID: f.EventID})
		if err != nil {
			return nil, apierr.Internalf(err, "find attendance")
		}
		view.Record = rec
	} else if len(records) > 0 {
		view.Record = &records[0]
	}
	return view, nil
}

// SubmitInput is one attendance submission. MemberSelf selects the member
// self-mark path; otherwise it is a full leader submission.
type SubmitInput struct {
	MemberSelf bool
	EventID    *primitive.ObjectID
	TeamID     primitive.ObjectID
	Date       string
	PresentIDs []primitive.ObjectID
	AbsentIDs  []primitive.ObjectID
	StartTime  *string
	EndTime    *string
	Notes      *string
	Lat        *float64
	Lng        *float64
}

// SubmitAttendance authorizes and stores a submission.
func (e *Engine) SubmitAttendance(ctx context.Context, actor models.Member, in SubmitInput) (*models.AttendanceRecord, error) {
	today := e.clock.Today()
	date := in.Date
	if date == "" && in.MemberSelf {
		date = today
	}
	date, err := civildate.Parse(date)
	if err != nil {
		return nil, errInvalidDate
	}

	team, err := e.loadTeam(ctx, in.TeamID)
	if err != nil {
		return nil, err
	}
	var ev *models.Event
	if in.EventID != nil {
		ev, err = e.events.Lookup(ctx, *in.EventID)
		if err != nil {
			return nil, apierr.Internalf(err, "load event")
		}
		if ev == nil {
			return nil, apierr.ErrEventNotFound
		}
	}

	req := attendancepolicy.Request{
		Actor:    actor,
		Team:     *team,
		Event:    ev,
		Date:     date,
		Today:    today,
		Location: e.clock.Location(),
	}
	key := attendancestore.Key{TeamID: team.ID, Date: date, EventID: in.EventID}

	if in.MemberSelf {
		req.Op = attendancepolicy.SelfSubmit
		req.Roster = roster.Effective(*team, ev)
		if d := attendancepolicy.Decide(req); d != nil {
			return nil, e.deny(req.Op, d)
		}
		if err := e.checkVenue(in.Lat, in.Lng); err != nil {
			return nil, err
		}
		rec, err := e.records.Merge(ctx, attendancestore.Merge{
			Key:         key,
			PresentIDs:  []primitive.ObjectID{actor.ID},
			Roster:      req.Roster,
			SubmittedBy: actor.ID.Hex(),
		})
		if err != nil {
			return nil, apierr.Internalf(err, "merge self attendance")
		}
		e.count(ModeSelf)
		return rec, nil
	}

	req.Op = attendancepolicy.FullSubmit
	if d := attendancepolicy.Decide(req); d != nil {
		return nil, e.deny(req.Op, d)
	}
	for _, t := range []*string{in.StartTime, in.EndTime} {
		if t != nil && *t != "" {
			if _, err := time.Parse("15:04", *t); err != nil {
				return nil, errInvalidTime
			}
		}
	}
	notes := in.Notes
	if notes != nil {
		clean := htmlsanitize.PlainText(*notes)
		notes = &clean
	}
	rec, err := e.records.UpsertFull(ctx, key, attendancestore.Full{
		PresentIDs:  dedupe(in.PresentIDs),
		AbsentIDs:   dedupe(in.AbsentIDs),
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Notes:       notes,
		SubmittedBy: actor.ID.Hex(),
	})
	if err != nil {
		return nil, apierr.Internalf(err, "upsert attendance")
	}
	e.count(ModeFull)
	return rec, nil
}

// IssuedLink is a freshly created secure submission link.
type IssuedLink struct {
	Link      string
	ExpiresAt time.Time
}

// IssueLink creates a link for teamID. Admins may only issue links for
// teams they lead.
func (e *Engine) IssueLink(ctx context.Context, actor models.Member, teamID primitive.ObjectID) (*IssuedLink, error) {
	team, err := e.loadTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if d := attendancepolicy.Decide(attendancepolicy.Request{
		Actor: actor, Op: attendancepolicy.IssueLink, Team: *team,
	}); d != nil {
		return nil, e.deny(attendancepolicy.IssueLink, d)
	}

	by := actor.ID
	secret, link, err := e.links.Create(ctx, team.ID, &by)
	if err != nil {
		return nil, apierr.Internalf(err, "create attendance link")
	}
	q := url.Values{}
	q.Set("token", secret)
	q.Set("teamId", team.ID.Hex())
	return &IssuedLink{
		Link:      e.baseURL + "/attendance/submit?" + q.Encode(),
		ExpiresAt: link.ExpiresAt,
	}, nil
}

// LinkRosterView is what an anonymous link holder sees.
type LinkRosterView struct {
	TeamName string          `json:"teamName"`
	Members  []MemberSummary `json:"members"`
	Date     string          `json:"date"`
}

// LinkRoster returns the team roster behind a valid link.
func (e *Engine) LinkRoster(ctx context.Context, secret string, teamID primitive.ObjectID) (*LinkRosterView, error) {
	team, err := e.linkTeam(ctx, secret, teamID)
	if err != nil {
		return nil, err
	}
	members, err := e.summaries(ctx, team.MemberIDs)
	if err != nil {
		return nil, err
	}
	return &LinkRosterView{TeamName: team.Name, Members: members, Date: e.clock.Today()}, nil
}

// LinkSubmission marks PresentIDs present through a link.
type LinkSubmission struct {
	Secret     string
	TeamID     primitive.ObjectID
	Date       string
	PresentIDs []primitive.ObjectID
}

// SubmitViaLink applies the same additive merge as a member self-mark for
// each listed member. Only today can be submitted and every id must be on
// the team roster.
func (e *Engine) SubmitViaLink(ctx context.Context, in LinkSubmission) (*models.AttendanceRecord, error) {
	team, err := e.linkTeam(ctx, in.Secret, in.TeamID)
	if err != nil {
		return nil, err
	}

	today := e.clock.Today()
	date := in.Date
	if date == "" {
		date = today
	}
	if date, err = civildate.Parse(date); err != nil {
		return nil, errInvalidDate
	}
	if date != today {
		return nil, e.deny(attendancepolicy.SelfSubmit, errLinkNotToday)
	}

	present := dedupe(in.PresentIDs)
	if len(present) == 0 {
		return nil, errPresentRequired
	}
	for _, id := range present {
		if !team.HasMember(id) {
			return nil, errMemberNotInTeam
		}
	}

	rec, err := e.records.Merge(ctx, attendancestore.Merge{
		Key:         attendancestore.Key{TeamID: team.ID, Date: date},
		PresentIDs:  present,
		Roster:      team.MemberIDs,
		SubmittedBy: models.SubmittedByLink,
	})
	if err != nil {
		return nil, apierr.Internalf(err, "merge link attendance")
	}
	e.count(ModeLink)
	return rec, nil
}

func (e *Engine) linkTeam(ctx context.Context, secret string, teamID primitive.ObjectID) (*models.Team, error) {
	if _, err := e.links.Lookup(ctx, secret, teamID); err != nil {
		if errors.Is(err, attendancelinks.ErrInvalidLink) {
			return nil, errInvalidLink
		}
		return nil, apierr.Internalf(err, "look up attendance link")
	}
	return e.loadTeam(ctx, teamID)
}

func (e *Engine) loadTeam(ctx context.Context, id primitive.ObjectID) (*models.Team, error) {
	team, err := e.teams.Lookup(ctx, id)
	if err != nil {
		return nil, apierr.Internalf(err, "load team")
	}
	if team == nil {
		return nil, apierr.ErrTeamNotFound
	}
	return team, nil
}

func (e *Engine) checkVenue(lat, lng *float64) error {
	switch err := e.gate.Check(lat, lng); {
	case err == nil:
		return nil
	case errors.Is(err, geofence.ErrLocationRequired):
		return e.deny(attendancepolicy.SelfSubmit, errLocationRequired)
	case errors.Is(err, geofence.ErrOutsideVenue):
		return e.deny(attendancepolicy.SelfSubmit, errOutsideVenue)
	default:
		return apierr.Internalf(err, "geofence")
	}
}

// summaries expands ids in order, skipping ids with no member document.
func (e *Engine) summaries(ctx context.Context, ids []primitive.ObjectID) ([]MemberSummary, error) {
	out := make([]MemberSummary, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	members, err := e.members.ListByIDs(ctx, ids)
	if err != nil {
		return nil, apierr.Internalf(err, "load members")
	}
	byID := make(map[primitive.ObjectID]models.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}
	for _, id := range ids {
		m, ok := byID[id]
		if !ok {
			continue
		}
		out = append(out, MemberSummary{ID: m.ID, Name: m.DisplayName(), Email: m.Email})
	}
	return out, nil
}

func (e *Engine) deny(op attendancepolicy.Operation, err *apierr.Error) error {
	if e.metrics != nil {
		e.metrics.Denial(op.String(), err.Reason)
	}
	return err
}

func (e *Engine) count(mode string) {
	if e.metrics != nil {
		e.metrics.Submission(mode)
	}
}

func dedupe(ids []primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if !models.ContainsID(out, id) {
			out = append(out, id)
		}
	}
	return out
}
