// internal/app/features/attendance/report.go
package attendance

import (
	"context"
	"encoding/csv"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/committeehub/internal/app/system/apierr"
	"github.com/dalemusser/committeehub/internal/app/system/identity"
	"github.com/dalemusser/committeehub/internal/app/system/inputval"
	"github.com/dalemusser/committeehub/internal/app/system/normalize"
	"github.com/dalemusser/committeehub/internal/app/system/timeouts"
	"github.com/dalemusser/committeehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ReportRow is one attendance record with ids replaced by display names.
// Ids that no longer resolve are reported as their hex form.
type ReportRow struct {
	Date         string   `json:"date"`
	Team         string   `json:"team"`
	PresentCount int      `json:"presentCount"`
	AbsentCount  int      `json:"absentCount"`
	Present      []string `json:"present"`
	Absent       []string `json:"absent"`
}

// Report builds a named report over the records actor may read. Scoping
// and filters match ResolveAttendanceView.
func (e *Engine) Report(ctx context.Context, actor models.Member, f ViewFilter) ([]ReportRow, error) {
	f.ExpandMembers = false
	view, err := e.ResolveAttendanceView(ctx, actor, f)
	if err != nil {
		return nil, err
	}

	teamNames := make(map[primitive.ObjectID]string)
	var memberIDs []primitive.ObjectID
	for _, rec := range view.Records {
		if _, seen := teamNames[rec.TeamID]; !seen {
			name := rec.TeamID.Hex()
			t, err := e.teams.Lookup(ctx, rec.TeamID)
			if err != nil {
				return nil, apierr.Internalf(err, "load team")
			}
			if t != nil {
				name = t.Name
			}
			teamNames[rec.TeamID] = name
		}
		memberIDs = append(memberIDs, rec.PresentIDs...)
		memberIDs = append(memberIDs, rec.AbsentIDs...)
	}

	summaries, err := e.summaries(ctx, dedupe(memberIDs))
	if err != nil {
		return nil, err
	}
	names := make(map[primitive.ObjectID]string, len(summaries))
	for _, s := range summaries {
		names[s.ID] = s.Name
	}
	nameOf := func(ids []primitive.ObjectID) []string {
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			if n, ok := names[id]; ok {
				out = append(out, n)
			} else {
				out = append(out, id.Hex())
			}
		}
		return out
	}

	rows := make([]ReportRow, 0, len(view.Records))
	for _, rec := range view.Records {
		rows = append(rows, ReportRow{
			Date:         rec.Date,
			Team:         teamNames[rec.TeamID],
			PresentCount: len(rec.PresentIDs),
			AbsentCount:  len(rec.AbsentIDs),
			Present:      nameOf(rec.PresentIDs),
			Absent:       nameOf(rec.AbsentIDs),
		})
	}
	return rows, nil
}

type reportResponse struct {
	Report  []ReportRow `json:"report"`
	Records int         `json:"records"`
}

var errInvalidFormat = apierr.New(apierr.BadRequest, "invalid_format", "format must be json or csv")

// ServeReport handles GET /api/attendance/report.
func (h *Handler) ServeReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.MemberFrom(r.Context())
	if !ok {
		apierr.Write(w, h.Log, apierr.ErrUnauthorized)
		return
	}
	q := r.URL.Query()

	format := strings.ToLower(normalize.QueryParam(q.Get("format")))
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" {
		apierr.Write(w, h.Log, errInvalidFormat)
		return
	}

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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	rows, err := h.Engine.Report(ctx, *actor, ViewFilter{
		EventID: eventID,
		TeamID:  teamID,
		From:    normalize.QueryParam(q.Get("from")),
		To:      normalize.QueryParam(q.Get("to")),
	})
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	if format == "json" {
		apierr.JSON(w, http.StatusOK, reportResponse{Report: rows, Records: len(rows)})
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=attendance-report.csv")

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"Date", "Team", "Present Count", "Absent Count", "Present Names", "Absent Names"})
	for _, row := range rows {
		_ = cw.Write([]string{
			row.Date,
			row.Team,
			strconv.Itoa(row.PresentCount),
			strconv.Itoa(row.AbsentCount),
			strings.Join(row.Present, "; "),
			strings.Join(row.Absent, "; "),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.Log.Warn("attendance report csv write failed", zap.Error(err))
	}
}
