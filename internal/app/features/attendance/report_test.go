package attendance

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	attendancestore "github.com/dalemusser/committeehub/internal/app/store/attendance"
	"github.com/dalemusser/committeehub/internal/app/system/geofence"
	"github.com/dalemusser/committeehub/internal/domain/models"
	"github.com/dalemusser/committeehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seedRecord(w *world, team primitive.ObjectID, date string, present []primitive.ObjectID, absent ...primitive.ObjectID) {
	rec := w.records.getOrCreate(attendancestore.Key{TeamID: team, Date: date})
	rec.PresentIDs = present
	rec.AbsentIDs = absent
}

func TestReport_Scoping(t *testing.T) {
	w := newWorld()
	e := w.engine(testToday, geofence.Venue{})
	seedRecord(w, w.team.ID, "2025-03-04", []primitive.ObjectID{w.a.ID, w.b.ID}, w.c.ID)
	seedRecord(w, w.otherTeam.ID, "2025-03-03", []primitive.ObjectID{w.outsider.ID})

	tests := []struct {
		name       string
		actor      models.Member
		filter     ViewFilter
		wantRows   int
		wantReason string
	}{
		{"super admin sees all teams", w.super, ViewFilter{}, 2, ""},
		{"admin sees led teams only", w.leader, ViewFilter{}, 1, ""},
		{"admin other team forbidden", w.leader, ViewFilter{TeamID: &w.otherTeam.ID}, 0, "not_team_leader"},
		{"member forbidden", w.a, ViewFilter{}, 0, "members_cannot_read"},
		{"date range", w.super, ViewFilter{From: "2025-03-04", To: "2025-03-10"}, 1, ""},
		{"bad date", w.super, ViewFilter{From: "03/04/2025"}, 0, "invalid_date"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rows, err := e.Report(context.Background(), tc.actor, tc.filter)
			if tc.wantReason != "" {
				wantReason(t, err, tc.wantReason)
				return
			}
			if err != nil {
				t.Fatalf("Report failed: %v", err)
			}
			if len(rows) != tc.wantRows {
				t.Errorf("rows = %d, want %d", len(rows), tc.wantRows)
			}
		})
	}
}

func TestReport_NamesAndFallbacks(t *testing.T) {
	w := newWorld()
	e := w.engine(testToday, geofence.Venue{})
	gone := primitive.NewObjectID()
	seedRecord(w, w.team.ID, "2025-03-04", []primitive.ObjectID{w.a.ID, gone}, w.c.ID)

	rows, err := e.Report(context.Background(), w.super, ViewFilter{})
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.Team != "Sound" || row.PresentCount != 2 || row.AbsentCount != 1 {
		t.Errorf("row = %+v", row)
	}
	if row.Present[0] != "A" || row.Present[1] != gone.Hex() {
		t.Errorf("present = %v, want [A %s]", row.Present, gone.Hex())
	}
	if row.Absent[0] != "C" {
		t.Errorf("absent = %v", row.Absent)
	}
}

func TestServeReport(t *testing.T) {
	w := newWorld()
	_, router := newTestRouter(w, geofence.Venue{})
	seedRecord(w, w.team.ID, "2025-03-04", []primitive.ObjectID{w.a.ID, w.b.ID}, w.c.ID)

	t.Run("json", func(t *testing.T) {
		req := testutil.WithMember(httptest.NewRequest(http.MethodGet, "/report", nil), w.leader)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		var resp reportResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Records != 1 || len(resp.Report) != 1 || resp.Report[0].Team != "Sound" {
			t.Errorf("response = %+v", resp)
		}
	})

	t.Run("csv", func(t *testing.T) {
		q := url.Values{}
		q.Set("format", "csv")
		q.Set("teamId", w.team.ID.Hex())
		req := testutil.WithMember(httptest.NewRequest(http.MethodGet, "/report?"+q.Encode(), nil), w.super)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename=attendance-report.csv" {
			t.Errorf("Content-Disposition = %q", got)
		}
		lines, err := csv.NewReader(rec.Body).ReadAll()
		if err != nil {
			t.Fatalf("parse csv: %v", err)
		}
		if len(lines) != 2 {
			t.Fatalf("lines = %d, want header + 1", len(lines))
		}
		want := []string{"2025-03-04", "Sound", "2", "1", "A; B", "C"}
		for i, v := range want {
			if lines[1][i] != v {
				t.Errorf("col %d = %q, want %q", i, lines[1][i], v)
			}
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		req := testutil.WithMember(httptest.NewRequest(http.MethodGet, "/report?format=xml", nil), w.super)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest || decodeReason(t, rec) != "invalid_format" {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("member forbidden", func(t *testing.T) {
		req := testutil.WithMember(httptest.NewRequest(http.MethodGet, "/report", nil), w.a)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})
}
