package attendancestore_test

import (
	"sync"
	"testing"

	attendancestore "github.com/dalemusser/committeehub/internal/app/store/attendance"
	"github.com/dalemusser/committeehub/internal/domain/models"
	"github.com/dalemusser/committeehub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func ids(n int) []primitive.ObjectID {
	out := make([]primitive.ObjectID, n)
	for i := range out {
		out[i] = primitive.NewObjectID()
	}
	return out
}

func TestStore_UpsertFull_Overwrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := attendancestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	m := ids(3)
	key := attendancestore.Key{TeamID: primitive.NewObjectID(), Date: "2025-03-05"}
	notes := "first"

	first, err := store.UpsertFull(ctx, key, attendancestore.Full{
		PresentIDs:  m[:2],
		AbsentIDs:   m[2:],
		Notes:       &notes,
		SubmittedBy: "leader",
	})
	if err != nil {
		t.Fatalf("UpsertFull failed: %v", err)
	}
	if first.CreatedAt.IsZero() {
		t.Error("created_at should be set on insert")
	}

	second, err := store.UpsertFull(ctx, key, attendancestore.Full{
		PresentIDs:  m[2:],
		AbsentIDs:   m[:2],
		SubmittedBy: "other",
	})
	if err != nil {
		t.Fatalf("second UpsertFull failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("record id changed: %s -> %s", first.ID.Hex(), second.ID.Hex())
	}
	if len(second.PresentIDs) != 1 || second.PresentIDs[0] != m[2] {
		t.Errorf("present = %v, want replaced", second.PresentIDs)
	}
	if second.Notes != "first" {
		t.Errorf("notes = %q, want kept when omitted", second.Notes)
	}
	if second.SubmittedBy != "other" {
		t.Errorf("submitted_by = %q, want last writer", second.SubmittedBy)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Error("created_at should not change on update")
	}
}

func TestStore_EventScopedKeysDoNotCollide(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := attendancestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team := primitive.NewObjectID()
	ev := primitive.NewObjectID()
	adhoc := attendancestore.Key{TeamID: team, Date: "2025-03-05"}
	scoped := attendancestore.Key{TeamID: team, Date: "2025-03-05", EventID: &ev}

	a, err := store.UpsertFull(ctx, adhoc, attendancestore.Full{SubmittedBy: "x"})
	if err != nil {
		t.Fatalf("adhoc: %v", err)
	}
	b, err := store.UpsertFull(ctx, scoped, attendancestore.Full{SubmittedBy: "x"})
	if err != nil {
		t.Fatalf("scoped: %v", err)
	}
	if a.ID == b.ID {
		t.Fatal("ad-hoc and event records share an id")
	}
	if b.EventID == nil || *b.EventID != ev {
		t.Errorf("event_id = %v, want %s", b.EventID, ev.Hex())
	}
	if a.PresentIDs == nil || a.AbsentIDs == nil {
		t.Error("lists should be stored as empty arrays")
	}
}

func TestStore_Merge_SeedsAbsentFromRoster(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := attendancestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	roster := ids(3)
	key := attendancestore.Key{TeamID: primitive.NewObjectID(), Date: "2025-03-05"}

	rec, err := store.Merge(ctx, attendancestore.Merge{
		Key:         key,
		PresentIDs:  roster[:1],
		Roster:      roster,
		SubmittedBy: roster[0].Hex(),
	})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if len(rec.PresentIDs) != 1 || rec.PresentIDs[0] != roster[0] {
		t.Errorf("present = %v", rec.PresentIDs)
	}
	if len(rec.AbsentIDs) != 2 || models.ContainsID(rec.AbsentIDs, roster[0]) {
		t.Errorf("absent = %v, want roster minus submitter", rec.AbsentIDs)
	}
}

func TestStore_Merge_IdempotentAndAdditive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := attendancestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	roster := ids(3)
	a, b, c := roster[0], roster[1], roster[2]
	key := attendancestore.Key{TeamID: primitive.NewObjectID(), Date: "2025-03-05"}

	// A leader already marked c present.
	if _, err := store.UpsertFull(ctx, key, attendancestore.Full{
		PresentIDs:  []primitive.ObjectID{c},
		AbsentIDs:   []primitive.ObjectID{a, b},
		SubmittedBy: "leader",
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	merge := func(id primitive.ObjectID) *models.AttendanceRecord {
		t.Helper()
		rec, err := store.Merge(ctx, attendancestore.Merge{
			Key: key, PresentIDs: []primitive.ObjectID{id}, Roster: roster, SubmittedBy: id.Hex(),
		})
		if err != nil {
			t.Fatalf("Merge(%s): %v", id.Hex(), err)
		}
		return rec
	}

	merge(a)
	rec := merge(a)
	count := 0
	for _, id := range rec.PresentIDs {
		if id == a {
			count++
		}
	}
	if count != 1 || models.ContainsID(rec.AbsentIDs, a) {
		t.Errorf("after repeat: present = %v absent = %v", rec.PresentIDs, rec.AbsentIDs)
	}

	rec = merge(b)
	for _, id := range []primitive.ObjectID{a, b, c} {
		if !models.ContainsID(rec.PresentIDs, id) {
			t.Errorf("present missing %s", id.Hex())
		}
	}
	if len(rec.AbsentIDs) != 0 {
		t.Errorf("absent = %v, want empty", rec.AbsentIDs)
	}
	if rec.SubmittedBy != b.Hex() {
		t.Errorf("submitted_by = %q, want last writer", rec.SubmittedBy)
	}
}

func TestStore_Merge_ConcurrentFirstWrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := attendancestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	roster := ids(8)
	key := attendancestore.Key{TeamID: primitive.NewObjectID(), Date: "2025-03-05"}

	var wg sync.WaitGroup
	errs := make(chan error, len(roster))
	for _, id := range roster {
		wg.Add(1)
		go func(id primitive.ObjectID) {
			defer wg.Done()
			_, err := store.Merge(ctx, attendancestore.Merge{
				Key: key, PresentIDs: []primitive.ObjectID{id}, Roster: roster, SubmittedBy: id.Hex(),
			})
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent Merge: %v", err)
		}
	}

	n, err := db.Collection("attendance").CountDocuments(ctx, bson.M{"team_id": key.TeamID})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("records = %d, want exactly 1", n)
	}
	rec, err := store.Find(ctx, key)
	if err != nil || rec == nil {
		t.Fatalf("Find = %v, %v", rec, err)
	}
	if len(rec.PresentIDs) != len(roster) || len(rec.AbsentIDs) != 0 {
		t.Errorf("present = %d absent = %d, want all present", len(rec.PresentIDs), len(rec.AbsentIDs))
	}
}

func TestStore_List_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := attendancestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	t1, t2 := primitive.NewObjectID(), primitive.NewObjectID()
	ev := primitive.NewObjectID()
	for _, k := range []attendancestore.Key{
		{TeamID: t1, Date: "2025-03-01"},
		{TeamID: t1, Date: "2025-03-05", EventID: &ev},
		{TeamID: t2, Date: "2025-03-03"},
	} {
		if _, err := store.UpsertFull(ctx, k, attendancestore.Full{SubmittedBy: "x"}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	onlyT1 := []primitive.ObjectID{t1}
	none := []primitive.ObjectID{}

	tests := []struct {
		name   string
		filter attendancestore.Filter
		want   []string
	}{
		{"all newest first", attendancestore.Filter{}, []string{"2025-03-05", "2025-03-03", "2025-03-01"}},
		{"scoped to team", attendancestore.Filter{TeamIn: &onlyT1}, []string{"2025-03-05", "2025-03-01"}},
		{"empty scope", attendancestore.Filter{TeamIn: &none}, nil},
		{"team outside scope", attendancestore.Filter{TeamIn: &onlyT1, TeamID: &t2}, nil},
		{"event", attendancestore.Filter{EventID: &ev}, []string{"2025-03-05"}},
		{"date", attendancestore.Filter{Date: "2025-03-03"}, []string{"2025-03-03"}},
		{"range", attendancestore.Filter{From: "2025-03-02", To: "2025-03-04"}, []string{"2025-03-03"}},
		{"limit", attendancestore.Filter{Limit: 1}, []string{"2025-03-05"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d records, want %d", len(got), len(tt.want))
			}
			for i, rec := range got {
				if rec.Date != tt.want[i] {
					t.Errorf("record %d date = %s, want %s", i, rec.Date, tt.want[i])
				}
			}
		})
	}
}
